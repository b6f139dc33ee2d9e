package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

const (
	githubAPIBase   = "https://api.github.com"
	syncRemoteDir   = "prompts"
	syncHTTPTimeout = 7 * time.Second
)

// SyncService mirrors the prompt store against a GitHub repository through
// the contents API. It implements bittypes.GitHubSync.
type SyncService struct {
	httpClient *http.Client
	baseURL    string
	logger     *logchannel.Logger
}

// NewSyncService creates the sync service.
func NewSyncService() *SyncService {
	return &SyncService{
		httpClient: &http.Client{Timeout: syncHTTPTimeout},
		baseURL:    githubAPIBase,
		logger:     logchannel.Source("services.sync"),
	}
}

// Name returns "sync".
func (s *SyncService) Name() string {
	return "sync"
}

// Initialize is a no-op; configuration is read from the profile per call.
func (s *SyncService) Initialize() error {
	return nil
}

// config resolves the stored GitHub configuration, erroring with the
// input_validation taxonomy when sync was never set up.
func (s *SyncService) config() (bittypes.GitHubConfig, error) {
	profile, err := GetProfileService()
	if err != nil {
		return bittypes.GitHubConfig{}, err
	}
	cfg, ok := profile.GitHubConfig()
	if !ok {
		return bittypes.GitHubConfig{}, &bittypes.CommandError{
			Kind:    bittypes.ErrInputValidation,
			Message: "GitHub sync is not configured",
			Hint:    "Use /sync config --owner=<owner> --repo=<repo>",
		}
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return cfg, nil
}

// Status reports the configured repository and whether it is reachable.
func (s *SyncService) Status() (bittypes.SyncStatus, error) {
	cfg, err := s.config()
	if err != nil {
		var cmdErr *bittypes.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Kind == bittypes.ErrInputValidation {
			return bittypes.SyncStatus{Configured: false}, nil
		}
		return bittypes.SyncStatus{}, err
	}

	status := bittypes.SyncStatus{
		Configured: true,
		Repository: cfg.Owner + "/" + cfg.Repo,
		Branch:     cfg.Branch,
	}

	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	err = s.request(cfg, http.MethodGet, fmt.Sprintf("/repos/%s/%s", cfg.Owner, cfg.Repo), nil, &repo)
	if err != nil {
		s.logger.Warn("repository unreachable", map[string]any{
			"repository": status.Repository,
			"error":      err.Error(),
		})
		return status, nil
	}
	status.Reachable = true
	status.DefaultBranch = repo.DefaultBranch
	return status, nil
}

// Push uploads every local prompt, skipping files whose remote content
// already matches.
func (s *SyncService) Push() (bittypes.SyncReport, error) {
	cfg, err := s.config()
	if err != nil {
		return bittypes.SyncReport{}, err
	}
	prompts, err := GetPromptService()
	if err != nil {
		return bittypes.SyncReport{}, err
	}
	names, err := prompts.List()
	if err != nil {
		return bittypes.SyncReport{}, err
	}

	remote, err := s.remoteFiles(cfg)
	if err != nil {
		return bittypes.SyncReport{}, err
	}

	var report bittypes.SyncReport
	for _, name := range names {
		content, err := prompts.Get(name)
		if err != nil {
			return report, err
		}
		file := name + ".md"
		if existing, ok := remote[file]; ok && existing.decoded == content {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		body := map[string]any{
			"message": fmt.Sprintf("Update prompt %s", name),
			"content": base64.StdEncoding.EncodeToString([]byte(content)),
			"branch":  cfg.Branch,
		}
		if existing, ok := remote[file]; ok {
			body["sha"] = existing.SHA
		}
		path := fmt.Sprintf("/repos/%s/%s/contents/%s/%s", cfg.Owner, cfg.Repo, syncRemoteDir, file)
		if err := s.request(cfg, http.MethodPut, path, body, nil); err != nil {
			return report, err
		}
		report.Pushed = append(report.Pushed, name)
	}

	s.logger.Info("push complete", map[string]any{
		"pushed":  len(report.Pushed),
		"skipped": len(report.Skipped),
	})
	return report, nil
}

// Pull downloads every remote prompt, skipping files whose local content
// already matches. Remote wins on conflict.
func (s *SyncService) Pull() (bittypes.SyncReport, error) {
	cfg, err := s.config()
	if err != nil {
		return bittypes.SyncReport{}, err
	}
	prompts, err := GetPromptService()
	if err != nil {
		return bittypes.SyncReport{}, err
	}

	remote, err := s.remoteFiles(cfg)
	if err != nil {
		return bittypes.SyncReport{}, err
	}

	var report bittypes.SyncReport
	for file, entry := range remote {
		name := strings.TrimSuffix(file, ".md")
		if name == file {
			report.Skipped = append(report.Skipped, file)
			continue
		}
		if local, err := prompts.Get(name); err == nil && local == entry.decoded {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err := prompts.Save(name, entry.decoded); err != nil {
			return report, err
		}
		report.Pulled = append(report.Pulled, name)
	}

	s.logger.Info("pull complete", map[string]any{
		"pulled":  len(report.Pulled),
		"skipped": len(report.Skipped),
	})
	return report, nil
}

type remoteFile struct {
	SHA     string `json:"sha"`
	decoded string
}

// remoteFiles lists the prompts directory in the repository and fetches
// each file's content. A missing directory is an empty repository, not an
// error.
func (s *SyncService) remoteFiles(cfg bittypes.GitHubConfig) (map[string]remoteFile, error) {
	var listing []struct {
		Name string `json:"name"`
		Path string `json:"path"`
		SHA  string `json:"sha"`
		Type string `json:"type"`
	}
	path := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", cfg.Owner, cfg.Repo, syncRemoteDir, cfg.Branch)
	err := s.request(cfg, http.MethodGet, path, nil, &listing)
	if err != nil {
		var cmdErr *bittypes.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Kind == bittypes.ErrNotFound {
			return map[string]remoteFile{}, nil
		}
		return nil, err
	}

	files := make(map[string]remoteFile, len(listing))
	for _, entry := range listing {
		if entry.Type != "file" {
			continue
		}
		var blob struct {
			Content  string `json:"content"`
			Encoding string `json:"encoding"`
		}
		blobPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", cfg.Owner, cfg.Repo, entry.Path, cfg.Branch)
		if err := s.request(cfg, http.MethodGet, blobPath, nil, &blob); err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
		if err != nil {
			return nil, bittypes.ServerError(fmt.Sprintf("cannot decode %s from GitHub", entry.Path), err)
		}
		files[entry.Name] = remoteFile{SHA: entry.SHA, decoded: string(raw)}
	}
	return files, nil
}

// request performs one GitHub API call and maps HTTP failures onto the
// error taxonomy.
func (s *SyncService) request(cfg bittypes.GitHubConfig, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return bittypes.NetworkError(fmt.Errorf("GitHub request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return bittypes.NotFoundError("GitHub resource", path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &bittypes.CommandError{
			Kind:    bittypes.ErrAuthentication,
			Message: fmt.Sprintf("GitHub rejected the request (%d)", resp.StatusCode),
			Hint:    "Use /sync config --token=<token>",
		}
	case resp.StatusCode >= 500:
		return bittypes.ServerError(fmt.Sprintf("GitHub returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return bittypes.InputErrorf("GitHub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetSyncService resolves the sync service from the global registry.
func GetSyncService() (*SyncService, error) {
	service, err := GetGlobalRegistry().GetService("sync")
	if err != nil {
		return nil, err
	}
	sync, ok := service.(*SyncService)
	if !ok {
		return nil, fmt.Errorf("sync service has incorrect type")
	}
	return sync, nil
}
