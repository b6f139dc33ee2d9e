package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"bitcore/pkg/bittypes"
)

// profileData is the on-disk shape of the single-user profile.
type profileData struct {
	Username string                 `json:"username"`
	Role     bittypes.Role          `json:"role"`
	APIKeys  map[string]string      `json:"apiKeys,omitempty"`
	GitHub   *bittypes.GitHubConfig `json:"github,omitempty"`
}

// ProfileService is the user-profile store: one JSON file under the
// storage directory, read-mostly, with writes serialised behind a mutex.
// It implements bittypes.UserProfile and never fails with "not
// authenticated" — the operator identity always resolves.
type ProfileService struct {
	mu   sync.Mutex
	path string
	data profileData
}

// NewProfileService creates the profile service.
func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// Name returns "profile".
func (p *ProfileService) Name() string {
	return "profile"
}

// Initialize loads profile.json, seeding it from the environment identity
// when absent.
func (p *ProfileService) Initialize() error {
	cfg, err := GetConfigurationService()
	if err != nil {
		return err
	}
	p.path = filepath.Join(cfg.StorageDir(), "profile.json")

	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		user := bittypes.DefaultUser()
		p.data = profileData{
			Username: user.Username,
			Role:     user.Role,
			APIKeys:  make(map[string]string),
		}
		return p.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("cannot read profile: %w", err)
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		return fmt.Errorf("profile file is corrupt: %w", err)
	}
	if p.data.APIKeys == nil {
		p.data.APIKeys = make(map[string]string)
	}
	return nil
}

// CurrentUser returns the operator identity.
func (p *ProfileService) CurrentUser() bittypes.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.Username == "" {
		return bittypes.DefaultUser()
	}
	return bittypes.User{Username: p.data.Username, Role: p.data.Role}
}

// HasAPIKey reports whether a credential is stored for the service.
func (p *ProfileService) HasAPIKey(service string) bool {
	_, ok := p.GetAPIKey(service)
	return ok
}

// GetAPIKey returns the stored credential for a service, falling back to
// the conventional <SERVICE>_API_KEY environment variable.
func (p *ProfileService) GetAPIKey(service string) (string, bool) {
	p.mu.Lock()
	key, ok := p.data.APIKeys[service]
	p.mu.Unlock()
	if ok && key != "" {
		return key, true
	}
	if env := os.Getenv(envKeyName(service)); env != "" {
		return env, true
	}
	return "", false
}

// SetAPIKey stores a credential and persists the profile.
func (p *ProfileService) SetAPIKey(service, value string) error {
	if service == "" || value == "" {
		return bittypes.InputErrorf("service and value are required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.APIKeys[service] = value
	return p.persistLocked()
}

// RemoveAPIKey deletes a stored credential.
func (p *ProfileService) RemoveAPIKey(service string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.data.APIKeys[service]; !ok {
		return bittypes.NotFoundError("API key", service)
	}
	delete(p.data.APIKeys, service)
	return p.persistLocked()
}

// Services lists the service names with stored credentials, sorted.
func (p *ProfileService) Services() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.data.APIKeys))
	for name := range p.data.APIKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GitHubConfig returns the stored GitHub sync configuration.
func (p *ProfileService) GitHubConfig() (bittypes.GitHubConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.GitHub == nil {
		return bittypes.GitHubConfig{}, false
	}
	return *p.data.GitHub, true
}

// SetGitHubConfig stores the GitHub sync configuration.
func (p *ProfileService) SetGitHubConfig(cfg bittypes.GitHubConfig) error {
	if cfg.Owner == "" || cfg.Repo == "" {
		return bittypes.InputErrorf("github owner and repo are required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.GitHub = &cfg
	return p.persistLocked()
}

func (p *ProfileService) persistLocked() error {
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, raw, 0o600)
}

func envKeyName(service string) string {
	out := make([]rune, 0, len(service))
	for _, r := range service {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		case r == '-':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out) + "_API_KEY"
}

// GetProfileService resolves the profile service from the global registry.
func GetProfileService() (*ProfileService, error) {
	service, err := GetGlobalRegistry().GetService("profile")
	if err != nil {
		return nil, err
	}
	profile, ok := service.(*ProfileService)
	if !ok {
		return nil, fmt.Errorf("profile service has incorrect type")
	}
	return profile, nil
}
