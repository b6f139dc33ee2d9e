package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"bitcore/pkg/bittypes"
)

var promptNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// PromptService stores named prompt artefacts as markdown files under
// <storage>/prompts. It implements bittypes.PromptStore.
type PromptService struct {
	mu  sync.Mutex
	dir string
}

// NewPromptService creates the prompt service.
func NewPromptService() *PromptService {
	return &PromptService{}
}

// Name returns "prompts".
func (p *PromptService) Name() string {
	return "prompts"
}

// Initialize ensures the prompts directory exists.
func (p *PromptService) Initialize() error {
	cfg, err := GetConfigurationService()
	if err != nil {
		return err
	}
	p.dir = filepath.Join(cfg.StorageDir(), "prompts")
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create prompts directory: %w", err)
	}
	return nil
}

// List returns the stored prompt names, sorted.
func (p *PromptService) List() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list prompts: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		if name != entry.Name() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get returns a prompt's content by name.
func (p *PromptService) Get(name string) (string, error) {
	if err := validatePromptName(name); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.file(name))
	if os.IsNotExist(err) {
		return "", bittypes.NotFoundError("prompt", name)
	}
	if err != nil {
		return "", fmt.Errorf("cannot read prompt %s: %w", name, err)
	}
	return string(raw), nil
}

// Save writes a prompt, overwriting any existing content.
func (p *PromptService) Save(name, content string) error {
	if err := validatePromptName(name); err != nil {
		return err
	}
	if content == "" {
		return bittypes.InputErrorf("prompt content is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return os.WriteFile(p.file(name), []byte(content), 0o600)
}

// Remove deletes a prompt by name.
func (p *PromptService) Remove(name string) error {
	if err := validatePromptName(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.file(name))
	if os.IsNotExist(err) {
		return bittypes.NotFoundError("prompt", name)
	}
	return err
}

func (p *PromptService) file(name string) string {
	return filepath.Join(p.dir, name+".md")
}

// validatePromptName rejects names that could escape the prompts
// directory or collide with hidden files.
func validatePromptName(name string) error {
	if !promptNamePattern.MatchString(name) {
		return bittypes.InputErrorf("invalid prompt name %q", name)
	}
	if strings.Contains(name, "..") {
		return bittypes.InputErrorf("invalid prompt name %q", name)
	}
	return nil
}

// GetPromptService resolves the prompt service from the global registry.
func GetPromptService() (*PromptService, error) {
	service, err := GetGlobalRegistry().GetService("prompts")
	if err != nil {
		return nil, err
	}
	prompts, ok := service.(*PromptService)
	if !ok {
		return nil, fmt.Errorf("prompts service has incorrect type")
	}
	return prompts, nil
}
