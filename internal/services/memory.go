package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bitcore/pkg/bittypes"
)

// MemoryService persists operator memories in a JSON file under the
// storage directory. It implements bittypes.MemoryStore.
type MemoryService struct {
	mu      sync.Mutex
	path    string
	records []bittypes.MemoryRecord
}

// NewMemoryService creates the memory service.
func NewMemoryService() *MemoryService {
	return &MemoryService{}
}

// Name returns "memory".
func (m *MemoryService) Name() string {
	return "memory"
}

// Initialize loads memories.json when present.
func (m *MemoryService) Initialize() error {
	cfg, err := GetConfigurationService()
	if err != nil {
		return err
	}
	m.path = filepath.Join(cfg.StorageDir(), "memories.json")

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read memories: %w", err)
	}
	if err := json.Unmarshal(raw, &m.records); err != nil {
		return fmt.Errorf("memory file is corrupt: %w", err)
	}
	return nil
}

// Save stores a new memory record.
func (m *MemoryService) Save(text string, tags []string) (bittypes.MemoryRecord, error) {
	if strings.TrimSpace(text) == "" {
		return bittypes.MemoryRecord{}, bittypes.InputErrorf("memory text is required")
	}

	record := bittypes.MemoryRecord{
		ID:        uuid.NewString(),
		Text:      text,
		Tags:      tags,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	if err := m.persistLocked(); err != nil {
		m.records = m.records[:len(m.records)-1]
		return bittypes.MemoryRecord{}, err
	}
	return record, nil
}

// List returns all records, oldest first.
func (m *MemoryService) List() ([]bittypes.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bittypes.MemoryRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Search returns records whose text or tags contain the query,
// case-insensitively.
func (m *MemoryService) Search(query string) ([]bittypes.MemoryRecord, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, bittypes.InputErrorf("search query is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []bittypes.MemoryRecord
	for _, record := range m.records {
		if strings.Contains(strings.ToLower(record.Text), needle) {
			out = append(out, record)
			continue
		}
		for _, tag := range record.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				out = append(out, record)
				break
			}
		}
	}
	return out, nil
}

// Remove deletes a record by ID or unambiguous ID prefix.
func (m *MemoryService) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, record := range m.records {
		if record.ID == id || strings.HasPrefix(record.ID, id) {
			if idx >= 0 {
				return bittypes.InputErrorf("memory id %q is ambiguous", id)
			}
			idx = i
		}
	}
	if idx < 0 {
		return bittypes.NotFoundError("memory", id)
	}

	m.records = append(m.records[:idx], m.records[idx+1:]...)
	return m.persistLocked()
}

func (m *MemoryService) persistLocked() error {
	raw, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, raw, 0o600)
}

// GetMemoryService resolves the memory service from the global registry.
func GetMemoryService() (*MemoryService, error) {
	service, err := GetGlobalRegistry().GetService("memory")
	if err != nil {
		return nil, err
	}
	memory, ok := service.(*MemoryService)
	if !ok {
		return nil, fmt.Errorf("memory service has incorrect type")
	}
	return memory, nil
}
