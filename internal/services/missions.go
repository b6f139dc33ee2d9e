package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// MissionRunner executes a mission's command line. The shell front-end
// injects a dispatcher-backed runner so missions go through the same
// pipeline as typed commands.
type MissionRunner func(commandLine string) error

// MissionService schedules recurring command runs with cron expressions.
// Missions persist to missions.json and are re-armed on startup. It
// implements bittypes.MissionScheduler.
type MissionService struct {
	mu       sync.Mutex
	path     string
	missions []bittypes.Mission
	entries  map[string]cron.EntryID
	cron     *cron.Cron
	runner   MissionRunner
	logger   *logchannel.Logger
}

// NewMissionService creates the mission service.
func NewMissionService() *MissionService {
	return &MissionService{
		entries: make(map[string]cron.EntryID),
		cron:    cron.New(),
		logger:  logchannel.Source("services.missions"),
	}
}

// Name returns "missions".
func (m *MissionService) Name() string {
	return "missions"
}

// SetRunner injects the command runner. Must be called before any mission
// fires; scheduled runs with no runner are logged and skipped.
func (m *MissionService) SetRunner(runner MissionRunner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runner = runner
}

// Initialize loads missions.json, arms every stored schedule, and starts
// the cron loop.
func (m *MissionService) Initialize() error {
	cfg, err := GetConfigurationService()
	if err != nil {
		return err
	}
	m.path = filepath.Join(cfg.StorageDir(), "missions.json")

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err == nil {
		if err := json.Unmarshal(raw, &m.missions); err != nil {
			return fmt.Errorf("mission file is corrupt: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot read missions: %w", err)
	}

	for i := range m.missions {
		if err := m.armLocked(&m.missions[i]); err != nil {
			m.logger.Warn("skipping mission with invalid schedule", map[string]any{
				"mission":  m.missions[i].Name,
				"schedule": m.missions[i].Schedule,
			})
		}
	}
	m.cron.Start()
	return nil
}

// Shutdown stops the cron loop, waiting for in-flight runs.
func (m *MissionService) Shutdown() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// List returns all missions sorted by name.
func (m *MissionService) List() ([]bittypes.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bittypes.Mission, len(m.missions))
	copy(out, m.missions)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save validates the schedule, stores the mission, and arms it. Saving
// under an existing name replaces that mission.
func (m *MissionService) Save(name, schedule, commandLine string) (bittypes.Mission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bittypes.Mission{}, bittypes.InputErrorf("mission name is required")
	}
	if strings.TrimSpace(commandLine) == "" {
		return bittypes.Mission{}, bittypes.InputErrorf("mission command is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return bittypes.Mission{}, bittypes.InputErrorf("invalid cron schedule %q: %v", schedule, err)
	}

	mission := bittypes.Mission{
		ID:          uuid.NewString(),
		Name:        name,
		Schedule:    schedule,
		CommandLine: commandLine,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := m.indexLocked(name); idx >= 0 {
		m.disarmLocked(m.missions[idx].ID)
		m.missions[idx] = mission
	} else {
		m.missions = append(m.missions, mission)
	}
	if err := m.armLocked(&mission); err != nil {
		return bittypes.Mission{}, err
	}
	if err := m.persistLocked(); err != nil {
		return bittypes.Mission{}, err
	}
	return mission, nil
}

// Run fires a mission immediately, outside its schedule.
func (m *MissionService) Run(name string) error {
	m.mu.Lock()
	idx := m.indexLocked(name)
	if idx < 0 {
		m.mu.Unlock()
		return bittypes.NotFoundError("mission", name)
	}
	mission := m.missions[idx]
	runner := m.runner
	m.mu.Unlock()

	if runner == nil {
		return fmt.Errorf("mission runner not configured")
	}
	m.markRun(mission.ID)
	return runner(mission.CommandLine)
}

// Remove disarms and deletes a mission by name.
func (m *MissionService) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(name)
	if idx < 0 {
		return bittypes.NotFoundError("mission", name)
	}
	m.disarmLocked(m.missions[idx].ID)
	m.missions = append(m.missions[:idx], m.missions[idx+1:]...)
	return m.persistLocked()
}

func (m *MissionService) indexLocked(name string) int {
	for i, mission := range m.missions {
		if mission.Name == name {
			return i
		}
	}
	return -1
}

// armLocked registers the mission with cron. The job body snapshots the
// runner at fire time so SetRunner can arrive after Initialize.
func (m *MissionService) armLocked(mission *bittypes.Mission) error {
	id := mission.ID
	line := mission.CommandLine
	name := mission.Name
	entryID, err := m.cron.AddFunc(mission.Schedule, func() {
		m.mu.Lock()
		runner := m.runner
		m.mu.Unlock()
		if runner == nil {
			m.logger.Warn("mission fired with no runner", map[string]any{"mission": name})
			return
		}
		m.markRun(id)
		m.logger.Info("mission fired", map[string]any{"mission": name})
		if err := runner(line); err != nil {
			m.logger.Error("mission run failed", map[string]any{"mission": name, "error": err.Error()})
		}
	})
	if err != nil {
		return err
	}
	m.entries[id] = entryID
	return nil
}

func (m *MissionService) disarmLocked(id string) {
	if entryID, ok := m.entries[id]; ok {
		m.cron.Remove(entryID)
		delete(m.entries, id)
	}
}

func (m *MissionService) markRun(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.missions {
		if m.missions[i].ID == id {
			m.missions[i].LastRun = time.Now()
			break
		}
	}
	if err := m.persistLocked(); err != nil {
		m.logger.Warn("cannot persist mission run time", map[string]any{"error": err.Error()})
	}
}

func (m *MissionService) persistLocked() error {
	raw, err := json.MarshalIndent(m.missions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, raw, 0o600)
}

// GetMissionService resolves the mission service from the global registry.
func GetMissionService() (*MissionService, error) {
	service, err := GetGlobalRegistry().GetService("missions")
	if err != nil {
		return nil, err
	}
	missions, ok := service.(*MissionService)
	if !ok {
		return nil, fmt.Errorf("missions service has incorrect type")
	}
	return missions, nil
}
