// This file declares the external collaborator interfaces the execution
// core depends on. The core treats every controller opaquely: each exposes
// a small verb set returning typed records and typed errors.
package bittypes

import "time"

// UserProfile is the single-user profile store. It never fails with
// "not authenticated": CurrentUser always resolves to the operator.
type UserProfile interface {
	CurrentUser() User
	HasAPIKey(service string) bool
	GetAPIKey(service string) (string, bool)
	SetAPIKey(service, value string) error
	RemoveAPIKey(service string) error
	Services() []string
	GitHubConfig() (GitHubConfig, bool)
	SetGitHubConfig(cfg GitHubConfig) error
}

// GitHubConfig holds the repository the prompt/research artefacts sync to.
type GitHubConfig struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Token  string `json:"token"`
}

// MemoryRecord is one persisted memory.
type MemoryRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoryStore persists and recalls operator memories.
type MemoryStore interface {
	Save(text string, tags []string) (MemoryRecord, error)
	List() ([]MemoryRecord, error)
	Search(query string) ([]MemoryRecord, error)
	Remove(id string) error
}

// Mission is a named, recurring command run.
type Mission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Schedule    string    `json:"schedule"`
	CommandLine string    `json:"commandLine"`
	CreatedAt   time.Time `json:"createdAt"`
	LastRun     time.Time `json:"lastRun,omitempty"`
}

// MissionScheduler persists missions and runs them on their schedules.
type MissionScheduler interface {
	List() ([]Mission, error)
	Save(name, schedule, commandLine string) (Mission, error)
	Run(name string) error
	Remove(name string) error
}

// PromptStore persists named prompt artefacts.
type PromptStore interface {
	List() ([]string, error)
	Get(name string) (string, error)
	Save(name, content string) error
	Remove(name string) error
}

// ResearchReport is the outcome of one research run.
type ResearchReport struct {
	Query   string   `json:"query"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources,omitempty"`
}

// ResearchController drives the external research pipeline. Telemetry may
// be nil; implementations tolerate its absence.
type ResearchController interface {
	Run(query string, tele Telemetry) (ResearchReport, error)
}

// ChatController converses with the language model, appending both sides
// of the exchange to the session transcript.
type ChatController interface {
	Send(session *Session, message string) (string, error)
}

// SyncReport summarises one push or pull against the GitHub repository.
type SyncReport struct {
	Pushed  []string `json:"pushed,omitempty"`
	Pulled  []string `json:"pulled,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

// SyncStatus describes the configured repository and its reachability.
type SyncStatus struct {
	Configured    bool   `json:"configured"`
	Repository    string `json:"repository,omitempty"`
	Branch        string `json:"branch,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
	Reachable     bool   `json:"reachable"`
}

// GitHubSync synchronises prompt artefacts with a GitHub repository.
type GitHubSync interface {
	Status() (SyncStatus, error)
	Push() (SyncReport, error)
	Pull() (SyncReport, error)
}

// Telemetry is the structured event channel long-running handlers feed.
type Telemetry interface {
	EmitStatus(stage, message string, detail map[string]any)
	EmitThought(text, stage string)
	EmitComplete(success bool, fields map[string]any)
}
