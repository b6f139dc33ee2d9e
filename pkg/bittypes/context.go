// This file contains the per-invocation execution context and the
// connection-scoped session record shared by the console and WebSocket
// front-ends.
package bittypes

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Role is the single permission field carried by the current user.
type Role string

// Recognised roles. Single-user mode always resolves to RoleAdmin.
const (
	RoleAdmin  Role = "admin"
	RolePublic Role = "public"
	RoleClient Role = "client"
)

// User identifies the operator driving a command.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// DefaultUser resolves the single-user operator identity from the
// environment: BITCORE_USER and BITCORE_ROLE, defaulting to an admin
// named "operator".
func DefaultUser() User {
	username := os.Getenv("BITCORE_USER")
	if username == "" {
		username = "operator"
	}
	role := Role(os.Getenv("BITCORE_ROLE"))
	switch role {
	case RoleAdmin, RolePublic, RoleClient:
	default:
		role = RoleAdmin
	}
	return User{Username: username, Role: role}
}

// ChatMessage is one entry of a session's chat transcript.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session holds the per-connection mutable state. It is created on
// transport connect and destroyed on disconnect; console callers get a
// process-local equivalent. Only the documented fields exist — the
// dispatcher serialises access per connection, so no locking is needed.
type Session struct {
	ID         string
	User       User
	Mode       string // "command" or "chat"
	Transcript []ChatMessage
	// MemoryHandle names the active memory collection, when one is open.
	MemoryHandle string
	// CachedCredentials holds credentials resolved during this
	// connection so handlers avoid re-reading the profile store.
	CachedCredentials map[string]string
	CSRFToken         string
}

// NewSession creates a session for the given user with a fresh ID and
// CSRF token, starting in command mode.
func NewSession(user User) *Session {
	return &Session{
		ID:                uuid.NewString(),
		User:              user,
		Mode:              "command",
		CachedCredentials: make(map[string]string),
		CSRFToken:         uuid.NewString(),
	}
}

// AppendMessage records a transcript entry.
func (s *Session) AppendMessage(role, content string) {
	s.Transcript = append(s.Transcript, ChatMessage{Role: role, Content: content, At: time.Now()})
}

// Sink is a caller-supplied output function. It receives either a string
// line or a JSON-serialisable value; the WebSocket layer wraps the value
// in a protocol frame, the console layer renders it as text.
type Sink func(value any)

// Emitter bundles structured logging with forwarding to a caller's sink.
// It is constructed once per dispatch by the execution core.
type Emitter func(value any, meta map[string]any)

// PromptRequest describes an interactive round-trip to the client.
type PromptRequest struct {
	Text    string
	Hidden  bool
	Timeout time.Duration
}

// PromptFunc round-trips a prompt to the WebSocket client. It returns the
// client's answer, or the empty string when the prompt times out.
type PromptFunc func(req PromptRequest) (string, error)

// CommandContext is the uniform record passed to a handler for one
// invocation. It is built fresh per dispatch and must be treated as
// immutable by handlers, except for the documented session fields.
type CommandContext struct {
	CommandName    string
	Action         string
	PositionalArgs []string
	Flags          Flags

	CurrentUser User
	Session     *Session
	IsWebSocket bool

	// Output and Error are the raw caller-supplied sinks. Handlers
	// normally go through Emit/EmitError, which add structured logging.
	Output Sink
	Error  Sink

	Emit      Emitter
	EmitError Emitter

	// WSPrompt is nil for console callers.
	WSPrompt PromptFunc
	// Telemetry is nil when the caller did not attach an event channel.
	Telemetry Telemetry
}

// JSONRequested reports whether the reserved --json flag is present.
func (c *CommandContext) JSONRequested() bool {
	return c.Flags.Has("json")
}

// Verbose reports whether the reserved --verbose flag is present.
func (c *CommandContext) Verbose() bool {
	return c.Flags.Bool("verbose")
}

// Arg returns the positional argument at index i, or "" when absent.
func (c *CommandContext) Arg(i int) string {
	if i < 0 || i >= len(c.PositionalArgs) {
		return ""
	}
	return c.PositionalArgs[i]
}
