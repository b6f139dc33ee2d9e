// Package logchannel provides the process-wide structured log channel the
// observability surface (/logs) consumes, and the per-module logger
// factory bound to it. The channel is a bounded in-memory ring; eviction
// simply drops the oldest entries.
package logchannel

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Level is a normalised log level.
type Level string

// The four channel levels.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// NormalizeLevel maps loose level spellings onto the four channel levels:
// "warning" becomes warn, anything unrecognised becomes info.
func NormalizeLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	default:
		return LevelInfo
	}
}

// Entry is one structured log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Channel is a bounded ring of log entries. Pushes never block; when the
// ring is full the oldest entry is evicted.
type Channel struct {
	mu       sync.Mutex
	entries  []Entry
	start    int
	count    int
	capacity int

	debug  atomic.Bool
	mirror atomic.Pointer[charmlog.Logger]
}

// DefaultCapacity bounds the process-wide channel.
const DefaultCapacity = 1024

// New creates a channel holding at most capacity entries.
func New(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{entries: make([]Entry, capacity), capacity: capacity}
}

// Default is the process-wide channel every module logger binds to.
var Default = New(DefaultCapacity)

// SetDebug toggles whether debug entries are recorded. Off by default;
// enabled when DEBUG_MODE is set.
func (c *Channel) SetDebug(enabled bool) {
	c.debug.Store(enabled)
}

// DebugEnabled reports the current debug-mode flag.
func (c *Channel) DebugEnabled() bool {
	return c.debug.Load()
}

// SetMirror attaches a console logger that every push is mirrored to.
// Mirroring is operator ergonomics, not part of the channel contract.
func (c *Channel) SetMirror(logger *charmlog.Logger) {
	c.mirror.Store(logger)
}

// Push appends an entry. The level is normalised, the message coerced to
// text, and meta deep-cloned with cycle detection so later mutation by the
// caller cannot corrupt the record. Debug entries are dropped unless debug
// mode is enabled.
func (c *Channel) Push(level Level, source string, message any, meta map[string]any) {
	lvl := NormalizeLevel(string(level))
	if lvl == LevelDebug && !c.debug.Load() {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     lvl,
		Source:    source,
		Message:   CoerceMessage(message),
		Meta:      CloneMeta(meta),
	}

	c.mu.Lock()
	idx := (c.start + c.count) % c.capacity
	c.entries[idx] = entry
	if c.count < c.capacity {
		c.count++
	} else {
		c.start = (c.start + 1) % c.capacity
	}
	c.mu.Unlock()

	if m := c.mirror.Load(); m != nil {
		mirrorEntry(m, entry)
	}
}

// Entries returns a snapshot of the ring, oldest first.
func (c *Channel) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, c.count)
	for i := 0; i < c.count; i++ {
		out = append(out, c.entries[(c.start+i)%c.capacity])
	}
	return out
}

// Len returns the number of retained entries.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Reset discards all retained entries. Test support.
func (c *Channel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = 0
	c.count = 0
}

// CoerceMessage renders any message value as text: strings pass through,
// errors render their message, everything else is JSON with an
// "[unserializable]" fallback.
func CoerceMessage(message any) string {
	switch m := message.(type) {
	case nil:
		return ""
	case string:
		return m
	case error:
		return fmt.Sprintf("%T: %s", m, m.Error())
	default:
		data, err := json.Marshal(m)
		if err != nil {
			return "[unserializable]"
		}
		return string(data)
	}
}

func mirrorEntry(m *charmlog.Logger, e Entry) {
	keyvals := make([]any, 0, 2+2*len(e.Meta))
	keyvals = append(keyvals, "source", e.Source)
	for k, v := range e.Meta {
		keyvals = append(keyvals, k, v)
	}
	switch e.Level {
	case LevelDebug:
		m.Debug(e.Message, keyvals...)
	case LevelWarn:
		m.Warn(e.Message, keyvals...)
	case LevelError:
		m.Error(e.Message, keyvals...)
	default:
		m.Info(e.Message, keyvals...)
	}
}
