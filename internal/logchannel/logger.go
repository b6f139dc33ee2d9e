package logchannel

// Logger is a named, per-module logger bound to a channel. Loggers are
// cheap values; Child and WithMeta derive new loggers without copying the
// channel.
type Logger struct {
	source string
	base   map[string]any
	ch     *Channel
}

// Logger produces a module logger writing to this channel under the given
// source name.
func (c *Channel) Logger(source string) *Logger {
	return &Logger{source: source, ch: c}
}

// Source returns a module logger bound to the default channel.
func Source(name string) *Logger {
	return Default.Logger(name)
}

// Name returns the logger's source name.
func (l *Logger) Name() string {
	return l.source
}

// Child derives a logger with a dotted sub-source name.
func (l *Logger) Child(label string) *Logger {
	return &Logger{source: l.source + "." + label, base: l.base, ch: l.ch}
}

// WithMeta derives a logger whose entries carry base metadata merged under
// any per-call meta (per-call keys win).
func (l *Logger) WithMeta(base map[string]any) *Logger {
	merged := make(map[string]any, len(l.base)+len(base))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return &Logger{source: l.source, base: merged, ch: l.ch}
}

// Log pushes an entry at the given level.
func (l *Logger) Log(level Level, message any, meta map[string]any) {
	l.ch.Push(level, l.source, message, l.merge(meta))
}

// Debug logs at debug level; suppressed unless debug mode is enabled.
func (l *Logger) Debug(message any, meta map[string]any) {
	l.Log(LevelDebug, message, meta)
}

// Info logs at info level.
func (l *Logger) Info(message any, meta map[string]any) {
	l.Log(LevelInfo, message, meta)
}

// Warn logs at warn level.
func (l *Logger) Warn(message any, meta map[string]any) {
	l.Log(LevelWarn, message, meta)
}

// Error logs at error level.
func (l *Logger) Error(message any, meta map[string]any) {
	l.Log(LevelError, message, meta)
}

func (l *Logger) merge(meta map[string]any) map[string]any {
	if len(l.base) == 0 {
		return meta
	}
	merged := make(map[string]any, len(l.base)+len(meta))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range meta {
		merged[k] = v
	}
	return merged
}
