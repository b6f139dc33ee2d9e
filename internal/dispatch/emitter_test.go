package dispatch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitcore/internal/logchannel"
)

func TestSerialize(t *testing.T) {
	assert.Equal(t, "plain", Serialize("plain"))
	assert.Equal(t, "", Serialize(nil))
	assert.Equal(t, "boom", Serialize(errors.New("boom")))

	out := Serialize(map[string]int{"a": 1})
	assert.Contains(t, out, `"a": 1`)
}

func TestEmitterForwardsAndLogs(t *testing.T) {
	channel := logchannel.New(16)
	var got []any
	emit := NewEmitter(func(v any) { got = append(got, v) }, logchannel.LevelInfo, channel.Logger("test"))

	emit("hello", nil)
	emit(map[string]any{"k": "v"}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0])

	entries := channel.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Message)
	// Object emissions carry the payload in meta.
	assert.NotNil(t, entries[1].Meta["payload"])
}

func TestEmitterNilSinkWritesStdio(t *testing.T) {
	channel := logchannel.New(16)
	var outBuf, errBuf bytes.Buffer

	origOut, origErr := stdout, stderr
	stdout, stderr = &outBuf, &errBuf
	defer func() { stdout, stderr = origOut, origErr }()

	NewEmitter(nil, logchannel.LevelInfo, channel.Logger("test"))("to stdout", nil)
	NewEmitter(nil, logchannel.LevelError, channel.Logger("test"))("to stderr", nil)

	assert.Equal(t, "to stdout\n", outBuf.String())
	assert.Equal(t, "to stderr\n", errBuf.String())
}

func TestEmitterSinkPanicIsContained(t *testing.T) {
	channel := logchannel.New(16)
	emit := NewEmitter(func(any) { panic("sink gone") }, logchannel.LevelInfo, channel.Logger("test"))

	assert.NotPanics(t, func() { emit("value", nil) })

	var sawFailure bool
	for _, entry := range channel.Entries() {
		if entry.Level == logchannel.LevelError {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)
}
