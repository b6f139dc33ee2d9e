package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, bittypes.ErrInputValidation, Classify(bittypes.InputErrorf("x")))
	assert.Equal(t, bittypes.ErrPermission, Classify(bittypes.PermissionError("x")))
	assert.Equal(t, bittypes.ErrNetwork, Classify(context.DeadlineExceeded))
	assert.Equal(t, bittypes.ErrNetwork, Classify(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, bittypes.ErrNotFound, Classify(fmt.Errorf("reading: %w", os.ErrNotExist)))
	assert.Equal(t, bittypes.ErrUnknown, Classify(errors.New("anything")))

	// A wrapped typed error keeps its kind.
	wrapped := fmt.Errorf("outer: %w", bittypes.APIKeyError("anthropic", "missing"))
	assert.Equal(t, bittypes.ErrAPIKey, Classify(wrapped))
}

func TestWrapErrorRendering(t *testing.T) {
	channel := logchannel.New(16)
	var lines []string
	emit := func(value any, _ map[string]any) {
		lines = append(lines, Serialize(value))
	}

	result := WrapError(bittypes.APIKeyError("anthropic", "no key for anthropic"), emit, channel.Logger("test"), false)

	assert.False(t, result.Success)
	assert.True(t, result.Handled)
	assert.False(t, result.KeepDisabled)
	assert.Equal(t, "no key for anthropic", result.Error)

	require.Len(t, lines, 2)
	assert.Equal(t, "Error [api_key]: no key for anthropic", lines[0])
	assert.Equal(t, "Use /keys set anthropic", lines[1])

	// Stack goes to the channel at error level, never to the sink.
	entries := channel.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, logchannel.LevelError, entries[0].Level)
	assert.NotEmpty(t, entries[0].Meta["stack"])
	for _, line := range lines {
		assert.NotContains(t, line, "goroutine")
	}
}

func TestWrapErrorNoHint(t *testing.T) {
	var lines []string
	emit := func(value any, _ map[string]any) {
		lines = append(lines, Serialize(value))
	}

	err := &bittypes.CommandError{Kind: bittypes.ErrInputValidation, Message: "bad", NoHint: true}
	WrapError(err, emit, logchannel.New(16).Logger("test"), false)

	require.Len(t, lines, 1)
	assert.Equal(t, "Error [input_validation]: bad", lines[0])
}

func TestWrapErrorVerboseIncludesStack(t *testing.T) {
	var lines []string
	emit := func(value any, _ map[string]any) {
		lines = append(lines, Serialize(value))
	}

	WrapError(errors.New("boom"), emit, logchannel.New(16).Logger("test"), true)

	var sawStack bool
	for _, line := range lines {
		if line != "" && line != "Error [unknown]: boom" && line != "Try /diagnose" {
			sawStack = true
		}
	}
	assert.True(t, sawStack)
}
