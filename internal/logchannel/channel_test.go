package logchannel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{" Error ", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLevel(tt.input), "input %q", tt.input)
	}
}

func TestCoerceMessage(t *testing.T) {
	assert.Equal(t, "plain", CoerceMessage("plain"))
	assert.Equal(t, "", CoerceMessage(nil))
	assert.Equal(t, `{"a":1}`, CoerceMessage(map[string]int{"a": 1}))

	err := errors.New("boom")
	coerced := CoerceMessage(err)
	assert.Contains(t, coerced, "boom")

	// Unserializable values degrade instead of failing.
	assert.Equal(t, "[unserializable]", CoerceMessage(func() {}))
}

func TestChannelPushAndSnapshot(t *testing.T) {
	ch := New(8)
	ch.Push(LevelInfo, "test", "first", nil)
	ch.Push(LevelWarn, "test", "second", map[string]any{"k": "v"})

	entries := ch.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "v", entries[1].Meta["k"])
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestChannelRingEviction(t *testing.T) {
	ch := New(3)
	for i := 0; i < 5; i++ {
		ch.Push(LevelInfo, "test", fmt.Sprintf("m%d", i), nil)
	}

	entries := ch.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "m2", entries[0].Message)
	assert.Equal(t, "m4", entries[2].Message)
	assert.Equal(t, 3, ch.Len())
}

func TestChannelDebugSuppression(t *testing.T) {
	ch := New(8)
	ch.Push(LevelDebug, "test", "dropped", nil)
	assert.Equal(t, 0, ch.Len())

	ch.SetDebug(true)
	ch.Push(LevelDebug, "test", "kept", nil)
	require.Equal(t, 1, ch.Len())
	assert.Equal(t, LevelDebug, ch.Entries()[0].Level)
}

func TestChannelMetaIsolation(t *testing.T) {
	ch := New(8)
	meta := map[string]any{"list": []string{"a"}}
	ch.Push(LevelInfo, "test", "msg", meta)

	// Caller mutation after the push must not corrupt the record.
	meta["list"] = []string{"changed"}
	meta["extra"] = true

	entries := ch.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"a"}, entries[0].Meta["list"])
	assert.NotContains(t, entries[0].Meta, "extra")
}

func TestCloneMetaCycles(t *testing.T) {
	inner := map[string]any{}
	inner["self"] = inner
	cloned := CloneMeta(map[string]any{"outer": inner})

	outer, ok := cloned["outer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[cycle]", outer["self"])
}

func TestCloneMetaSpecialValues(t *testing.T) {
	cloned := CloneMeta(map[string]any{
		"err": errors.New("kaput"),
		"fn":  TestCloneMetaSpecialValues,
	})

	errMap, ok := cloned["err"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "kaput", errMap["message"])

	fnMap, ok := cloned["fn"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function", fnMap["type"])
}

func TestLoggerSourceAndChild(t *testing.T) {
	ch := New(8)
	logger := ch.Logger("dispatch").Child("keys")
	logger.Info("hello", nil)

	entries := ch.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "dispatch.keys", entries[0].Source)
}

func TestLoggerWithMeta(t *testing.T) {
	ch := New(8)
	logger := ch.Logger("test").WithMeta(map[string]any{"base": "x"})
	logger.Info("one", map[string]any{"call": "y"})
	logger.Info("two", map[string]any{"base": "override"})

	entries := ch.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "x", entries[0].Meta["base"])
	assert.Equal(t, "y", entries[0].Meta["call"])
	assert.Equal(t, "override", entries[1].Meta["base"])
}
