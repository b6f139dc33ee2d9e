package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeQuoting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "double quoted argument",
			input: `/say "hello world" bye`,
			want:  []string{"/say", "hello world", "bye"},
		},
		{
			name:  "single quoted argument",
			input: `/say 'hello world'`,
			want:  []string{"/say", "hello world"},
		},
		{
			name:  "quote opening mid-token",
			input: `/send --msg="hello world"`,
			want:  []string{"/send", "--msg=hello world"},
		},
		{
			name:  "empty quoted token survives",
			input: `/send ""`,
			want:  []string{"/send", ""},
		},
		{
			name:  "adjacent quoted parts join",
			input: `/send "a"'b'c`,
			want:  []string{"/send", "abc"},
		},
		{
			name:  "multiple spaces collapse",
			input: "/a   b    c",
			want:  []string{"/a", "b", "c"},
		},
		{
			name:  "empty line",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \t  ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, warnings := Tokenize(tt.input)
			assert.Equal(t, tt.want, tokens)
			assert.Empty(t, warnings)
		})
	}
}

func TestTokenizeUnterminatedQuote(t *testing.T) {
	tokens, warnings := Tokenize(`/say "unfinished`)
	assert.Equal(t, []string{"/say", "unfinished"}, tokens)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unterminated quote")
}

func TestParseBasicShape(t *testing.T) {
	cmd := Parse(`/x a --b=1 "c d"`)

	assert.Equal(t, "x", cmd.Name)
	assert.Equal(t, []string{"a", "c d"}, cmd.PositionalArgs)
	value, ok := cmd.Flags.String("b")
	require.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestParseFlagForms(t *testing.T) {
	cmd := Parse("/x --verbose --quiet=false --empty=")

	// Bare flag is boolean true.
	require.True(t, cmd.Flags.Has("verbose"))
	assert.True(t, cmd.Flags["verbose"].IsBool)
	assert.True(t, cmd.Flags.Bool("verbose"))

	// Valued flag stays a string, never coerced.
	require.True(t, cmd.Flags.Has("quiet"))
	assert.False(t, cmd.Flags["quiet"].IsBool)
	assert.Equal(t, "false", cmd.Flags["quiet"].Value)
	assert.False(t, cmd.Flags.Bool("quiet"))

	// Explicit empty value stays an empty string flag.
	require.True(t, cmd.Flags.Has("empty"))
	assert.False(t, cmd.Flags["empty"].IsBool)
	assert.Equal(t, "", cmd.Flags["empty"].Value)
}

func TestParseFlagOrderIndependence(t *testing.T) {
	a := Parse("/x --b=1 --c pos")
	b := Parse("/x --c --b=1 pos")

	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, a.PositionalArgs, b.PositionalArgs)
	assert.Equal(t, a.Flags, b.Flags)
}

func TestParseDuplicateFlagLastWins(t *testing.T) {
	cmd := Parse("/x --k=1 --k=2")
	value, ok := cmd.Flags.String("k")
	require.True(t, ok)
	assert.Equal(t, "2", value)

	cmd = Parse("/x --k=1 --k")
	assert.True(t, cmd.Flags["k"].IsBool)
}

func TestParseNameNormalisation(t *testing.T) {
	assert.Equal(t, "keys", Parse("/KEYS list").Name)
	assert.Equal(t, "keys", Parse("keys list").Name)

	// Only one leading slash is stripped.
	assert.Equal(t, "/keys", Parse("//keys").Name)
}

func TestParseEmptyInput(t *testing.T) {
	cmd := Parse("")
	assert.Equal(t, "", cmd.Name)
	assert.Empty(t, cmd.PositionalArgs)
	assert.Empty(t, cmd.Flags)

	cmd = Parse("\r\n")
	assert.Equal(t, "", cmd.Name)
}

func TestParseDoubleDashIsPositional(t *testing.T) {
	cmd := Parse("/x -- --flag")
	assert.Equal(t, []string{"--"}, cmd.PositionalArgs)
	assert.True(t, cmd.Flags.Has("flag"))
}

func TestParseFlagKeysPreservedVerbatim(t *testing.T) {
	cmd := Parse("/x --Mixed-Case_key=v")
	require.True(t, cmd.Flags.Has("Mixed-Case_key"))
	assert.False(t, cmd.Flags.Has("mixed-case_key"))
}

func TestParseMemoryStoreScenario(t *testing.T) {
	cmd := Parse(`/memory store "hello world" --tags=a,b`)

	assert.Equal(t, "memory", cmd.Name)
	assert.Equal(t, []string{"store", "hello world"}, cmd.PositionalArgs)
	tags, ok := cmd.Flags.String("tags")
	require.True(t, ok)
	assert.Equal(t, "a,b", tags)
}
