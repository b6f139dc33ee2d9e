package console

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bitcore/internal/parser"
)

func TestExitsChatMode(t *testing.T) {
	cases := []struct {
		line  string
		exits bool
	}{
		{"/status", true},
		{"/exit", true},
		{"/chat hello", false},
		{"/chat", false},
		{"/Chat hi", false},
		{"//chat hi", false},
		// An unknown command whose name merely starts with "chat" still
		// ends chat mode.
		{"/chatlog", true},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.exits, exitsChatMode(parser.Parse(tc.line)), "line %q", tc.line)
	}
}
