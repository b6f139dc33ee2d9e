package parser

import (
	"strings"

	"bitcore/pkg/bittypes"
)

// ParseTokens turns a token stream into a ParsedCommand. The first token
// is the command name (one leading slash stripped, lowercased); remaining
// tokens starting with -- become flags, everything else is positional.
// Duplicate flags keep the last occurrence. An empty token list yields an
// empty command name, which the dispatcher treats as a silent no-op.
func ParseTokens(tokens []string) *bittypes.ParsedCommand {
	cmd := &bittypes.ParsedCommand{Flags: make(bittypes.Flags)}
	if len(tokens) == 0 {
		return cmd
	}

	name := tokens[0]
	name = strings.TrimPrefix(name, "/")
	cmd.Name = strings.ToLower(name)

	for _, tok := range tokens[1:] {
		if !strings.HasPrefix(tok, "--") || tok == "--" {
			cmd.PositionalArgs = append(cmd.PositionalArgs, tok)
			continue
		}
		body := tok[2:]
		if key, value, found := strings.Cut(body, "="); found {
			cmd.Flags[key] = bittypes.StringFlag(value)
		} else {
			cmd.Flags[body] = bittypes.BoolFlag()
		}
	}

	return cmd
}

// Parse tokenises a raw line and parses the result in one step.
func Parse(line string) *bittypes.ParsedCommand {
	line = strings.TrimRight(line, "\r\n")
	tokens, warnings := Tokenize(line)
	cmd := ParseTokens(tokens)
	cmd.Warnings = warnings
	return cmd
}
