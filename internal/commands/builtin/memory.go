package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// MemoryCommand implements /memory: store, list, search, and remove
// persisted memories. The verb stays in positionalArgs so handlers and
// tests see the raw argument shape.
type MemoryCommand struct{}

// Name returns "memory".
func (c *MemoryCommand) Name() string {
	return "memory"
}

// Description returns a brief description of the memory command.
func (c *MemoryCommand) Description() string {
	return "Store and recall memories."
}

// Usage returns the memory command syntax.
func (c *MemoryCommand) Usage() string {
	return "/memory <store|list|search|remove> [args] [--tags=a,b]"
}

// HelpInfo returns structured help for the memory command.
func (c *MemoryCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []bittypes.HelpOption{
			{Name: "tags", Description: "Comma-separated tags for store"},
		},
		Examples: []bittypes.HelpExample{
			{Command: `/memory store "note text" --tags=a,b`, Description: "Store a tagged memory"},
			{Command: "/memory search note", Description: "Search stored memories"},
			{Command: "/memory remove <id>", Description: "Remove a memory by id or id prefix"},
		},
		Notes: []string{"Also available as /mem."},
	}
}

// Execute dispatches on the first positional argument.
func (c *MemoryCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	store, err := services.GetMemoryService()
	if err != nil {
		return nil, err
	}

	verb := ctx.Arg(0)
	switch verb {
	case "store":
		text := strings.Join(ctx.PositionalArgs[1:], " ")
		var tags []string
		if raw, ok := ctx.Flags.String("tags"); ok && raw != "" {
			tags = strings.Split(raw, ",")
		}
		record, err := store.Save(text, tags)
		if err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Stored memory %s.", shortID(record.ID)), nil)
		return bittypes.OKWith(map[string]any{"id": record.ID}), nil

	case "list", "":
		records, err := store.List()
		if err != nil {
			return nil, err
		}
		return c.renderRecords(ctx, records)

	case "search":
		records, err := store.Search(strings.Join(ctx.PositionalArgs[1:], " "))
		if err != nil {
			return nil, err
		}
		return c.renderRecords(ctx, records)

	case "remove":
		id := ctx.Arg(1)
		if id == "" {
			return nil, bittypes.InputErrorf("usage: /memory remove <id>")
		}
		if err := store.Remove(id); err != nil {
			return nil, err
		}
		ctx.Emit("Memory removed.", nil)
		return bittypes.OK(), nil

	default:
		return nil, bittypes.InputErrorf("unknown memory action: %s", verb)
	}
}

func (c *MemoryCommand) renderRecords(ctx *bittypes.CommandContext, records []bittypes.MemoryRecord) (*bittypes.CommandResult, error) {
	if ctx.JSONRequested() {
		ctx.Emit(records, nil)
		return bittypes.OKWith(map[string]any{"count": len(records)}), nil
	}
	if len(records) == 0 {
		ctx.Emit("No memories.", nil)
		return bittypes.OKWith(map[string]any{"count": 0}), nil
	}

	var b strings.Builder
	for _, record := range records {
		line := fmt.Sprintf("%s  %s", shortID(record.ID), record.Text)
		if len(record.Tags) > 0 {
			line += "  [" + strings.Join(record.Tags, ",") + "]"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
	return bittypes.OKWith(map[string]any{"count": len(records)}), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	commands.MustRegister(&MemoryCommand{})
	commands.MustRegisterAlias("mem", "memory")
}
