package commands

import (
	"fmt"
	"strings"
)

// helpSelfReference terminates the aggregated help listing so /help always
// documents itself exactly once, as the final line.
const helpSelfReference = "/help                     Show this help message."

// HelpLine renders the one-line listing entry for a command: the slash
// name padded into a fixed column, then the description.
func HelpLine(cmd Command) string {
	return fmt.Sprintf("%-26s%s", "/"+cmd.Name(), cmd.Description())
}

// AggregateHelp renders the full /help listing: every registered command
// except help itself, alphabetically, terminated by the /help
// self-reference line.
func AggregateHelp(r *Registry) string {
	var b strings.Builder
	for _, cmd := range r.GetAll() {
		if cmd.Name() == "help" {
			continue
		}
		b.WriteString(HelpLine(cmd))
		b.WriteString("\n")
	}
	b.WriteString(helpSelfReference)
	return b.String()
}

// HelpBlock renders the detailed help for a single command from its
// structured help info.
func HelpBlock(cmd Command) string {
	info := cmd.HelpInfo()
	var b strings.Builder

	fmt.Fprintf(&b, "/%s - %s\n", info.Command, info.Description)
	fmt.Fprintf(&b, "Usage: %s\n", info.Usage)

	if len(info.Options) > 0 {
		b.WriteString("Options:\n")
		for _, opt := range info.Options {
			line := fmt.Sprintf("  --%-14s%s", opt.Name, opt.Description)
			if opt.Default != "" {
				line += fmt.Sprintf(" (default: %s)", opt.Default)
			}
			if opt.Required {
				line += " (required)"
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(info.Examples) > 0 {
		b.WriteString("Examples:\n")
		for _, ex := range info.Examples {
			fmt.Fprintf(&b, "  %-34s%s\n", ex.Command, ex.Description)
		}
	}

	for _, note := range info.Notes {
		fmt.Fprintf(&b, "Note: %s\n", note)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Help resolves the /help output: the named command's block when the name
// is registered, otherwise the aggregate listing.
func Help(r *Registry, name string) string {
	if name != "" {
		if cmd, ok := r.Get(strings.TrimPrefix(name, "/")); ok {
			return HelpBlock(cmd)
		}
	}
	return AggregateHelp(r)
}
