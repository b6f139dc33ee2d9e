// Package commands provides command registration, lookup, and the help
// registry for bitcore. Command modules register themselves with the
// global registry during initialization; the registry is immutable once
// startup completes.
package commands

import (
	"fmt"
	"sort"
	"sync"

	"bitcore/pkg/bittypes"
)

// Command is the interface every command module implements. Handlers are
// thin policy layers: they receive the uniform execution context and
// return the canonical result envelope, raising typed errors upward.
type Command interface {
	Name() string
	Description() string
	Usage() string
	HelpInfo() bittypes.HelpInfo
	Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error)
}

// ActionCommand is implemented by commands whose first positional argument
// is a declared subcommand. The context builder consumes it into
// ctx.Action; DefaultAction applies when no subcommand is given.
type ActionCommand interface {
	Command
	DefaultAction() string
}

// Registry maps command names (and aliases) to handlers. Registration is
// thread-safe; name collisions are a programming error surfaced at
// startup.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command under its canonical name.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}
	if _, exists := r.aliases[name]; exists {
		return fmt.Errorf("command %s collides with a registered alias", name)
	}

	r.commands[name] = cmd
	return nil
}

// RegisterAlias maps an additional name onto an already-registered
// command. Aliases resolve through Get but are excluded from Names.
func (r *Registry) RegisterAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[alias]; exists {
		return fmt.Errorf("alias %s collides with a registered command", alias)
	}
	if _, exists := r.aliases[alias]; exists {
		return fmt.Errorf("alias %s already registered", alias)
	}
	if _, exists := r.commands[target]; !exists {
		return fmt.Errorf("alias %s targets unregistered command %s", alias, target)
	}

	r.aliases[alias] = target
	return nil
}

// Get resolves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, exists := r.commands[name]
	return cmd, exists
}

// Names returns the canonical command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns all registered commands in name order.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Command, 0, len(names))
	for _, name := range names {
		out = append(out, r.commands[name])
	}
	return out
}

// GlobalRegistry is the registry command modules register against in their
// init functions.
var GlobalRegistry = NewRegistry()

// GetGlobalRegistry returns the global command registry.
func GetGlobalRegistry() *Registry {
	return GlobalRegistry
}

// MustRegister registers a command against the global registry, aborting
// startup on collision.
func MustRegister(cmd Command) {
	if err := GlobalRegistry.Register(cmd); err != nil {
		panic(fmt.Sprintf("failed to register %s command: %v", cmd.Name(), err))
	}
}

// MustRegisterAlias registers an alias against the global registry,
// aborting startup on collision.
func MustRegisterAlias(alias, target string) {
	if err := GlobalRegistry.RegisterAlias(alias, target); err != nil {
		panic(fmt.Sprintf("failed to register alias %s: %v", alias, err))
	}
}
