package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// out receives everything the commands print
var out io.Writer = os.Stdout

// SetOutput redirects command output
func SetOutput(w io.Writer) {
	out = w
}

// CommandHandler runs a command with the arguments after its name
type CommandHandler func(args []string) error

// SubCommand is dispatched by runSubCommand on the first argument
type SubCommand struct {
	Name        string
	Description string
	Handler     CommandHandler
}

// Command is a top-level weaver command.
// Order sorts commands in help output; categories appear in the order of
// their first command.
type Command struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Usage       string
	Examples    []string
	Handler     CommandHandler
	SubCommands []SubCommand
	Order       int
}

// Registry maps names and aliases to commands
type Registry struct {
	byName  map[string]*Command
	byAlias map[string]*Command
}

func newRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Command),
		byAlias: make(map[string]*Command),
	}
}

// Add registers cmd, replacing any command with the same name
func (r *Registry) Add(cmd *Command) {
	r.byName[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.byAlias[alias] = cmd
	}
}

// Lookup finds a command by name, then by alias
func (r *Registry) Lookup(name string) *Command {
	if cmd, ok := r.byName[name]; ok {
		return cmd
	}
	return r.byAlias[name]
}

// Sorted returns the commands by Order, then name
func (r *Registry) Sorted() []*Command {
	cmds := make([]*Command, 0, len(r.byName))
	for _, cmd := range r.byName {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].Order != cmds[j].Order {
			return cmds[i].Order < cmds[j].Order
		}
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// Names returns every name and alias, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName)+len(r.byAlias))
	for name := range r.byName {
		names = append(names, name)
	}
	for alias := range r.byAlias {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

var registry *Registry

// InitRegistry (re)builds the command registry
func InitRegistry() {
	registry = newRegistry()

	registerUICommands()
	registerAccountCommands()
	registerNavigationCommands()
	registerSetupCommands()
	registerDaemonCommands()
}

// RegisterCommand adds a command to the registry
func RegisterCommand(cmd *Command) {
	if registry == nil {
		registry = newRegistry()
	}
	registry.Add(cmd)
}

// GetCommand returns a command by name or alias
func GetCommand(name string) *Command {
	if registry == nil {
		return nil
	}
	return registry.Lookup(name)
}

// GetAllCommands returns the commands in help order
func GetAllCommands() []*Command {
	if registry == nil {
		return nil
	}
	return registry.Sorted()
}

// GetCommandNames returns names and aliases for completion
func GetCommandNames() []string {
	if registry == nil {
		return nil
	}
	return registry.Names()
}

// PrintCommands prints the commands grouped by category
func PrintCommands() {
	var categories []string
	grouped := make(map[string][]*Command)
	for _, cmd := range GetAllCommands() {
		if _, seen := grouped[cmd.Category]; !seen {
			categories = append(categories, cmd.Category)
		}
		grouped[cmd.Category] = append(grouped[cmd.Category], cmd)
	}

	for _, category := range categories {
		fmt.Fprintf(out, "  %s:\n", category)
		for _, cmd := range grouped[category] {
			line := cmd.Description
			if len(cmd.Aliases) > 0 {
				line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			fmt.Fprintf(out, "    %-20s %s\n", cmd.Name, line)
		}
		fmt.Fprintln(out)
	}
}

// PrintCommandHelp prints the usage of one command
func PrintCommandHelp(name string) {
	cmd := GetCommand(name)
	if cmd == nil {
		fmt.Fprintf(out, "Unknown command: %s\n", name)
		return
	}

	fmt.Fprintf(out, "%s - %s\n", cmd.Name, cmd.Description)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(out, "Aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	if cmd.Usage != "" {
		fmt.Fprintf(out, "\nUsage:\n  %s\n", cmd.Usage)
	}
	if len(cmd.SubCommands) > 0 {
		fmt.Fprintln(out, "\nSub-commands:")
		for _, sub := range cmd.SubCommands {
			fmt.Fprintf(out, "  %-15s %s\n", sub.Name, sub.Description)
		}
	}
	if len(cmd.Examples) > 0 {
		fmt.Fprintln(out, "\nExamples:")
		for _, example := range cmd.Examples {
			fmt.Fprintf(out, "  %s\n", example)
		}
	}
}

// runSubCommand dispatches args[0] to a sub-command of the named command
func runSubCommand(name string, args []string) error {
	cmd := GetCommand(name)
	if cmd == nil {
		return fmt.Errorf("unknown command: %s", name)
	}
	if len(args) == 0 {
		PrintCommandHelp(name)
		return nil
	}
	for i := range cmd.SubCommands {
		if cmd.SubCommands[i].Name == args[0] {
			return cmd.SubCommands[i].Handler(args[1:])
		}
	}
	return fmt.Errorf("unknown %s sub-command: %s\nRun 'weaver help %s' for usage", name, args[0], name)
}
