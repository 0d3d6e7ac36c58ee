package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fpokrzywa/weaver-live/cli/modules"
	"github.com/fpokrzywa/weaver-live/cli/modules/commands"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/config"

	"golang.org/x/term"
)

type globalFlags struct {
	configPath string
	verbose    bool
	version    bool
	help       bool
	rest       []string
}

// parseGlobalFlags pulls the global flags out of args, wherever they appear
func parseGlobalFlags(args []string) globalFlags {
	var g globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				i++
				g.configPath = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			g.configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose" || arg == "-v":
			g.verbose = true
		case arg == "--version" || arg == "-V":
			g.version = true
		case arg == "--help" || arg == "-h":
			g.help = true
		default:
			g.rest = append(g.rest, arg)
		}
	}
	return g
}

func main() {
	g := parseGlobalFlags(os.Args[1:])
	switch {
	case g.version:
		printVersion()
		return
	case g.help:
		commands.InitRegistry()
		printHelp()
		return
	}

	if g.configPath == "" {
		g.configPath = config.FindConfigFile()
	}
	if err := config.LoadGlobal(g.configPath); err != nil && g.verbose {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
	}

	commands.InitRegistry()
	os.Exit(run(g.rest))
}

func run(args []string) int {
	// No command: the TUI on a terminal, the shell otherwise
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			args = []string{"ui"}
		} else {
			args = []string{"shell"}
		}
	}

	name, rest := args[0], args[1:]
	switch name {
	case "version":
		printVersion()
		return 0
	case "help":
		if len(rest) > 0 {
			commands.PrintCommandHelp(rest[0])
		} else {
			printHelp()
		}
		return 0
	}

	cmd := commands.GetCommand(name)
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nRun 'weaver help' for usage.\n", name)
		return 1
	}

	err := cmd.Handler(rest)
	commands.CloseContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printVersion() {
	fmt.Printf("weaver %s (%s)\n", modules.AppVersion, modules.BuildHash())
}

func printHelp() {
	fmt.Printf(`weaver - %s

Usage:
  weaver [flags] [command] [arguments]

Global Flags:
  -c, --config <path>    Path to config file
  -v, --verbose          Verbose output
  -V, --version          Print version
  -h, --help             Print help

Commands:

`, modules.AppDescription)
	commands.PrintCommands()
	fmt.Println("Use 'weaver help <command>' for more information about a command.")
}
