package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

const (
	historyFile     = ".weaver_history"
	maxHistoryLines = 1000
)

// Shell is the interactive navigation shell. It drives a widget page and
// falls back to the command registry for anything else.
type Shell struct {
	rl      *readline.Instance
	isTTY   bool
	running bool
	in      io.Reader
	app     *AppContext
	page    *widgets.Page
}

// NewShell creates a shell reading from in. A nil app disables sign-in.
func NewShell(app *AppContext, in io.Reader) *Shell {
	bus := eventbus.NewBus()
	if app != nil && app.Bus != nil {
		bus = app.Bus
	}
	return &Shell{
		in:   in,
		app:  app,
		page: widgets.NewPage(bus),
	}
}

// StartShell starts the interactive shell on stdin
func StartShell(app *AppContext) error {
	shell := NewShell(app, os.Stdin)
	shell.isTTY = term.IsTerminal(int(os.Stdin.Fd()))
	defer shell.page.Close()
	return shell.Run()
}

// Run starts the shell main loop
func (s *Shell) Run() error {
	s.running = true

	if s.isTTY {
		return s.runInteractive()
	}
	return s.runNonInteractive()
}

// runInteractive runs the shell with readline support
func (s *Shell) runInteractive() error {
	config := &readline.Config{
		Prompt:          s.getPrompt(),
		HistoryFile:     s.getHistoryPath(),
		HistoryLimit:    maxHistoryLines,
		AutoComplete:    s.buildCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	s.rl = rl
	s.printWelcome()

	for s.running {
		rl.SetPrompt(s.getPrompt())

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					fmt.Fprintln(out, "Use 'exit' or 'quit' to leave the shell.")
				}
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out)
				break
			}
			return err
		}

		s.execLine(line)
	}

	return nil
}

// runNonInteractive runs the shell without readline (for pipes/non-TTY)
func (s *Shell) runNonInteractive() error {
	scanner := bufio.NewScanner(s.in)

	for s.running && scanner.Scan() {
		s.execLine(scanner.Text())
	}

	return scanner.Err()
}

func (s *Shell) execLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if s.handleSpecialCommand(line) {
		return
	}
	if s.handleNavigationCommand(line) {
		return
	}
	s.executeCommand(line)
}

// getPrompt returns the current prompt, showing the active section
func (s *Shell) getPrompt() string {
	snap := s.page.Sidebar.View()
	who := "guest"
	if snap.Greeting != "Welcome" {
		who = strings.TrimPrefix(snap.Greeting, "Welcome, ")
	}

	if s.isTTY {
		return fmt.Sprintf("\033[90m[%s]\033[0m \033[36m%s\033[0m:\033[33m%s\033[0m \033[32mweaver>\033[0m ",
			time.Now().Format("15:04:05"), who, snap.Active)
	}
	return fmt.Sprintf("%s:%s weaver> ", who, snap.Active)
}

// printWelcome prints the welcome message
func (s *Shell) printWelcome() {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "\033[36m  ╔═══════════════════════════════════════════╗\033[0m")
	fmt.Fprintln(out, "\033[36m  ║\033[0m     \033[1m\033[33mAgentic Weaver\033[0m - Navigation Shell     \033[36m║\033[0m")
	fmt.Fprintln(out, "\033[36m  ╚═══════════════════════════════════════════╝\033[0m")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Type 'help' for available commands, 'exit' to quit.")
	fmt.Fprintln(out)
}

// handleSpecialCommand handles shell-specific commands
func (s *Shell) handleSpecialCommand(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case "exit", "quit", "q":
		fmt.Fprintln(out, "Goodbye!")
		s.running = false
		return true

	case "clear", "cls":
		fmt.Fprint(out, "\033[2J\033[H")
		return true

	case "help":
		if len(parts) > 1 {
			PrintCommandHelp(parts[1])
		} else {
			s.printNavigationHelp()
			PrintCommands()
		}
		return true
	}

	return false
}

// handleNavigationCommand drives the widget page
func (s *Shell) handleNavigationCommand(line string) bool {
	parts := parseCommandLine(line)
	if len(parts) == 0 {
		return true
	}
	args := parts[1:]

	in, err := parseIntent(parts)
	if !errors.Is(err, errNotIntent) {
		if err == nil {
			err = s.dispatch(in)
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		return true
	}

	err = nil
	switch strings.ToLower(parts[0]) {
	case "group":
		if len(args) == 0 {
			err = fmt.Errorf("usage: group <category>")
			break
		}
		s.page.Sidebar.ToggleGroup(sections.Category(args[0]))
		s.printState()
	case "signin", "login":
		err = s.signIn(args)
	case "signout", "logout":
		s.page.SignOut()
		fmt.Fprintln(out, "Signed out.")
	case "state":
		if len(args) > 0 && args[0] == "--json" {
			err = s.printJSON()
		} else {
			s.printState()
		}
	case "history":
		s.showHistory(args)
	case "prompts":
		s.page.RightPanel.TogglePrompts()
		s.printRightPanel()
	case "model":
		name := sections.NextModel(s.page.RightPanel.View().Model)
		if len(args) > 0 {
			name = strings.Join(args, " ")
		}
		if err = s.page.RightPanel.SelectModel(name); err == nil {
			fmt.Fprintf(out, "Model: %s\n", s.page.RightPanel.View().Model)
		}
	case "ask":
		s.page.RightPanel.SetQuery(strings.Join(args, " "))
		s.printRightPanel()
	default:
		return false
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	return true
}

var errNotIntent = errors.New("not a navigation intent")

// parseIntent turns "select <section>", "toggle", "collapse", "expand" or
// "article <id>" into an intent. Sections may be given by id or label.
func parseIntent(parts []string) (navigation.Intent, error) {
	if len(parts) == 0 {
		return navigation.Intent{}, errNotIntent
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "select":
		if len(args) == 0 {
			return navigation.Intent{}, fmt.Errorf("usage: select <section-id>")
		}
		return navigation.Intent{Kind: navigation.IntentSelect, Section: sections.Parse(strings.Join(args, " "))}, nil
	case "toggle":
		return navigation.Intent{Kind: navigation.IntentToggleMainContent}, nil
	case "collapse":
		return navigation.Intent{Kind: navigation.IntentCollapseAll}, nil
	case "expand":
		return navigation.Intent{Kind: navigation.IntentExpandAll}, nil
	case "article":
		if len(args) == 0 {
			return navigation.Intent{}, fmt.Errorf("usage: article <article-id>")
		}
		return navigation.Intent{Kind: navigation.IntentToggleArticle, Article: args[0]}, nil
	}
	return navigation.Intent{}, errNotIntent
}

func (s *Shell) dispatch(in navigation.Intent) error {
	if err := s.page.Dispatch(in, "shell"); err != nil {
		return err
	}
	s.printState()
	return nil
}

func (s *Shell) signIn(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: signin <email> <password>")
	}
	if s.app == nil || s.app.Auth == nil {
		return fmt.Errorf("sign-in is not available")
	}
	session, err := s.app.Auth.Login(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	s.page.SignIn(session.Identity.Email, session.Identity.IsAdmin)
	role := session.Identity.Role
	if session.Identity.IsAdmin {
		role += ", admin"
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", session.Identity.Email, role)
	return nil
}

// printState prints one line per widget
func (s *Shell) printState() {
	view := s.page.View()

	sidebar := "hidden"
	if view.Sidebar.Visible {
		sidebar = "visible"
	}
	fmt.Fprintf(out, "section:  %s (%s)\n", view.Sidebar.Active, view.MainContent.Display.Title)
	fmt.Fprintf(out, "sidebar:  %s\n", sidebar)

	switch {
	case view.MainContent.AdminVisible:
		fmt.Fprintln(out, "main:     admin console")
	case view.MainContent.Visible:
		fmt.Fprintf(out, "main:     %s\n", view.MainContent.Content)
		for _, a := range view.MainContent.Articles {
			marker := "+"
			if a.Expanded {
				marker = "-"
			}
			fmt.Fprintf(out, "  %s %-20s %s\n", marker, a.ID, a.Title)
		}
	default:
		fmt.Fprintln(out, "main:     hidden")
	}

	rp := view.RightPanel
	switch {
	case !rp.Visible:
		fmt.Fprintln(out, "right:    hidden")
	case rp.FullScreen:
		fmt.Fprintln(out, "right:    full screen")
	case rp.Expanded:
		fmt.Fprintln(out, "right:    expanded")
	default:
		fmt.Fprintln(out, "right:    normal")
	}
}

func (s *Shell) printRightPanel() {
	rp := s.page.RightPanel.View()
	fmt.Fprintf(out, "Model: %s\n", rp.Model)
	for i, p := range rp.Prompts {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p)
	}
	if rp.Query != "" {
		fmt.Fprintf(out, "Query: %s\n", rp.Query)
	}
}

func (s *Shell) printJSON() error {
	data, err := json.MarshalIndent(s.page.View(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// showHistory prints the most recent navigation events
func (s *Shell) showHistory(args []string) {
	limit := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	events := s.page.Bus().GetHistoryByType(eventbus.NavigationEvents, limit)
	if len(events) == 0 {
		fmt.Fprintln(out, "No navigation history.")
		return
	}
	for _, e := range events {
		detail := e.String("section")
		if detail == "" {
			detail = e.String("article")
		}
		if detail == "" {
			detail = e.String("email")
		}
		fmt.Fprintf(out, "%s  %-20s %-12s %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.Source, detail)
	}
}

func (s *Shell) printNavigationHelp() {
	fmt.Fprintln(out, "  Navigation:")
	for _, row := range [][2]string{
		{"select <id>", "Select a section"},
		{"toggle", "Show or hide the main content"},
		{"collapse", "Collapse everything but the assistant"},
		{"expand", "Restore every panel"},
		{"article <id>", "Open or close a knowledge article"},
		{"group <category>", "Open or close a sidebar group"},
		{"signin <email> <pw>", "Sign in"},
		{"signout", "Sign out"},
		{"state [--json]", "Show the panel layout"},
		{"history [n]", "Show recent navigation events"},
		{"prompts", "Show or hide the sample prompts"},
		{"model [name]", "Select a model, or cycle to the next one"},
		{"ask <text>", "Type into the assistant input"},
	} {
		fmt.Fprintf(out, "    %-20s %s\n", row[0], row[1])
	}
	fmt.Fprintln(out)
}

// executeCommand executes a registry command
func (s *Shell) executeCommand(line string) {
	parts := parseCommandLine(line)
	if len(parts) == 0 {
		return
	}

	cmdName := parts[0]
	cmd := GetCommand(cmdName)
	if cmd == nil || cmd.Name == "ui" || cmd.Name == "shell" {
		fmt.Fprintf(out, "Unknown command: %s\n", cmdName)
		fmt.Fprintln(out, "Type 'help' for available commands.")
		return
	}

	if err := cmd.Handler(parts[1:]); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

// getHistoryPath returns the path to the history file
func (s *Shell) getHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(homeDir, historyFile)
}

// buildCompleter builds the readline completer
func (s *Shell) buildCompleter() *readline.PrefixCompleter {
	sectionIDs := func(string) []string {
		var ids []string
		for _, sec := range sections.All() {
			ids = append(ids, string(sec.ID))
		}
		return ids
	}
	articleIDs := func(string) []string {
		var ids []string
		for _, a := range sections.Articles() {
			ids = append(ids, a.ID)
		}
		return ids
	}
	modelNames := func(string) []string {
		var names []string
		for _, m := range sections.Models() {
			names = append(names, m.Name)
		}
		return names
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help",
			readline.PcItemDynamic(func(line string) []string {
				return GetCommandNames()
			}),
		),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("clear"),
		readline.PcItem("history"),
		readline.PcItem("select", readline.PcItemDynamic(sectionIDs)),
		readline.PcItem("article", readline.PcItemDynamic(articleIDs)),
		readline.PcItem("model", readline.PcItemDynamic(modelNames)),
		readline.PcItem("group",
			readline.PcItem(string(sections.CategoryFindAnswers)),
			readline.PcItem(string(sections.CategoryAutomateTasks)),
			readline.PcItem(string(sections.CategoryAdmin)),
		),
		readline.PcItem("toggle"),
		readline.PcItem("collapse"),
		readline.PcItem("expand"),
		readline.PcItem("signin"),
		readline.PcItem("signout"),
		readline.PcItem("state", readline.PcItem("--json")),
		readline.PcItem("prompts"),
		readline.PcItem("ask"),
	}

	for _, cmd := range GetAllCommands() {
		if cmd.Name == "ui" || cmd.Name == "shell" {
			continue
		}
		item := readline.PcItem(cmd.Name)
		if len(cmd.SubCommands) > 0 {
			subItems := make([]readline.PrefixCompleterInterface, 0, len(cmd.SubCommands))
			for _, sub := range cmd.SubCommands {
				subItems = append(subItems, readline.PcItem(sub.Name))
			}
			item = readline.PcItem(cmd.Name, subItems...)
		}
		items = append(items, item)
	}

	return readline.NewPrefixCompleter(items...)
}

// parseCommandLine parses a command line into parts
func parseCommandLine(line string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuote {
				if ch == quoteChar {
					inQuote = false
				} else {
					current.WriteRune(ch)
				}
			} else {
				inQuote = true
				quoteChar = ch
			}
		case ch == ' ' || ch == '\t':
			if inQuote {
				current.WriteRune(ch)
			} else if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// filterInput filters special input characters
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
