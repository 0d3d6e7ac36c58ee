package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/config"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/daemon"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"

	"golang.org/x/term"
)

// EnvToken lets scripts reuse a token instead of signing in
const EnvToken = "WEAVER_TOKEN"

// registerDaemonCommands registers the commands talking to weaverd
func registerDaemonCommands() {
	RegisterCommand(&Command{
		Name:        "daemon",
		Aliases:     []string{"remote"},
		Category:    "Daemon",
		Description: "Talk to a running weaverd",
		Usage:       "weaver daemon <subcommand> [--url <url>] [--email <email>] [--password <pw>]",
		SubCommands: []SubCommand{
			{Name: "ping", Description: "Check that the daemon answers", Handler: daemonPingCommand},
			{Name: "status", Description: "Show version, uptime, clients and host metrics", Handler: daemonStatusCommand},
			{Name: "watch", Description: "Stream navigation events until interrupted", Handler: daemonWatchCommand},
		},
		Examples: []string{
			"weaver daemon ping",
			"weaver daemon status --email admin@example.com",
			"WEAVER_TOKEN=... weaver daemon watch",
		},
		Handler: func(args []string) error { return runSubCommand("daemon", args) },
		Order:   50,
	})
}

// daemonClient builds a client for --url or the configured server
func daemonClient(flags map[string]string) *daemon.Client {
	url := flags["url"]
	if url == "" {
		if s := config.GetGlobal().Settings.Server; s != nil {
			url = s.URL
		}
	}
	if url == "" {
		url = config.DefaultSettings().Server.URL
	}
	return daemon.NewClient(url)
}

// signIn authenticates with WEAVER_TOKEN, or --email and --password (prompted on a TTY)
func signIn(ctx context.Context, client *daemon.Client, flags map[string]string) error {
	if token := os.Getenv(EnvToken); token != "" && flags["email"] == "" {
		client.SetToken(token)
		return nil
	}

	email := flags["email"]
	if email == "" {
		return errors.New("--email is required (or set " + EnvToken + ")")
	}
	password := flags["password"]
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--password is required when stdin is not a terminal")
		}
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return err
		}
		password = string(pw)
	}

	session, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", session.User.Email, session.User.RoleName)
	return nil
}

func daemonPingCommand(args []string) error {
	flags, _ := parseFlags(args)
	client := daemonClient(flags)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "weaverd is up (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func daemonStatusCommand(args []string) error {
	flags, _ := parseFlags(args)
	client := daemonClient(flags)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := signIn(ctx, client, flags); err != nil {
		return err
	}
	st, err := client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "version:  %s\n", st.Version)
	fmt.Fprintf(out, "uptime:   %s\n", st.Uptime)
	fmt.Fprintf(out, "clients:  %d websocket, %d pages\n", st.Clients, st.Pages)
	if st.Metrics != nil {
		fmt.Fprintf(out, "host:     %s\n", st.Metrics.Summary())
	}
	return nil
}

func daemonWatchCommand(args []string) error {
	flags, _ := parseFlags(args)
	client := daemonClient(flags)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := signIn(ctx, client, flags); err != nil {
		return err
	}

	lost := make(chan struct{})
	client.SetStateHandler(func(v widgets.PageView) {
		fmt.Fprintf(out, "state    section=%s sidebar=%t main=%t\n", v.Sidebar.Active, v.Sidebar.Visible, v.MainContent.Visible)
	})
	client.SetEventHandler(func(e *eventbus.Event) {
		fmt.Fprintf(out, "%s %-20s %s\n", e.Timestamp.Local().Format("15:04:05"), e.Type, formatEventData(e))
	})
	client.SetErrorHandler(func(msg string) {
		fmt.Fprintf(out, "error    %s\n", msg)
	})
	client.SetDisconnectHandler(func() { close(lost) })

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	fmt.Fprintln(out, "Watching navigation events, Ctrl+C to stop")

	// Lines typed on stdin are sent as "select <section>" style intents
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			in, err := parseIntent(strings.Fields(scanner.Text()))
			if err != nil {
				fmt.Fprintf(out, "error    %v\n", err)
				continue
			}
			if err := client.SendIntent(in); err != nil {
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-lost:
		return errors.New("connection to daemon lost")
	}
	return nil
}

func formatEventData(e *eventbus.Event) string {
	if len(e.Data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Data[k]))
	}
	return strings.Join(parts, " ")
}
