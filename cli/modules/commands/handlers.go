package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/tui"

	"golang.org/x/term"
)

// registerUICommands registers UI-related commands
func registerUICommands() {
	RegisterCommand(&Command{
		Name:        "ui",
		Category:    "Interface",
		Description: "Launch the TUI interface",
		Usage:       "weaver ui",
		Examples: []string{
			"weaver ui",
		},
		Handler: uiCommand,
		Order:   10,
	})

	RegisterCommand(&Command{
		Name:        "shell",
		Aliases:     []string{"sh"},
		Category:    "Interface",
		Description: "Start the interactive navigation shell",
		Usage:       "weaver shell",
		Examples: []string{
			"weaver shell",
			"echo 'select time-off' | weaver sh",
		},
		Handler: shellCommand,
		Order:   11,
	})
}

// registerAccountCommands registers user and role management commands
func registerAccountCommands() {
	RegisterCommand(&Command{
		Name:        "users",
		Aliases:     []string{"user"},
		Category:    "Accounts",
		Description: "Manage user accounts",
		Usage:       "weaver users <subcommand> [arguments]",
		SubCommands: []SubCommand{
			{Name: "list", Description: "List users [--search <text>] [--role <name>]", Handler: usersListCommand},
			{Name: "add", Description: "Create a user <email> --password <pw> [--first <name>] [--last <name>] [--role <name>]", Handler: usersAddCommand},
			{Name: "delete", Description: "Delete a user <email|id>", Handler: usersDeleteCommand},
			{Name: "enable", Description: "Activate a user <email|id>", Handler: usersEnableCommand},
			{Name: "disable", Description: "Deactivate a user <email|id>", Handler: usersDisableCommand},
		},
		Examples: []string{
			"weaver users list",
			"weaver users add jane@example.com --password s3cret --first Jane --role Manager",
			"weaver users disable jane@example.com",
		},
		Handler: usersCommand,
		Order:   20,
	})

	RegisterCommand(&Command{
		Name:        "roles",
		Aliases:     []string{"role"},
		Category:    "Accounts",
		Description: "Manage roles",
		Usage:       "weaver roles <subcommand> [arguments]",
		SubCommands: []SubCommand{
			{Name: "list", Description: "List roles with their permissions", Handler: rolesListCommand},
			{Name: "add", Description: "Create a role <name> --permissions <a,b> [--description <text>]", Handler: rolesAddCommand},
			{Name: "delete", Description: "Delete a role <name|id>", Handler: rolesDeleteCommand},
		},
		Examples: []string{
			"weaver roles list",
			"weaver roles add Auditor --permissions reporting,analytics",
			"weaver roles delete Auditor",
		},
		Handler: rolesCommand,
		Order:   21,
	})
}

// registerNavigationCommands registers commands describing the navigation registry
func registerNavigationCommands() {
	RegisterCommand(&Command{
		Name:        "sections",
		Aliases:     []string{"nav"},
		Category:    "Navigation",
		Description: "List sidebar groups and sections",
		Usage:       "weaver sections [--admin]",
		Examples: []string{
			"weaver sections",
			"weaver sections --admin",
		},
		Handler: sectionsCommand,
		Order:   30,
	})

	RegisterCommand(&Command{
		Name:        "models",
		Category:    "Navigation",
		Description: "List the assistant models",
		Usage:       "weaver models",
		Handler:     modelsCommand,
		Order:       31,
	})
}

// ============================================
// Interface commands
// ============================================

func uiCommand(args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the TUI needs a terminal, use 'weaver shell' instead")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := InitContext(ctx); err != nil {
		return err
	}
	defer CloseContext()

	appCtx := GetContext()
	presenter := CreatePresenter(appCtx)
	if err := presenter.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize presenter: %w", err)
	}
	defer presenter.Shutdown()

	opts := []tui.Option{tui.WithMetrics(system.NewMetricsCollector(2 * time.Second))}
	if ui := appCtx.Config.Settings.UI; ui != nil {
		opts = append(opts, tui.WithTheme(ui.Theme), tui.WithTimestamps(ui.ShowTimestamps))
	}
	app, err := tui.New(presenter, opts...)
	if err != nil {
		return err
	}

	appCtx.Logger.Info("Starting TUI")
	err = app.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func shellCommand(args []string) error {
	if err := InitContext(context.Background()); err != nil {
		return err
	}
	defer CloseContext()
	return StartShell(GetContext())
}

// ============================================
// Account commands
// ============================================

func usersCommand(args []string) error {
	if len(args) == 0 {
		return usersListCommand(nil)
	}
	return runSubCommand("users", args)
}

func usersListCommand(args []string) error {
	svc, err := accountService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	filter := accounts.UserFilter{}
	flags, _ := parseFlags(args)
	filter.Query = flags["search"]
	if name := flags["role"]; name != "" {
		role, err := findRole(ctx, svc, name)
		if err != nil {
			return err
		}
		filter.RoleID = role.ID
	}

	users, err := svc.ListUsers(ctx, filter)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tLAST LOGIN")
	for _, u := range users {
		status := "active"
		if !u.IsActive {
			status = "inactive"
		}
		last := "never"
		if u.LastLogin != nil {
			last = u.LastLogin.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName(), u.RoleName, status, last)
	}
	return w.Flush()
}

func usersAddCommand(args []string) error {
	flags, positional := parseFlags(args)
	if len(positional) == 0 {
		return errors.New("usage: weaver users add <email> --password <pw> [--first <name>] [--last <name>] [--role <name>]")
	}

	svc, err := accountService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	roleName := flags["role"]
	if roleName == "" {
		roleName = "User"
	}
	role, err := findRole(ctx, svc, roleName)
	if err != nil {
		return err
	}

	user, err := svc.CreateUser(ctx, accounts.NewUser{
		Email:     positional[0],
		Password:  flags["password"],
		FirstName: flags["first"],
		LastName:  flags["last"],
		RoleID:    role.ID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created user %s (id %d, role %s)\n", user.Email, user.ID, user.RoleName)
	return nil
}

func usersDeleteCommand(args []string) error {
	return withUser(args, "delete", func(ctx context.Context, svc *accounts.Service, u *accounts.User) error {
		if err := svc.DeleteUser(ctx, u.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted user %s\n", u.Email)
		return nil
	})
}

func usersEnableCommand(args []string) error {
	return setUserActive(args, true)
}

func usersDisableCommand(args []string) error {
	return setUserActive(args, false)
}

func setUserActive(args []string, active bool) error {
	verb := "disable"
	if active {
		verb = "enable"
	}
	return withUser(args, verb, func(ctx context.Context, svc *accounts.Service, u *accounts.User) error {
		updated, err := svc.SetUserActive(ctx, u.ID, active)
		if err != nil {
			return err
		}
		state := "inactive"
		if updated.IsActive {
			state = "active"
		}
		fmt.Fprintf(out, "User %s is now %s\n", updated.Email, state)
		return nil
	})
}

func withUser(args []string, verb string, fn func(context.Context, *accounts.Service, *accounts.User) error) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: weaver users %s <email|id>", verb)
	}
	svc, err := accountService()
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := findUser(ctx, svc, args[0])
	if err != nil {
		return err
	}
	return fn(ctx, svc, user)
}

func rolesCommand(args []string) error {
	if len(args) == 0 {
		return rolesListCommand(nil)
	}
	return runSubCommand("roles", args)
}

func rolesListCommand(_ []string) error {
	svc, err := accountService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	roles, err := svc.ListRoles(ctx)
	if err != nil {
		return err
	}
	users, err := svc.ListUsers(ctx, accounts.UserFilter{})
	if err != nil {
		return err
	}
	counts := make(map[int64]int)
	for _, u := range users {
		counts[u.RoleID]++
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUSERS\tPERMISSIONS\tDESCRIPTION")
	for _, r := range roles {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.Name, counts[r.ID], strings.Join(r.Permissions, ","), r.Description)
	}
	return w.Flush()
}

func rolesAddCommand(args []string) error {
	flags, positional := parseFlags(args)
	if len(positional) == 0 {
		return errors.New("usage: weaver roles add <name> --permissions <a,b> [--description <text>]")
	}

	svc, err := accountService()
	if err != nil {
		return err
	}

	var perms []string
	for _, p := range strings.Split(flags["permissions"], ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	role, err := svc.CreateRole(context.Background(), accounts.NewRole{
		Name:        positional[0],
		Description: flags["description"],
		Permissions: perms,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created role %s (id %d)\n", role.Name, role.ID)
	return nil
}

func rolesDeleteCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: weaver roles delete <name|id>")
	}
	svc, err := accountService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	role, err := findRole(ctx, svc, args[0])
	if err != nil {
		return err
	}
	if err := svc.DeleteRole(ctx, role.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted role %s\n", role.Name)
	return nil
}

// ============================================
// Navigation commands
// ============================================

func sectionsCommand(args []string) error {
	isAdmin := false
	for _, a := range args {
		if a == "--admin" {
			isAdmin = true
		}
	}

	for _, g := range sections.NavGroups(isAdmin) {
		state := "collapsed"
		if g.Expanded {
			state = "expanded"
		}
		fmt.Fprintf(out, "%s (%s)\n", g.Title, state)
		for _, s := range g.Sections {
			fmt.Fprintf(out, "  %-20s %s\n", s.ID, s.Label)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func modelsCommand(_ []string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range sections.Models() {
		marker := " "
		if m.Name == sections.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\n", marker, m.Name, m.Description)
	}
	return w.Flush()
}

// ============================================
// Helpers
// ============================================

func accountService() (*accounts.Service, error) {
	if err := InitContext(context.Background()); err != nil {
		return nil, err
	}
	return GetContext().Accounts, nil
}

// findUser resolves an id or an email address
func findUser(ctx context.Context, svc *accounts.Service, ref string) (*accounts.User, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return svc.GetUser(ctx, id)
	}
	users, err := svc.ListUsers(ctx, accounts.UserFilter{Query: ref})
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, ref) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user not found: %s", ref)
}

// findRole resolves an id or a case-insensitive role name
func findRole(ctx context.Context, svc *accounts.Service, ref string) (*accounts.Role, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return svc.GetRole(ctx, id)
	}
	roles, err := svc.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if strings.EqualFold(roles[i].Name, ref) {
			return &roles[i], nil
		}
	}
	return nil, fmt.Errorf("role not found: %s", ref)
}

// parseFlags splits "--name value" and "--name=value" pairs from positional arguments
func parseFlags(args []string) (map[string]string, []string) {
	flags := make(map[string]string)
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			flags[k] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			flags[name] = args[i+1]
			i++
		} else {
			flags[name] = "true"
		}
	}
	return flags, positional
}
