package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupCommands(t *testing.T) *bytes.Buffer {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Settings.Database.URL = filepath.Join(dir, "weaver.db")
	cfg.Settings.Logger.FilePath = filepath.Join(dir, "weaver.log")
	cfg.Settings.Auth.Admin = &config.AdminConfig{Email: "admin@example.com", Password: "admin-pw"}
	config.SetGlobal(cfg, filepath.Join(dir, "weaver.yaml"))

	InitRegistry()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		CloseContext()
		SetOutput(os.Stdout)
	})

	require.NoError(t, InitContext(context.Background()))
	GetContext().Accounts.SetPasswordCost(bcrypt.MinCost)
	return buf
}

func run(t *testing.T, buf *bytes.Buffer, line string) string {
	t.Helper()
	buf.Reset()
	parts := parseCommandLine(line)
	cmd := GetCommand(parts[0])
	require.NotNil(t, cmd, "command %s", parts[0])
	require.NoError(t, cmd.Handler(parts[1:]))
	return buf.String()
}

func TestUsersCommands(t *testing.T) {
	buf := setupCommands(t)

	output := run(t, buf, "users add Jane@Example.com --password pw --first Jane --last Doe --role manager")
	require.Contains(t, output, "Created user jane@example.com")
	require.Contains(t, output, "role Manager")

	output = run(t, buf, "users list")
	require.Contains(t, output, "jane@example.com")
	require.Contains(t, output, "Jane Doe")
	require.Contains(t, output, "admin@example.com")

	output = run(t, buf, "users list --search jane")
	require.Contains(t, output, "jane@example.com")
	require.NotContains(t, output, "admin@example.com")

	output = run(t, buf, "users disable jane@example.com")
	require.Contains(t, output, "is now inactive")
	output = run(t, buf, "users list --role Manager")
	require.Contains(t, output, "inactive")

	output = run(t, buf, "users enable jane@example.com")
	require.Contains(t, output, "is now active")

	output = run(t, buf, "users delete jane@example.com")
	require.Contains(t, output, "Deleted user jane@example.com")

	require.Error(t, usersDeleteCommand([]string{"jane@example.com"}))
	require.Error(t, usersAddCommand([]string{"nobody@example.com", "--password", "pw", "--role", "Ghost"}))
	require.ErrorIs(t, usersAddCommand([]string{"nopw@example.com"}), accounts.ErrUserFieldsRequired)
}

func TestRolesCommands(t *testing.T) {
	buf := setupCommands(t)

	output := run(t, buf, "roles add Auditor --permissions reporting,analytics --description 'Reads reports'")
	require.Contains(t, output, "Created role Auditor")

	output = run(t, buf, "roles list")
	require.Contains(t, output, "Auditor")
	require.Contains(t, output, "reporting,analytics")
	require.Contains(t, output, "Reads reports")

	output = run(t, buf, "roles delete auditor")
	require.Contains(t, output, "Deleted role Auditor")

	require.Error(t, rolesAddCommand([]string{"Broken", "--permissions", "fly"}))
	require.ErrorIs(t, rolesDeleteCommand([]string{"Admin"}), accounts.ErrRoleInUse)
}

func TestSectionsCommand(t *testing.T) {
	InitRegistry()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	require.NoError(t, sectionsCommand(nil))
	require.Contains(t, buf.String(), "Find answers (collapsed)")
	require.Contains(t, buf.String(), "Automate tasks (expanded)")
	require.Contains(t, buf.String(), "time-off")
	require.NotContains(t, buf.String(), "Administration")

	buf.Reset()
	require.NoError(t, sectionsCommand([]string{"--admin"}))
	require.Contains(t, buf.String(), "Administration (expanded)")

	buf.Reset()
	require.NoError(t, modelsCommand(nil))
	require.Contains(t, buf.String(), "* GPT-4o")
}

func TestShellScript(t *testing.T) {
	buf := setupCommands(t)

	script := strings.Join([]string{
		"# comments are skipped",
		"select time-off",
		"collapse",
		"select admin",
		"signin admin@example.com wrong",
		"signin admin@example.com admin-pw",
		"history 3",
		"model o3",
		"model",
		"users list",
		"bogus",
		"exit",
		"select expense-reports",
	}, "\n")

	shell := NewShell(GetContext(), strings.NewReader(script))
	defer shell.page.Close()
	require.NoError(t, shell.Run())
	output := buf.String()

	require.Contains(t, output, "section:  time-off (Request Time Off)")
	require.Contains(t, output, "main:     hidden")
	require.Contains(t, output, "right:    expanded")
	require.Contains(t, output, "sidebar:  hidden")
	require.Contains(t, output, "right:    full screen")

	// Admin selection before sign-in is ignored
	require.Contains(t, output, "section:  time-off (Request Time Off)\nsidebar:  hidden")

	require.Contains(t, output, "Error: invalid credentials")
	require.Contains(t, output, "Signed in as admin@example.com (Admin, admin)")
	require.Contains(t, output, "signed_in")
	require.Contains(t, output, "Model: o3")
	require.Contains(t, output, "Model: o3-pro")
	require.Contains(t, output, "admin@example.com")
	require.Contains(t, output, "Unknown command: bogus")
	require.Contains(t, output, "Goodbye!")
	require.NotContains(t, output, "section:  expense-reports")

	require.Equal(t, "Welcome, admin", shell.page.View().Sidebar.Greeting)
	require.True(t, shell.page.View().MainContent.AdminVisible)
}

func TestParseFlags(t *testing.T) {
	flags, positional := parseFlags([]string{"a@b.c", "--password", "pw", "--role=Admin", "--force", "extra"})
	require.Equal(t, []string{"a@b.c", "extra"}, positional)
	require.Equal(t, "pw", flags["password"])
	require.Equal(t, "Admin", flags["role"])
	require.Equal(t, "true", flags["force"])
}

func TestRunSubCommandUnknown(t *testing.T) {
	InitRegistry()
	require.Error(t, runSubCommand("users", []string{"explode"}))
	require.Error(t, runSubCommand("missing", nil))
}

func TestParseIntent(t *testing.T) {
	in, err := parseIntent([]string{"select", "Request", "Time", "Off"})
	require.NoError(t, err)
	require.Equal(t, navigation.IntentSelect, in.Kind)
	require.Equal(t, sections.TimeOff, in.Section)

	in, err = parseIntent([]string{"article", "kb-1"})
	require.NoError(t, err)
	require.Equal(t, "kb-1", in.Article)

	_, err = parseIntent([]string{"select"})
	require.Error(t, err)
	require.False(t, errors.Is(err, errNotIntent))

	_, err = parseIntent([]string{"history"})
	require.ErrorIs(t, err, errNotIntent)
}

func TestDaemonPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer ts.Close()

	InitRegistry()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stdout)

	require.NoError(t, runSubCommand("daemon", []string{"ping", "--url", ts.URL}))
	require.Contains(t, buf.String(), "weaverd is up")

	t.Setenv(EnvToken, "")
	err := runSubCommand("daemon", []string{"status", "--url", ts.URL})
	require.ErrorContains(t, err, "--email is required")
}

func TestConfigServer(t *testing.T) {
	buf := setupCommands(t)

	require.NoError(t, runSubCommand("config", []string{"server", "http://weaver.internal:3001/"}))
	require.Contains(t, buf.String(), "Server set to http://weaver.internal:3001")
	require.Equal(t, "http://weaver.internal:3001", config.GetGlobal().Settings.Server.URL)

	loaded, err := config.NewLoader(config.GetGlobalPath()).LoadWithCreate(false)
	require.NoError(t, err)
	require.Equal(t, "http://weaver.internal:3001", loaded.Settings.Server.URL)

	require.Error(t, runSubCommand("config", []string{"server", "ftp://nope"}))
}

func TestRegistryHelp(t *testing.T) {
	InitRegistry()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	require.Same(t, GetCommand("daemon"), GetCommand("remote"))
	require.Nil(t, GetCommand("nope"))
	require.Contains(t, GetCommandNames(), "remote")

	PrintCommands()
	help := buf.String()
	require.Less(t, strings.Index(help, "Interface:"), strings.Index(help, "Accounts:"))
	require.Less(t, strings.Index(help, "Setup:"), strings.Index(help, "Daemon:"))
	require.Contains(t, help, "(remote)")

	buf.Reset()
	PrintCommandHelp("daemon")
	require.Contains(t, buf.String(), "Sub-commands:")
	require.Contains(t, buf.String(), "watch")
}
