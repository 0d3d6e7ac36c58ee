package tui

import (
	"context"
	"sync"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/core"

	tea "github.com/charmbracelet/bubbletea"
)

var _ core.View = (*App)(nil)

// App runs the workspace as a Bubble Tea program
type App struct {
	mu         sync.RWMutex
	model      *Model
	program    *tea.Program
	metrics    *system.MetricsCollector
	theme      string
	timestamps bool
	backlog    []tea.Msg // presenter output received before Run
}

// Option configures an App
type Option func(*App)

// WithMetrics shows host metrics in the header
func WithMetrics(mc *system.MetricsCollector) Option {
	return func(a *App) { a.metrics = mc }
}

// WithTheme selects the dark or light theme
func WithTheme(name string) Option {
	return func(a *App) { a.theme = name }
}

// WithTimestamps shows or hides times in the logs overlay
func WithTimestamps(show bool) Option {
	return func(a *App) { a.timestamps = show }
}

// New creates the TUI and subscribes it to the presenter
func New(presenter core.Presenter, opts ...Option) (*App, error) {
	a := &App{theme: "dark", timestamps: true}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Initialize(presenter); err != nil {
		return nil, err
	}
	return a, nil
}

// Initialize builds the model and subscribes to presenter output
func (a *App) Initialize(presenter core.Presenter) error {
	a.mu.Lock()
	ApplyTheme(a.theme)
	a.model = NewModel(presenter)
	a.model.metrics = a.metrics
	a.model.showTimestamps = a.timestamps
	a.mu.Unlock()

	// Outside the lock: the presenter may call back right away
	presenter.Subscribe(a.UpdateState)
	presenter.SubscribeNotifications(a.ShowNotification)
	return nil
}

// Run blocks until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	program := tea.NewProgram(a.model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	a.program = program
	backlog := a.backlog
	a.backlog = nil
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.Start()
		defer a.metrics.Stop()
	}

	// Send blocks until the event loop runs
	if len(backlog) > 0 {
		go func() {
			for _, msg := range backlog {
				program.Send(msg)
			}
		}()
	}

	final, err := program.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if m, ok := final.(Model); ok {
		a.mu.Lock()
		a.model = &m
		a.mu.Unlock()
	}
	return err
}

// Stop quits the program
func (a *App) Stop() error {
	a.mu.RLock()
	program := a.program
	a.mu.RUnlock()
	if program != nil {
		program.Quit()
	}
	return nil
}

func (a *App) send(msg tea.Msg) {
	a.mu.Lock()
	program := a.program
	if program == nil {
		a.backlog = append(a.backlog, msg)
	}
	a.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// UpdateState forwards a presenter update to the program
func (a *App) UpdateState(update core.StateUpdate) {
	a.send(stateUpdateMsg{update: update})
}

// ShowNotification forwards a notification to the program
func (a *App) ShowNotification(n *core.Notification) {
	a.send(notificationMsg{notification: n})
}

// GetCurrentView returns the screen on display
func (a *App) GetCurrentView() core.ViewModelType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.model == nil {
		return core.VMLanding
	}
	return a.model.currentView
}
