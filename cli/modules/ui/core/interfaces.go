package core

import (
	"context"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
)

// View renders presenter output. The TUI is the only implementation; the
// shell and the daemon drive widgets.Page directly.
type View interface {
	Initialize(presenter Presenter) error
	Run(ctx context.Context) error // blocks until the user quits
	Stop() error
	UpdateState(update StateUpdate)
	ShowNotification(notification *Notification)
	GetCurrentView() ViewModelType
}

// Presenter turns UI events into navigation and account changes and
// publishes the resulting view models.
type Presenter interface {
	Initialize(ctx context.Context) error
	HandleEvent(event *Event) error
	GetViewModel(viewType ViewModelType) (ViewModel, error)

	// CurrentView is the screen the view should render
	CurrentView() ViewModelType

	Subscribe(callback func(StateUpdate))
	SubscribeNotifications(callback func(*Notification))

	// Refresh rebuilds the workspace and, for admins, reloads the account lists
	Refresh() error
	Shutdown() error
}

// Authenticator checks credentials. Only the session identity reaches the navigation state.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// AccountDirectory is what the admin console needs from the account store
type AccountDirectory interface {
	ListUsers(ctx context.Context, f accounts.UserFilter) ([]accounts.User, error)
	ListRoles(ctx context.Context) ([]accounts.Role, error)
	SetUserActive(ctx context.Context, id int64, active bool) (*accounts.User, error)
	DeleteUser(ctx context.Context, id int64) error
	DeleteRole(ctx context.Context, id int64) error
}
