// Package auth is the identity provider boundary. The app consumes the
// Provider interface only; its failures are always *apperror.AuthError with a
// closed kind set, mapped once here and never re-interpreted downstream.
package auth

import "context"

// Usuario is the authenticated user as seen by the app. Auxiliary profile
// fields (DNI, dirección, etc.) are not modeled by the provider; they live in the
// local preference store.
type Usuario struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// AuthStateFunc receives the current user on every auth state change;
// nil means signed out. It is invoked once immediately on subscription.
type AuthStateFunc func(u *Usuario)

// Provider exposes the identity operations the screens consume.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Usuario, error)
	SignUp(ctx context.Context, email, password string) (*Usuario, error)
	SignOut(ctx context.Context) error

	// SendPasswordReset emails a single-use reset link; ConfirmPasswordReset
	// redeems its token.
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error

	// UpdatePassword requires a recent Reauthenticate, otherwise it fails
	// with AuthRequiresRecentLogin.
	Reauthenticate(ctx context.Context, password string) error
	UpdatePassword(ctx context.Context, newPassword string) error

	// UpdateProfile changes only the non-nil fields.
	UpdateProfile(ctx context.Context, displayName, photoURL *string) error

	// Current returns the signed-in user, nil when signed out.
	Current() *Usuario

	// SubscribeAuthState registers an observer and returns its disposer.
	SubscribeAuthState(fn AuthStateFunc) (cancel func())
}
