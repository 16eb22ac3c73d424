// Package apptoken issues short-lived installation access tokens for a GitHub
// App and revokes them again once the job that needed them has finished.
package apptoken

import (
	"context"
	"time"
)

// Token is an installation access token issued for a single run.
type Token struct {
	// Value is the secret token and must never be logged.
	Value string `json:"-"`

	// ExpiresAt is set by GitHub, typically one hour after issuance.
	ExpiresAt time.Time `json:"expires_at"`

	// InstallationID is the installation the token is scoped to.
	InstallationID int64 `json:"installation_id"`

	// Permissions granted to the token, as reported by GitHub.
	Permissions Permissions `json:"permissions,omitempty"`

	// RepositorySelection is either "all" or "selected".
	RepositorySelection string `json:"repository_selection,omitempty"`
}

// Target selects the installation a token is issued for. When Organization
// is set it takes precedence over Repository.
type Target struct {
	Organization string
	Repository   string
}

// Issuer is the interface that has to be satisfied by token issuers.
type Issuer interface {
	// Issue a token for the installation selected by target.
	Issue(ctx context.Context, target Target, permissions Permissions) (*Token, error)

	// Revoke a previously issued token. Returns true if the token was revoked.
	Revoke(ctx context.Context, token string) (bool, error)
}

// Host is the environment invoking the action. It provides the inputs,
// receives outputs and carries state from the main phase to the post phase.
type Host interface {
	// Input returns the named input, or "" if it was not set.
	Input(name string) string

	// SetOutput exposes a named output of the run.
	SetOutput(name, value string) error

	// SetSecret registers a value that must be masked in all log output.
	SetSecret(value string)

	// SaveState persists a value for the post phase of the same run.
	SaveState(name, value string) error

	// State returns a value saved in the main phase, or "" if there is none.
	State(name string) string
}
