package apptoken

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/telia-oss/apptoken/eventctx"
)

// New returns a new instance of apptoken.Action.
func New(issuer Issuer, host Host) *Action {
	return &Action{
		issuer: issuer,
		host:   host,
	}
}

// Action runs the two phases of a job: Main issues a token and Post revokes it.
type Action struct {
	issuer Issuer
	host   Host
}

// Main issues a token, masks it, exposes it as an output and, when
// revocation is enabled, saves it for the post phase.
func (a *Action) Main(ctx context.Context, inputs *Inputs) error {
	log := eventctx.GetLogger(ctx)

	if err := inputs.Validate(); err != nil {
		return err
	}
	target := inputs.Target()
	permissions := ParsePermissions(inputs.Permissions)
	log.Info("issuing token",
		zap.String("organization", target.Organization),
		zap.String("repository", target.Repository),
		zap.String("permissions", permissions.String()),
	)

	token, err := a.issuer.Issue(ctx, target, permissions)
	if err != nil {
		log.Error("failed to issue token", errorFields(err)...)
		return err
	}
	a.host.SetSecret(token.Value)

	if err := a.host.SetOutput(OutputToken, token.Value); err != nil {
		return err
	}
	if inputs.Revoke {
		if err := a.host.SaveState(StateToken, token.Value); err != nil {
			return err
		}
	}
	log.Info("issued token",
		zap.Int64("installation_id", token.InstallationID),
		zap.Time("expires_at", token.ExpiresAt),
		zap.String("repository_selection", token.RepositorySelection),
		zap.Bool("revoke", inputs.Revoke),
	)
	return nil
}

// Post revokes the token saved by Main. Skipping revocation is not an
// error, and a failed revocation is only reported since the token expires
// on its own.
func (a *Action) Post(ctx context.Context, inputs *Inputs) error {
	log := eventctx.GetLogger(ctx)

	if !inputs.Revoke {
		log.Info("token revocation is disabled")
		return nil
	}
	token := a.host.State(StateToken)
	if token == "" {
		log.Info("no token to revoke")
		return nil
	}
	if err := inputs.ValidateTransport(); err != nil {
		return err
	}

	revoked, err := a.issuer.Revoke(ctx, token)
	if err != nil {
		log.Warn("failed to revoke token", errorFields(err)...)
		return nil
	}
	if revoked {
		log.Info("revoked token")
	}
	return nil
}

// errorFields returns err along with any upstream diagnostics it carries.
func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	var e *Error
	if !errors.As(err, &e) {
		return fields
	}
	fields = append(fields, zap.String("kind", string(e.Kind)))
	if e.StatusCode != 0 {
		fields = append(fields, zap.Int("status", e.StatusCode))
	}
	if e.URL != "" {
		fields = append(fields, zap.String("url", e.URL))
	}
	if e.RequestID != "" {
		fields = append(fields, zap.String("request_id", e.RequestID))
	}
	return fields
}
