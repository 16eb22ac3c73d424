// Package github implements an apptoken.Issuer for GitHub App installation
// access tokens, along with the building blocks it is made of: signing
// assertions, connecting as the app, resolving installations and issuing
// and revoking tokens.
package github

import (
	"context"

	"go.uber.org/zap"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/eventctx"
)

var _ apptoken.Issuer = &Provider{}

// New returns a new apptoken.Issuer for a GitHub App.
func New(appID, privateKey string, options ...Option) *Provider {
	p := &Provider{
		appID:      appID,
		privateKey: privateKey,
		validity:   DefaultAssertionValidity,
	}
	for _, optionFunc := range options {
		optionFunc(p)
	}
	return p
}

// Option for the provider.
type Option func(*Provider)

// WithTransport sets the transport config used for all requests.
func WithTransport(config TransportConfig) Option {
	return func(p *Provider) {
		p.transport = config
	}
}

// WithAssertionValidity sets the validity in seconds of the assertion used to connect.
func WithAssertionValidity(seconds int) Option {
	return func(p *Provider) {
		p.validity = seconds
	}
}

// Provider issues and revokes installation access tokens for a GitHub App.
type Provider struct {
	appID      string
	privateKey string
	transport  TransportConfig
	validity   int
}

// Connect returns a connected App.
func (p *Provider) Connect(ctx context.Context) (*App, error) {
	app, err := NewApp(p.appID, p.privateKey, p.transport)
	if err != nil {
		return nil, err
	}
	metadata, err := app.Connect(ctx, p.validity)
	if err != nil {
		return nil, err
	}
	eventctx.GetLogger(ctx).Debug("connected as app",
		zap.String("app", metadata.Slug),
		zap.Int64("app_id", metadata.ID),
		zap.String("api_url", p.transport.ResolvedBaseURL()),
	)
	return app, nil
}

// Issue implements apptoken.Issuer.
func (p *Provider) Issue(ctx context.Context, target apptoken.Target, permissions apptoken.Permissions) (*apptoken.Token, error) {
	app, err := p.Connect(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := NewInstallationResolver(app)
	if err != nil {
		return nil, err
	}

	var installation *Installation
	if target.Organization != "" {
		installation, err = resolver.ForOrganization(ctx, target.Organization)
	} else {
		installation, err = resolver.ForRepository(ctx, target.Repository)
	}
	if err != nil {
		return nil, err
	}
	eventctx.GetLogger(ctx).Debug("found installation",
		zap.Int64("installation_id", installation.ID),
		zap.String("scope", string(installation.Scope)),
		zap.String("owner", installation.Owner),
	)

	client, err := app.Client()
	if err != nil {
		return nil, err
	}
	return IssueToken(ctx, client, installation.ID, permissions)
}

// Revoke implements apptoken.Issuer.
func (p *Provider) Revoke(ctx context.Context, token string) (bool, error) {
	return RevokeToken(ctx, token, p.transport)
}

// Installations lists every installation of the app.
func (p *Provider) Installations(ctx context.Context) ([]*Installation, error) {
	app, err := p.Connect(ctx)
	if err != nil {
		return nil, err
	}
	client, err := app.Client()
	if err != nil {
		return nil, err
	}
	return ListInstallations(ctx, client)
}
