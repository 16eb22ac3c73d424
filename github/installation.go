package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v45/github"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/eventctx"
)

// Scope of an installation.
type Scope string

// Enumeration of installation scopes.
const (
	ScopeOrganization Scope = "organization"
	ScopeRepository   Scope = "repository"
)

// Installation of the app on an organization or repository.
type Installation struct {
	ID                  int64  `json:"id"`
	Scope               Scope  `json:"scope"`
	Owner               string `json:"owner"`
	Repository          string `json:"repository,omitempty"`
	TargetType          string `json:"target_type,omitempty"`
	RepositorySelection string `json:"repository_selection,omitempty"`
}

// NewInstallationResolver returns a resolver using the client of a connected app.
func NewInstallationResolver(app *App) (*InstallationResolver, error) {
	client, err := app.Client()
	if err != nil {
		return nil, err
	}
	name := app.ID()
	if m := app.Metadata(); m != nil && m.Slug != "" {
		name = m.Slug
	}
	return &InstallationResolver{client: client, app: name}, nil
}

// InstallationResolver looks up the installation of an app.
type InstallationResolver struct {
	client *github.Client
	app    string
}

// ForOrganization returns the installation of the app on an organization.
func (r *InstallationResolver) ForOrganization(ctx context.Context, org string) (*Installation, error) {
	if org == "" {
		return nil, apptoken.Errorf(apptoken.InvalidConfiguration, "organization must be defined")
	}
	eventctx.GetStats(ctx).IncGithubCalls()
	installation, resp, err := r.client.Apps.FindOrganizationInstallation(ctx, org)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, responseError(apptoken.InstallationNotFound, fmt.Sprintf("app %s is not installed on organization: %s", r.app, org), resp, err)
	}
	return newInstallation(installation, ScopeOrganization, ""), nil
}

// ForRepository returns the installation of the app on a repository, given
// as an "owner/repo" slug.
func (r *InstallationResolver) ForRepository(ctx context.Context, slug string) (*Installation, error) {
	owner, repo, err := apptoken.SplitRepository(slug)
	if err != nil {
		return nil, err
	}
	eventctx.GetStats(ctx).IncGithubCalls()
	installation, resp, err := r.client.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, responseError(apptoken.InstallationNotFound, fmt.Sprintf("app %s is not installed on repository: %s", r.app, slug), resp, err)
	}
	return newInstallation(installation, ScopeRepository, repo), nil
}

// ListInstallations returns every installation of the app.
func ListInstallations(ctx context.Context, client *github.Client) ([]*Installation, error) {
	var (
		out  []*Installation
		opts = &github.ListOptions{PerPage: 100}
	)
	for {
		eventctx.GetStats(ctx).IncGithubCalls()
		installations, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err != nil || resp.StatusCode != http.StatusOK {
			return nil, responseError(apptoken.InstallationNotFound, "list installations", resp, err)
		}
		for _, i := range installations {
			scope := ScopeRepository
			if i.GetTargetType() == "Organization" {
				scope = ScopeOrganization
			}
			out = append(out, newInstallation(i, scope, ""))
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func newInstallation(i *github.Installation, scope Scope, repo string) *Installation {
	return &Installation{
		ID:                  i.GetID(),
		Scope:               scope,
		Owner:               i.GetAccount().GetLogin(),
		Repository:          repo,
		TargetType:          i.GetTargetType(),
		RepositorySelection: i.GetRepositorySelection(),
	}
}
