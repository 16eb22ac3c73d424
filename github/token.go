package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v45/github"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/eventctx"
)

// accessTokenRequest is the body of a token request. Permissions are
// omitted when empty so that GitHub grants the installation's defaults.
type accessTokenRequest struct {
	Permissions map[string]string `json:"permissions,omitempty"`
}

type accessTokenResponse struct {
	Token               string            `json:"token"`
	ExpiresAt           time.Time         `json:"expires_at"`
	Permissions         map[string]string `json:"permissions,omitempty"`
	RepositorySelection string            `json:"repository_selection,omitempty"`
}

// IssueToken creates an installation access token using a client
// authenticated as the app.
func IssueToken(ctx context.Context, client *github.Client, installationID int64, permissions apptoken.Permissions) (*apptoken.Token, error) {
	if installationID <= 0 {
		return nil, apptoken.Errorf(apptoken.InvalidArgument, "installation id must be defined")
	}
	body := &accessTokenRequest{}
	if len(permissions) > 0 {
		body.Permissions = permissions.Trimmed()
	}

	req, err := client.NewRequest(http.MethodPost, fmt.Sprintf("app/installations/%d/access_tokens", installationID), body)
	if err != nil {
		return nil, &apptoken.Error{Kind: apptoken.TokenIssuanceFailure, Message: "build request", Err: err}
	}

	eventctx.GetStats(ctx).IncGithubCalls()
	var token accessTokenResponse
	resp, err := client.Do(ctx, req, &token)
	if err != nil || resp.StatusCode != http.StatusCreated {
		return nil, responseError(apptoken.TokenIssuanceFailure, fmt.Sprintf("create token for installation %d", installationID), resp, err)
	}
	if token.Token == "" {
		return nil, apptoken.Errorf(apptoken.TokenIssuanceFailure, "empty token returned for installation %d", installationID)
	}
	return &apptoken.Token{
		Value:               token.Token,
		ExpiresAt:           token.ExpiresAt.UTC(),
		InstallationID:      installationID,
		Permissions:         token.Permissions,
		RepositorySelection: token.RepositorySelection,
	}, nil
}
