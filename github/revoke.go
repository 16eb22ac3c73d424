package github

import (
	"context"
	"net/http"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/eventctx"
)

// RevokeToken revokes an installation access token, authenticating with the
// token itself. An empty token is not revoked and no request is made.
func RevokeToken(ctx context.Context, token string, config TransportConfig) (bool, error) {
	if token == "" {
		return false, nil
	}
	client, err := NewClient(token, config)
	if err != nil {
		return false, err
	}
	req, err := client.NewRequest(http.MethodDelete, "installation/token", nil)
	if err != nil {
		return false, &apptoken.Error{Kind: apptoken.RevocationFailure, Message: "build request", Err: err}
	}

	eventctx.GetStats(ctx).IncGithubCalls()
	resp, err := client.Do(ctx, req, nil)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		return false, responseError(apptoken.RevocationFailure, "revoke installation token", resp, err)
	}
	return true, nil
}
