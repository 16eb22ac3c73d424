package github

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/telia-oss/apptoken"
)

// DefaultAssertionValidity is the lifetime in seconds of an assertion. It is
// only used once to connect, so there is no need for it to live any longer.
const DefaultAssertionValidity = 60

// Assertion is a signed JWT authenticating as the GitHub App.
type Assertion struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SignAssertion signs an RS256 JWT with the claims iat, exp and iss. A
// validity of 0 uses DefaultAssertionValidity.
func SignAssertion(appID string, key *PrivateKey, validity int, now time.Time) (*Assertion, error) {
	if validity < 0 {
		return nil, apptoken.Errorf(apptoken.InvalidArgument, "assertion validity must be positive, got %d", validity)
	}
	if validity == 0 {
		validity = DefaultAssertionValidity
	}
	signingKey, err := key.signingKey()
	if err != nil {
		return nil, err
	}

	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(time.Duration(validity) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    appID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	s, err := token.SignedString(signingKey)
	if err != nil {
		return nil, &apptoken.Error{Kind: apptoken.SigningFailure, Message: "sign assertion", Err: err}
	}
	return &Assertion{Token: s, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}
