package github

import (
	"crypto/rsa"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/telia-oss/apptoken"
)

// PrivateKey is the PEM encoded private key of a GitHub App.
type PrivateKey struct {
	pem []byte
}

// NewPrivateKey returns a PrivateKey for the raw PEM value. Escaped newlines
// ("\n" as two characters) are expanded, which is how multi-line keys often
// end up after being stored as a single-line secret. The PEM itself is only
// parsed when signing.
func NewPrivateKey(raw string) (*PrivateKey, error) {
	v := strings.TrimSpace(strings.ReplaceAll(raw, `\n`, "\n"))
	if v == "" {
		return nil, apptoken.Errorf(apptoken.InvalidCredential, "private key must be defined")
	}
	return &PrivateKey{pem: []byte(v)}, nil
}

func (k *PrivateKey) signingKey() (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(k.pem)
	if err != nil {
		return nil, &apptoken.Error{Kind: apptoken.SigningFailure, Message: "parse private key", Err: err}
	}
	return key, nil
}
