package github_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privateKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, string(privateKey)
}

// request is a request received by the fake API.
type request struct {
	Method  string
	Path    string
	Header  http.Header
	Body    map[string]interface{}
	RawBody string
}

type response struct {
	status int
	body   string

	// handler, when set, serves the request instead.
	handler http.HandlerFunc
}

// fakeAPI is an httptest server standing in for the GitHub API. Responses
// are keyed by method and path, e.g. "GET /app".
type fakeAPI struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]response
	requests  []request
}

func newFakeAPI(t *testing.T, responses map[string]response) *fakeAPI {
	t.Helper()
	api := &fakeAPI{responses: responses}
	api.Server = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.Close)
	return api
}

func (api *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), RawBody: string(raw)}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req.Body)
	}

	api.mu.Lock()
	api.requests = append(api.requests, req)
	resp, ok := api.responses[r.Method+" "+r.URL.Path]
	api.mu.Unlock()

	w.Header().Set("X-GitHub-Request-Id", "ABCD:1234")
	if resp.handler != nil {
		resp.handler(w, r)
		return
	}
	if !ok {
		resp = response{status: http.StatusNotFound, body: `{"message":"Not Found"}`}
	}
	if resp.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (api *fakeAPI) Requests() []request {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]request(nil), api.requests...)
}

const appMetadata = `{"id":123456,"slug":"acme-bot","name":"Acme Bot","client_id":"Iv1.0123456789abcdef"}`
