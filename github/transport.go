package github

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v45/github"

	"github.com/telia-oss/apptoken"
)

const (
	// DefaultBaseURL is the public GitHub API.
	DefaultBaseURL = "https://api.github.com/"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 5 * time.Second

	// APIVersion is sent with every request in the X-GitHub-Api-Version header.
	APIVersion = "2022-11-28"

	apiVersionHeader = "X-GitHub-Api-Version"
	requestIDHeader  = "X-GitHub-Request-Id"
)

// TransportConfig configures the HTTP clients used to talk to the GitHub API.
// Ambient values (environment variables) are resolved by the caller and
// passed in explicitly.
type TransportConfig struct {
	// BaseURL overrides the API URL.
	BaseURL string

	// EnvironmentBaseURL is the API URL of the environment (e.g. GITHUB_API_URL),
	// used when BaseURL is empty.
	EnvironmentBaseURL string

	// ProxyURL is an explicit proxy, which must start with http:// or https://.
	ProxyURL string

	// IgnoreEnvironmentProxy forces direct connections even if a proxy is
	// configured in the environment.
	IgnoreEnvironmentProxy bool

	// EnvironmentProxy resolves the proxy configured in the environment.
	// Defaults to http.ProxyFromEnvironment.
	EnvironmentProxy func(*http.Request) (*url.URL, error)

	// Timeout for a single request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// UserAgent overrides the user agent set by go-github.
	UserAgent string
}

// Validate the config without making any requests.
func (c TransportConfig) Validate() error {
	if err := apptoken.ValidateProxyURL(c.ProxyURL); err != nil {
		return err
	}
	if _, err := c.apiURL(); err != nil {
		return err
	}
	return nil
}

// ResolvedBaseURL returns the API URL requests are sent to.
func (c TransportConfig) ResolvedBaseURL() string {
	var s string
	switch {
	case c.BaseURL != "":
		s = c.BaseURL
	case c.EnvironmentBaseURL != "":
		s = c.EnvironmentBaseURL
	default:
		s = DefaultBaseURL
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

func (c TransportConfig) apiURL() (*url.URL, error) {
	u, err := url.Parse(c.ResolvedBaseURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apptoken.Errorf(apptoken.InvalidConfiguration, "invalid api url: %q", c.ResolvedBaseURL())
	}
	return u, nil
}

// Proxy returns the proxy function for the transport. A nil function means
// that requests are never proxied.
func (c TransportConfig) Proxy() (func(*http.Request) (*url.URL, error), error) {
	if c.IgnoreEnvironmentProxy {
		return nil, nil
	}
	if c.ProxyURL != "" {
		if err := apptoken.ValidateProxyURL(c.ProxyURL); err != nil {
			return nil, err
		}
		u, err := url.Parse(c.ProxyURL)
		if err != nil {
			return nil, &apptoken.Error{Kind: apptoken.InvalidConfiguration, Message: "parse proxy url", Err: err}
		}
		return http.ProxyURL(u), nil
	}
	if c.EnvironmentProxy != nil {
		return c.EnvironmentProxy, nil
	}
	return http.ProxyFromEnvironment, nil
}

func (c TransportConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// NewClient returns a GitHub client that authenticates every request with
// the credential, which is either an assertion or an installation token.
func NewClient(credential string, config TransportConfig) (*github.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	proxy, err := config.Proxy()
	if err != nil {
		return nil, err
	}
	baseURL, err := config.apiURL()
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	client := github.NewClient(&http.Client{
		Timeout: config.timeout(),
		Transport: &headerTransport{
			base:       transport,
			credential: credential,
		},
	})
	client.BaseURL = baseURL
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	return client, nil
}

// headerTransport sets the authorization and API version headers.
type headerTransport struct {
	base       http.RoundTripper
	credential string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.credential)
	r.Header.Set(apiVersionHeader, APIVersion)
	return t.base.RoundTrip(r)
}

// responseError builds an *apptoken.Error from the outcome of a request
// that did not return the expected status. Timeouts are reported as
// apptoken.Timeout regardless of kind.
func responseError(kind apptoken.ErrorKind, message string, resp *github.Response, err error) error {
	e := &apptoken.Error{Kind: kind, Message: message, Err: err}
	if isTimeout(err) {
		e.Kind = apptoken.Timeout
	}
	if resp != nil && resp.Response != nil {
		e.StatusCode = resp.StatusCode
		e.RequestID = resp.Header.Get(requestIDHeader)
		if resp.Request != nil {
			e.URL = resp.Request.URL.String()
		}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		// The go-github message includes the URL and status code which are already recorded.
		e.Err = nil
		if ghErr.Message != "" {
			e.Err = errors.New(ghErr.Message)
		}
	}
	if e.URL == "" {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			e.URL = urlErr.URL
			e.Err = urlErr.Err
		}
	}
	return e
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
