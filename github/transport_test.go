package github_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telia-oss/apptoken"
	provider "github.com/telia-oss/apptoken/github"
)

func TestTransportConfigBaseURL(t *testing.T) {
	tests := []struct {
		description string
		config      provider.TransportConfig
		expected    string
	}{
		{
			description: "defaults to the public api",
			expected:    "https://api.github.com/",
		},
		{
			description: "uses the environment api url",
			config:      provider.TransportConfig{EnvironmentBaseURL: "https://ghe.example.com/api/v3"},
			expected:    "https://ghe.example.com/api/v3/",
		},
		{
			description: "explicit override wins",
			config: provider.TransportConfig{
				BaseURL:            "https://override.example.com/",
				EnvironmentBaseURL: "https://ghe.example.com/api/v3",
			},
			expected: "https://override.example.com/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.config.ResolvedBaseURL())
		})
	}
}

func TestTransportConfigProxy(t *testing.T) {
	var (
		environmentProxy, _ = url.Parse("http://environment-proxy:3128")
		explicitProxy, _    = url.Parse("https://explicit-proxy:8443")
		request, _          = http.NewRequest(http.MethodGet, "https://api.github.com/app", nil)
	)
	fromEnvironment := func(*http.Request) (*url.URL, error) {
		return environmentProxy, nil
	}

	tests := []struct {
		description  string
		config       provider.TransportConfig
		expected     *url.URL
		expectDirect bool
		expectedKind apptoken.ErrorKind
	}{
		{
			description: "falls back to the environment proxy",
			config:      provider.TransportConfig{EnvironmentProxy: fromEnvironment},
			expected:    environmentProxy,
		},
		{
			description: "explicit proxy takes precedence over the environment",
			config: provider.TransportConfig{
				ProxyURL:         explicitProxy.String(),
				EnvironmentProxy: fromEnvironment,
			},
			expected: explicitProxy,
		},
		{
			description: "ignoring the environment proxy forces direct connections",
			config: provider.TransportConfig{
				ProxyURL:               explicitProxy.String(),
				IgnoreEnvironmentProxy: true,
				EnvironmentProxy:       fromEnvironment,
			},
			expectDirect: true,
		},
		{
			description:  "rejects proxies without an http scheme",
			config:       provider.TransportConfig{ProxyURL: "socks5://proxy:1080"},
			expectedKind: apptoken.InvalidConfiguration,
		},
		{
			description:  "rejects proxies without a scheme",
			config:       provider.TransportConfig{ProxyURL: "proxy:3128"},
			expectedKind: apptoken.InvalidConfiguration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			proxy, err := tc.config.Proxy()
			if tc.expectedKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedKind, apptoken.KindOf(err))

				_, err = provider.NewClient("credential", tc.config)
				assert.Equal(t, tc.expectedKind, apptoken.KindOf(err))
				return
			}
			require.NoError(t, err)
			if tc.expectDirect {
				assert.Nil(t, proxy)
				return
			}
			require.NotNil(t, proxy)
			actual, err := proxy(request)
			require.NoError(t, err)
			assert.Equal(t, tc.expected.String(), actual.String())
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("requests carry the credential and api version", func(t *testing.T) {
		api := newFakeAPI(t, map[string]response{
			"GET /app": {status: http.StatusOK, body: appMetadata},
		})

		client, err := provider.NewClient("credential", provider.TransportConfig{BaseURL: api.URL})
		require.NoError(t, err)

		_, _, err = client.Apps.Get(context.TODO(), "")
		require.NoError(t, err)

		requests := api.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "Bearer credential", requests[0].Header.Get("Authorization"))
		assert.Equal(t, provider.APIVersion, requests[0].Header.Get("X-GitHub-Api-Version"))
	})

	t.Run("requests are sent through an explicit proxy", func(t *testing.T) {
		var proxied []string
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proxied = append(proxied, r.URL.String())
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, appMetadata)
		}))
		defer proxy.Close()

		client, err := provider.NewClient("credential", provider.TransportConfig{
			BaseURL:  "http://github.invalid/api/v3",
			ProxyURL: proxy.URL,
		})
		require.NoError(t, err)

		_, _, err = client.Apps.Get(context.TODO(), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"http://github.invalid/api/v3/app"}, proxied)
	})
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	config := provider.TransportConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond}

	_, err := provider.RevokeToken(context.TODO(), "ghs_token", config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apptoken.ErrTimeout))
	assert.False(t, errors.Is(err, apptoken.ErrRevocationFailure))
}
