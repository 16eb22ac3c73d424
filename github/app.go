package github

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v45/github"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/eventctx"
)

var appIDPattern = regexp.MustCompile(`^[0-9]+$`)

// State of an App.
type State int

// Enumeration of app states.
const (
	Uninitialized State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Metadata about the GitHub App, fetched when connecting.
type Metadata struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
}

// App is the identity of a GitHub App. It must be connected before it can
// be used to make requests.
type App struct {
	id        string
	key       *PrivateKey
	transport TransportConfig
	now       func() time.Time

	state    State
	metadata *Metadata
	client   *github.Client
}

// NewApp returns an unconnected App.
func NewApp(id, privateKey string, transport TransportConfig) (*App, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apptoken.Errorf(apptoken.InvalidCredential, "app id must be defined")
	}
	if !appIDPattern.MatchString(id) {
		return nil, apptoken.Errorf(apptoken.InvalidConfiguration, "app id must only contain digits, got %q", id)
	}
	key, err := NewPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	if err := transport.Validate(); err != nil {
		return nil, err
	}
	return &App{
		id:        id,
		key:       key,
		transport: transport,
		now:       time.Now,
		state:     Uninitialized,
	}, nil
}

// ID returns the app id.
func (a *App) ID() string {
	return a.id
}

// State returns the connection state.
func (a *App) State() State {
	return a.state
}

// Metadata returns the app metadata, or nil if the app is not connected.
func (a *App) Metadata() *Metadata {
	return a.metadata
}

// Client returns the client authenticated as the app.
func (a *App) Client() (*github.Client, error) {
	if a.state != Connected {
		return nil, apptoken.Errorf(apptoken.UninitializedAccess, "app is %s, connect must succeed first", a.state)
	}
	return a.client, nil
}

// Connect signs an assertion valid for the given number of seconds (0 for
// the default) and fetches the app metadata with it. Connect may only be
// called once.
func (a *App) Connect(ctx context.Context, validity int) (*Metadata, error) {
	if a.state != Uninitialized {
		return nil, apptoken.Errorf(apptoken.InvalidArgument, "connect called on an app that is %s", a.state)
	}
	a.state = Connecting

	metadata, client, err := a.connect(ctx, validity)
	if err != nil {
		a.state = Failed
		return nil, err
	}
	a.state, a.metadata, a.client = Connected, metadata, client
	return metadata, nil
}

func (a *App) connect(ctx context.Context, validity int) (*Metadata, *github.Client, error) {
	assertion, err := SignAssertion(a.id, a.key, validity, a.now())
	if err != nil {
		return nil, nil, err
	}
	client, err := NewClient(assertion.Token, a.transport)
	if err != nil {
		return nil, nil, err
	}
	req, err := client.NewRequest(http.MethodGet, "app", nil)
	if err != nil {
		return nil, nil, &apptoken.Error{Kind: apptoken.ConnectionFailure, Message: "build request", Err: err}
	}

	eventctx.GetStats(ctx).IncGithubCalls()
	var metadata Metadata
	resp, err := client.Do(ctx, req, &metadata)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, nil, responseError(apptoken.ConnectionFailure, fmt.Sprintf("connect as app %s", a.id), resp, err)
	}
	return &metadata, client, nil
}
