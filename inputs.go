package apptoken

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Input names read from the host.
const (
	InputAppID                  = "app_id"
	InputPrivateKey             = "private_key"
	InputOrganization           = "organization"
	InputRepository             = "repository"
	InputPermissions            = "permissions"
	InputAPIURL                 = "github_api_url"
	InputProxy                  = "proxy"
	InputIgnoreEnvironmentProxy = "ignore_environment_proxy"
	InputRevoke                 = "revoke"
)

// StateToken is the name of the state holding the issued token.
const StateToken = "token"

// OutputToken is the name of the output holding the issued token.
const OutputToken = "token"

var (
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
	proxyPattern  = regexp.MustCompile(`^https?://`)
)

// Defaults holds ambient values used when the corresponding input is empty.
type Defaults struct {
	// Repository is the "owner/repo" slug of the repository running the job.
	Repository string
}

// Inputs for a single run.
type Inputs struct {
	AppID                  string `json:"app_id"`
	PrivateKey             string `json:"private_key"`
	Organization           string `json:"organization,omitempty"`
	Repository             string `json:"repository,omitempty"`
	Permissions            string `json:"permissions,omitempty"`
	APIURL                 string `json:"github_api_url,omitempty"`
	ProxyURL               string `json:"proxy,omitempty"`
	IgnoreEnvironmentProxy bool   `json:"ignore_environment_proxy,omitempty"`
	Revoke                 bool   `json:"revoke"`
}

// ReadInputs reads the inputs from a host.
func ReadInputs(host Host, defaults Defaults) (*Inputs, error) {
	in := &Inputs{
		AppID:        strings.TrimSpace(host.Input(InputAppID)),
		PrivateKey:   host.Input(InputPrivateKey),
		Organization: strings.TrimSpace(host.Input(InputOrganization)),
		Repository:   strings.TrimSpace(host.Input(InputRepository)),
		Permissions:  host.Input(InputPermissions),
		APIURL:       strings.TrimSpace(host.Input(InputAPIURL)),
		ProxyURL:     strings.TrimSpace(host.Input(InputProxy)),
	}
	if in.Repository == "" {
		in.Repository = defaults.Repository
	}
	var err error
	if in.IgnoreEnvironmentProxy, err = readBool(host, InputIgnoreEnvironmentProxy, false); err != nil {
		return nil, err
	}
	if in.Revoke, err = readBool(host, InputRevoke, true); err != nil {
		return nil, err
	}
	return in, nil
}

func readBool(host Host, name string, def bool) (bool, error) {
	v := strings.TrimSpace(host.Input(name))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, Errorf(InvalidConfiguration, "%q must be a boolean, got %q", name, v)
	}
	return b, nil
}

// Validate the inputs required to issue a token. No network calls are made.
func (in *Inputs) Validate() error {
	if in.AppID == "" {
		return Errorf(InvalidCredential, "%q must be defined", InputAppID)
	}
	if !digitsPattern.MatchString(in.AppID) {
		return Errorf(InvalidConfiguration, "%q must only contain digits", InputAppID)
	}
	if strings.TrimSpace(in.PrivateKey) == "" {
		return Errorf(InvalidCredential, "%q must be defined", InputPrivateKey)
	}
	if err := in.ValidateTransport(); err != nil {
		return err
	}
	if in.Organization != "" {
		return nil
	}
	if in.Repository == "" {
		return Errorf(InvalidConfiguration, "either %q or %q must be defined", InputOrganization, InputRepository)
	}
	if _, _, err := SplitRepository(in.Repository); err != nil {
		return err
	}
	return nil
}

// ValidateTransport validates the inputs needed to talk to the API at all,
// which is all the post phase requires.
func (in *Inputs) ValidateTransport() error {
	return ValidateProxyURL(in.ProxyURL)
}

// Target returns the installation target selected by the inputs.
func (in *Inputs) Target() Target {
	if in.Organization != "" {
		return Target{Organization: in.Organization}
	}
	return Target{Repository: in.Repository}
}

// ValidateProxyURL returns an InvalidConfiguration error unless the proxy
// is empty or starts with http:// or https://.
func ValidateProxyURL(proxy string) error {
	if proxy == "" || proxyPattern.MatchString(proxy) {
		return nil
	}
	return Errorf(InvalidConfiguration, "proxy must start with http:// or https://, got %q", proxy)
}

// SplitRepository splits an "owner/repo" slug.
func SplitRepository(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", Errorf(InvalidConfiguration, "invalid repository: %q (expected owner/repository)", slug)
	}
	return parts[0], parts[1], nil
}

// String implements fmt.Stringer without revealing the private key.
func (in *Inputs) String() string {
	return fmt.Sprintf("app_id=%s organization=%s repository=%s permissions=%s revoke=%t",
		in.AppID, in.Organization, in.Repository, ParsePermissions(in.Permissions), in.Revoke)
}
