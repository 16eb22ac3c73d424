// Package config parses files holding the inputs of a run outside the
// GitHub Actions runner.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"sigs.k8s.io/yaml"

	"github.com/telia-oss/apptoken"
)

// Config holds the inputs of a run.
type Config interface {
	// Inputs returns the inputs keyed by their apptoken.Input* names.
	Inputs() (map[string]string, error)

	// Validate the configuration without reading any referenced files.
	Validate() error
}

// Parse a YAML (or JSON) representation of Config.
func Parse(b []byte) (cfg Config, err error) {
	var t struct {
		Version *int `json:"version"`
	}
	err = yaml.Unmarshal(b, &t)
	if err != nil {
		return nil, fmt.Errorf("unmarshal version: %s", err)
	}
	if t.Version == nil {
		return nil, fmt.Errorf("%q must be defined", "version")
	}
	switch *t.Version {
	case 1:
		var v1 *v1
		err = yaml.UnmarshalStrict(b, &v1)
		cfg = v1
	default:
		return nil, fmt.Errorf("unknown configuration version: %d", *t.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal config (version %d): %s", *t.Version, err)
	}
	return cfg, nil
}

// Load and parse a configuration file.
func Load(file string) (Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

var (
	_ Config = &v1{}
)

type v1 struct {
	Version                int                  `json:"version"`
	AppID                  json.Number          `json:"app_id"`
	PrivateKey             string               `json:"private_key,omitempty"`
	PrivateKeyFile         string               `json:"private_key_file,omitempty"`
	Organization           string               `json:"organization,omitempty"`
	Repository             string               `json:"repository,omitempty"`
	Permissions            apptoken.Permissions `json:"permissions,omitempty"`
	APIURL                 string               `json:"github_api_url,omitempty"`
	Proxy                  string               `json:"proxy,omitempty"`
	IgnoreEnvironmentProxy bool                 `json:"ignore_environment_proxy,omitempty"`
	Revoke                 *bool                `json:"revoke,omitempty"`
}

// Validate implements Config.
func (c *v1) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("%q must be defined", apptoken.InputAppID)
	}
	if c.PrivateKey == "" && c.PrivateKeyFile == "" {
		return fmt.Errorf("one of %q or %q must be defined", apptoken.InputPrivateKey, "private_key_file")
	}
	if c.PrivateKey != "" && c.PrivateKeyFile != "" {
		return fmt.Errorf("only one of %q or %q may be defined", apptoken.InputPrivateKey, "private_key_file")
	}
	for name, level := range c.Permissions {
		switch level {
		case apptoken.LevelRead, apptoken.LevelWrite, apptoken.LevelAdmin:
		default:
			return fmt.Errorf("permissions: %q: unknown level %q", name, level)
		}
	}
	return apptoken.ValidateProxyURL(c.Proxy)
}

// Inputs implements Config.
func (c *v1) Inputs() (map[string]string, error) {
	privateKey := c.PrivateKey
	if c.PrivateKeyFile != "" {
		b, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		privateKey = string(b)
	}
	inputs := map[string]string{
		apptoken.InputAppID:        c.AppID.String(),
		apptoken.InputPrivateKey:   privateKey,
		apptoken.InputOrganization: c.Organization,
		apptoken.InputRepository:   c.Repository,
		apptoken.InputAPIURL:       c.APIURL,
		apptoken.InputProxy:        c.Proxy,
	}
	if len(c.Permissions) > 0 {
		inputs[apptoken.InputPermissions] = c.Permissions.String()
	}
	if c.IgnoreEnvironmentProxy {
		inputs[apptoken.InputIgnoreEnvironmentProxy] = "true"
	}
	if c.Revoke != nil {
		inputs[apptoken.InputRevoke] = strconv.FormatBool(*c.Revoke)
	}
	return inputs, nil
}
