package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/telia-oss/apptoken"
	"github.com/telia-oss/apptoken/config"
	"github.com/telia-oss/apptoken/eventctx"
	"github.com/telia-oss/apptoken/github"
	"github.com/telia-oss/apptoken/host/actions"
	"github.com/telia-oss/apptoken/host/local"
)

// Type definitions that allow us to pass in test fakes during testing.
type (
	hostFactory   func(configFile, stateFile string) (apptoken.Host, error)
	loggerFactory func(bool) (*zap.Logger, error)
)

// Options for the CLI. Nil factories are replaced with the defaults.
type Options struct {
	NewHost   hostFactory
	NewLogger loggerFactory
	Stdout    io.Writer
	Version   string
}

type flags struct {
	configFile        *string
	stateFile         *string
	debug             *bool
	repository        *string
	apiURL            *string
	timeout           *time.Duration
	assertionValidity *int
}

// Setup adds the flags and commands of app-token to a kingpin.Application.
func Setup(app *kingpin.Application, opts Options) {
	if opts.NewHost == nil {
		opts.NewHost = defaultHost
	}
	if opts.NewLogger == nil {
		opts.NewLogger = defaultLogger
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	f := &flags{
		configFile:        app.Flag("config", "Read inputs from a config file instead of the GitHub Actions runner").String(),
		stateFile:         app.Flag("state", "Path of the state file used with --config").Default("app-token-state.json").String(),
		debug:             app.Flag("debug", "Enable debug logging").Envar("RUNNER_DEBUG").Bool(),
		repository:        app.Flag("github-repository", "Repository used when none is configured").Envar("GITHUB_REPOSITORY").String(),
		apiURL:            app.Flag("github-api-url", "GitHub API URL used when none is configured").Envar("GITHUB_API_URL").String(),
		timeout:           app.Flag("timeout", "Timeout for each request to the GitHub API").Default(github.DefaultTimeout.String()).Duration(),
		assertionValidity: app.Flag("assertion-validity", "Validity in seconds of the JWT used to authenticate as the app").Default(fmt.Sprint(github.DefaultAssertionValidity)).Int(),
	}

	issue := app.Command("main", "Issue an installation access token.").Default()
	issue.Action(func(_ *kingpin.ParseContext) error {
		return f.run(opts, func(ctx context.Context, host apptoken.Host, inputs *apptoken.Inputs) error {
			return apptoken.New(f.issuer(inputs, opts.Version), host).Main(ctx, inputs)
		})
	})

	revoke := app.Command("post", "Revoke the installation access token issued by main.")
	revoke.Action(func(_ *kingpin.ParseContext) error {
		return f.run(opts, func(ctx context.Context, host apptoken.Host, inputs *apptoken.Inputs) error {
			if err := apptoken.New(f.issuer(inputs, opts.Version), host).Post(ctx, inputs); err != nil {
				return err
			}
			if h, ok := host.(interface{ Clear() error }); ok {
				return h.Clear()
			}
			return nil
		})
	})

	installations := app.Command("installations", "List the installations of the app.")
	installations.Action(func(_ *kingpin.ParseContext) error {
		return f.run(opts, func(ctx context.Context, host apptoken.Host, inputs *apptoken.Inputs) error {
			list, err := f.issuer(inputs, opts.Version).Installations(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(opts.Stdout)
			for _, installation := range list {
				if err := enc.Encode(installation); err != nil {
					return err
				}
			}
			return nil
		})
	})

	validate := app.Command("validate", "Validate a config file.")
	validate.Action(func(_ *kingpin.ParseContext) error {
		if *f.configFile == "" {
			return fmt.Errorf("%q must be defined", "--config")
		}
		cfg, err := config.Load(*f.configFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate: %s", err)
		}
		return nil
	})
}

func (f *flags) run(opts Options, fn func(context.Context, apptoken.Host, *apptoken.Inputs) error) error {
	logger, err := opts.NewLogger(*f.debug)
	if err != nil {
		return fmt.Errorf("initialize zap logger: %s", err)
	}
	defer logger.Sync()

	stats := &eventctx.Stats{}
	ctx := eventctx.SetStats(eventctx.SetLogger(context.Background(), logger), stats)

	host, err := opts.NewHost(*f.configFile, *f.stateFile)
	if err != nil {
		return fmt.Errorf("initialize host: %w", err)
	}
	inputs, err := apptoken.ReadInputs(host, apptoken.Defaults{Repository: *f.repository})
	if err != nil {
		return err
	}
	logger.Debug("read inputs", zap.Stringer("inputs", inputs))

	err = fn(ctx, host, inputs)
	logger.Debug("done", zap.Int("github_calls", stats.CallsToGithub))
	return err
}

func (f *flags) issuer(inputs *apptoken.Inputs, version string) *github.Provider {
	transport := github.TransportConfig{
		BaseURL:                inputs.APIURL,
		EnvironmentBaseURL:     *f.apiURL,
		ProxyURL:               inputs.ProxyURL,
		IgnoreEnvironmentProxy: inputs.IgnoreEnvironmentProxy,
		Timeout:                *f.timeout,
	}
	if version != "" {
		transport.UserAgent = "app-token/" + version
	}
	return github.New(inputs.AppID, inputs.PrivateKey,
		github.WithTransport(transport),
		github.WithAssertionValidity(*f.assertionValidity),
	)
}

func defaultHost(configFile, stateFile string) (apptoken.Host, error) {
	if configFile == "" {
		return actions.New(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %s", err)
	}
	inputs, err := cfg.Inputs()
	if err != nil {
		return nil, err
	}
	return local.New(inputs, stateFile, os.Stdout)
}

func defaultLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	// Disable entries like: "caller":"autoapprover/autoapprover.go:97"
	config.DisableCaller = true

	// Disable logging the stack trace
	config.DisableStacktrace = true

	// Format timestamps as RFC3339 strings
	// Adapted from: https://github.com/uber-go/zap/issues/661#issuecomment-520686037
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoder(
		func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339))
		},
	)

	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}
