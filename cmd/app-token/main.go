package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin"
	"github.com/aws/aws-sdk-go/aws/session"
	environment "github.com/telia-oss/aws-env"

	"github.com/telia-oss/apptoken/internal/cli"
)

var version string

func main() {
	var (
		app               = kingpin.New("app-token", "Issue GitHub App installation access tokens.").Version(version).UsageWriter(os.Stdout).ErrorWriter(os.Stdout).DefaultEnvars()
		resolveAWSSecrets = app.Flag("resolve-aws-secrets", "Exchange sm:// and ssm:// references in environment variables with their values").Bool()
	)
	app.PreAction(func(_ *kingpin.ParseContext) error {
		if !*resolveAWSSecrets {
			return nil
		}
		return populateEnvironment()
	})
	cli.Setup(app, cli.Options{Version: version})
	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// populateEnvironment exchanges secrets in environment variables (e.g.
// INPUT_PRIVATE_KEY=sm://github-app-key) with their values.
func populateEnvironment() error {
	sess, err := session.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create a new session: %s", err)
	}
	env, err := environment.New(sess)
	if err != nil {
		return fmt.Errorf("failed to initialize aws-env: %s", err)
	}
	if err := env.Populate(); err != nil {
		return fmt.Errorf("failed to populate environment: %s", err)
	}
	return nil
}
