// Package actions implements an apptoken.Host for the GitHub Actions runner.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/telia-oss/apptoken"
)

// Environment variables set by the runner.
const (
	OutputFileEnv = "GITHUB_OUTPUT"
	StateFileEnv  = "GITHUB_STATE"
)

var _ apptoken.Host = &Host{}

// New returns a Host that reads the process environment and writes workflow commands to stdout.
func New(options ...Option) *Host {
	h := &Host{
		getenv: os.Getenv,
		stdout: os.Stdout,
	}
	for _, optionFunc := range options {
		optionFunc(h)
	}
	return h
}

// Option for the host.
type Option func(*Host)

// WithGetenv sets the function used to look up environment variables.
func WithGetenv(getenv func(string) string) Option {
	return func(h *Host) {
		h.getenv = getenv
	}
}

// WithStdout sets the writer that workflow commands are written to.
func WithStdout(w io.Writer) Option {
	return func(h *Host) {
		h.stdout = w
	}
}

// Host talks to the runner through environment variables, environment
// files and workflow commands.
type Host struct {
	getenv func(string) string
	stdout io.Writer
}

// Input implements apptoken.Host.
func (h *Host) Input(name string) string {
	return strings.TrimSpace(h.getenv(inputEnv(name)))
}

// SetOutput implements apptoken.Host.
func (h *Host) SetOutput(name, value string) error {
	return h.command(OutputFileEnv, "set-output", name, value)
}

// SaveState implements apptoken.Host.
func (h *Host) SaveState(name, value string) error {
	return h.command(StateFileEnv, "save-state", name, value)
}

// State implements apptoken.Host. The runner exposes state saved by the
// main phase as STATE_<name> during the post phase.
func (h *Host) State(name string) string {
	return h.getenv("STATE_" + name)
}

// SetSecret implements apptoken.Host.
func (h *Host) SetSecret(value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(h.stdout, "::add-mask::%s\n", escapeData(value))
}

// command appends to the environment file named by env, or falls back to
// the legacy workflow command when the runner does not provide one.
func (h *Host) command(env, legacy, name, value string) error {
	file := h.getenv(env)
	if file == "" {
		_, err := fmt.Fprintf(h.stdout, "::%s name=%s::%s\n", legacy, escapeProperty(name), escapeData(value))
		return err
	}
	entry, err := fileCommand(name, value)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", env, err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, entry); err != nil {
		return fmt.Errorf("write %s: %w", env, err)
	}
	return nil
}

func fileCommand(name, value string) (string, error) {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return "", fmt.Errorf("%s: value contains the delimiter", name)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter), nil
}

func inputEnv(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
