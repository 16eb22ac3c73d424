// Package local implements an apptoken.Host for running outside the GitHub
// Actions runner. Outputs are written to stdout and state is kept in a JSON
// file so that the main and post phases can run as separate processes.
package local

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/telia-oss/apptoken"
)

var _ apptoken.Host = &Host{}

// New returns a local Host. State is loaded from file, which is created if it does not exist.
func New(inputs map[string]string, file string, stdout io.Writer) (*Host, error) {
	h := &Host{
		inputs: inputs,
		file:   file,
		stdout: stdout,
		state:  make(map[string]string),
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Host keeps inputs in memory and state in a file.
type Host struct {
	inputs map[string]string
	file   string
	stdout io.Writer
	state  map[string]string
}

// Input implements apptoken.Host.
func (h *Host) Input(name string) string {
	return h.inputs[name]
}

// SetOutput implements apptoken.Host.
func (h *Host) SetOutput(name, value string) error {
	_, err := fmt.Fprintf(h.stdout, "%s=%s\n", name, value)
	return err
}

// SetSecret implements apptoken.Host. There is nothing to mask outside the runner.
func (h *Host) SetSecret(string) {}

// SaveState implements apptoken.Host.
func (h *Host) SaveState(name, value string) error {
	h.state[name] = value
	return h.save()
}

// State implements apptoken.Host.
func (h *Host) State(name string) string {
	return h.state[name]
}

// Clear removes all saved state from the file.
func (h *Host) Clear() error {
	h.state = make(map[string]string)
	return h.save()
}

func (h *Host) load() error {
	if err := createFileIfNotExists(h.file); err != nil {
		return err
	}
	data, err := os.ReadFile(h.file)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &h.state); err != nil {
		return fmt.Errorf("state file: %s", err)
	}
	return nil
}

func (h *Host) save() error {
	o, err := json.Marshal(h.state)
	if err != nil {
		return err
	}
	return os.WriteFile(h.file, o, 0o600)
}

func createFileIfNotExists(file string) error {
	_, err := os.Stat(file)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("state file: %s", err)
		}
		return f.Close()
	}
	return err
}
