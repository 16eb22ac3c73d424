// Package inprocess implements an apptoken.Host in memory, and can be used for tests.
package inprocess

import (
	"github.com/telia-oss/apptoken"
)

var _ apptoken.Host = &Host{}

// New creates a new apptoken.Host with the given inputs.
func New(inputs map[string]string, options ...option) *Host {
	h := &Host{
		inputs:  make(map[string]string),
		outputs: make(map[string]string),
		state:   make(map[string]string),
	}
	for k, v := range inputs {
		h.inputs[k] = v
	}
	for _, optionFunc := range options {
		optionFunc(h)
	}
	return h
}

type option func(*Host)

// WithState seeds the state, e.g. as saved by a previous phase.
func WithState(state map[string]string) option {
	return func(h *Host) {
		for k, v := range state {
			h.state[k] = v
		}
	}
}

// Host keeps inputs, outputs, state and secrets in maps.
type Host struct {
	inputs  map[string]string
	outputs map[string]string
	state   map[string]string
	secrets []string
}

// Input implements apptoken.Host.
func (h *Host) Input(name string) string {
	return h.inputs[name]
}

// SetOutput implements apptoken.Host.
func (h *Host) SetOutput(name, value string) error {
	h.outputs[name] = value
	return nil
}

// SetSecret implements apptoken.Host.
func (h *Host) SetSecret(value string) {
	h.secrets = append(h.secrets, value)
}

// SaveState implements apptoken.Host.
func (h *Host) SaveState(name, value string) error {
	h.state[name] = value
	return nil
}

// State implements apptoken.Host.
func (h *Host) State(name string) string {
	return h.state[name]
}

// Outputs returns the outputs set so far.
func (h *Host) Outputs() map[string]string {
	return h.outputs
}

// SavedState returns the state saved so far.
func (h *Host) SavedState() map[string]string {
	return h.state
}

// Secrets returns the values registered as secrets, in order.
func (h *Host) Secrets() []string {
	return h.secrets
}
