// Package provider holds the SMS carrier integrations and the registry
// that maps carrier names to sender implementations.
package provider

import (
	"context"
	"fmt"
	"sort"
)

// Carrier name constants
const (
	Twilio   = "twilio"
	TextGrid = "textgrid"
	SNS      = "sns"
)

// SendResult is the outcome of one carrier call. Carrier failures never
// surface as Go errors; they land in the Error field so the orchestrator
// can record and chain attempts.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sender is the uniform "send one message" contract every carrier satisfies.
type Sender interface {
	// Send submits one message to an E.164 destination.
	Send(ctx context.Context, toE164, body string) SendResult

	// Name returns the carrier name this sender is registered under.
	Name() string
}

// Registry maps carrier names to sender implementations. Adding a carrier
// is a registration, not an edit to orchestration logic.
type Registry struct {
	senders map[string]Sender
	order   []string
}

// NewRegistry creates an empty carrier registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register adds a sender under its carrier name. Re-registering a name
// replaces the previous sender.
func (r *Registry) Register(s Sender) {
	name := s.Name()
	if _, exists := r.senders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.senders[name] = s
}

// Get returns the sender for a carrier name.
func (r *Registry) Get(name string) (Sender, error) {
	s, ok := r.senders[name]
	if !ok {
		return nil, fmt.Errorf("no sender registered for carrier %q", name)
	}
	return s, nil
}

// Has reports whether a carrier name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.senders[name]
	return ok
}

// Names returns registered carrier names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// KnownCarriers returns the carriers this build understands, sorted.
func KnownCarriers() []string {
	names := []string{Twilio, TextGrid, SNS}
	sort.Strings(names)
	return names
}
