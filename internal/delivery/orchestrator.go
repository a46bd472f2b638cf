// Package delivery implements the send orchestration: pick the primary
// carrier from cached settings, attempt it, and fall back at most once.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/metrics"
	"github.com/reachcraft/messaging/internal/provider"
	"github.com/reachcraft/messaging/internal/settings"
)

// Attempt records one try against one carrier.
type Attempt struct {
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Result aggregates an ordered attempt list and the final outcome of one
// orchestrated send. It is created per call and only ever appended to the
// audit log, never mutated afterwards.
type Result struct {
	Success      bool      `json:"success"`
	Provider     string    `json:"provider,omitempty"`
	MessageID    string    `json:"message_id,omitempty"`
	FallbackUsed bool      `json:"fallback_used"`
	Attempts     []Attempt `json:"attempts"`
	Error        string    `json:"error,omitempty"`

	// NotConfigured marks the no-usable-provider case: a configuration
	// problem, distinct from a carrier failure.
	NotConfigured bool `json:"not_configured,omitempty"`
}

// SettingsSource yields the current provider selection policy.
type SettingsSource interface {
	Get(ctx context.Context) settings.ProviderSettings
}

// Orchestrator resolves which carrier handles a send and drives fallback.
type Orchestrator struct {
	settings SettingsSource
	registry *provider.Registry
	avail    provider.AvailabilityChecker
	logger   *zap.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(src SettingsSource, registry *provider.Registry, avail provider.AvailabilityChecker, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		settings: src,
		registry: registry,
		avail:    avail,
		logger:   logger,
	}
}

// Send normalizes the destination and delivers the body via the primary
// carrier, falling back at most once. Exactly one carrier is attempted on
// the success path; the attempts list is complete and ordered for audit.
func (o *Orchestrator) Send(ctx context.Context, destination, body string) Result {
	cfg := o.settings.Get(ctx)
	to := provider.NormalizeE164(destination)

	primary := cfg.PrimaryProvider
	fallback := o.pickFallback(cfg, primary)

	if !o.usable(cfg, primary) {
		// Unavailability is treated the same as a runtime error for
		// fallback eligibility; only the enable-fallback switch gates it.
		if cfg.EnableFallback && fallback != "" {
			res := o.attempt(ctx, fallback, to, body, nil)
			res.FallbackUsed = true
			return res
		}

		o.logger.Error("no usable sms provider",
			zap.String("primary", primary),
			zap.Bool("enable_fallback", cfg.EnableFallback),
		)
		metrics.RecordSendAttempt("none", "not_configured")
		return Result{
			NotConfigured: true,
			Attempts:      []Attempt{},
			Error: fmt.Sprintf("no usable SMS provider: %s is unavailable and no fallback is configured (known carriers: %s)",
				primary, strings.Join(provider.KnownCarriers(), ", ")),
		}
	}

	res := o.attempt(ctx, primary, to, body, nil)
	if res.Success {
		return res
	}

	primaryAttempt := res.Attempts[0]

	if cfg.EnableFallback && cfg.FallbackOnError && fallback != "" {
		metrics.RecordFallback(primary, fallback)
		o.logger.Warn("primary provider failed, attempting fallback",
			zap.String("primary", primary),
			zap.String("fallback", fallback),
			zap.String("error", primaryAttempt.Error),
		)

		res = o.attempt(ctx, fallback, to, body, []Attempt{primaryAttempt})
		res.FallbackUsed = true
		if !res.Success {
			res.Error = fmt.Sprintf("all providers failed: %s (%s); %s (%s)",
				primary, primaryAttempt.Error, fallback, res.Attempts[1].Error)
		}
		return res
	}

	return res
}

// attempt runs one carrier call and folds it into a Result. prior carries
// attempts already made this send.
func (o *Orchestrator) attempt(ctx context.Context, carrier, to, body string, prior []Attempt) Result {
	sender, err := o.registry.Get(carrier)
	if err != nil {
		// usable() filters unregistered carriers; this guards direct calls.
		att := Attempt{Provider: carrier, Error: err.Error()}
		return Result{
			Attempts: append(prior, att),
			Error:    fmt.Sprintf("%s: %s", carrier, err.Error()),
		}
	}

	sr := sender.Send(ctx, to, body)
	att := Attempt{Provider: carrier, Success: sr.Success, Error: sr.Error}
	attempts := append(prior, att)

	if !sr.Success {
		metrics.RecordSendAttempt(carrier, "failure")
		return Result{
			Attempts: attempts,
			Error:    fmt.Sprintf("%s: %s", carrier, sr.Error),
		}
	}

	metrics.RecordSendAttempt(carrier, "success")
	return Result{
		Success:   true,
		Provider:  carrier,
		MessageID: sr.MessageID,
		Attempts:  attempts,
	}
}

// usable reports whether a carrier is enabled in settings, registered, and
// has process credentials.
func (o *Orchestrator) usable(cfg settings.ProviderSettings, carrier string) bool {
	return cfg.Enabled(carrier) && o.registry.Has(carrier) && o.avail.Available(carrier)
}

// pickFallback returns the first usable registered carrier other than the
// primary, in registration order, or "" when none qualifies.
func (o *Orchestrator) pickFallback(cfg settings.ProviderSettings, primary string) string {
	for _, name := range o.registry.Names() {
		if name == primary {
			continue
		}
		if o.usable(cfg, name) {
			return name
		}
	}
	return ""
}
