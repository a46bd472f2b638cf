package circuitbreaker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/provider"
)

// ProtectedSender wraps a carrier sender with a CircuitBreaker. When a
// carrier starts failing, the circuit opens and sends fail fast as an
// errored SendResult, which the orchestrator treats like any other carrier
// failure, so fallback kicks in without waiting on a dead API.
type ProtectedSender struct {
	sender  provider.Sender
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewProtectedSender wraps a sender with circuit breaker protection.
func NewProtectedSender(sender provider.Sender, breaker *CircuitBreaker, logger *zap.Logger) *ProtectedSender {
	return &ProtectedSender{
		sender:  sender,
		breaker: breaker,
		logger:  logger,
	}
}

// Name delegates to the underlying sender.
func (p *ProtectedSender) Name() string {
	return p.sender.Name()
}

// Send attempts one carrier call through the circuit breaker. An open
// circuit is reported in the result's Error field, never as a panic or a
// Go error, keeping the sender contract intact.
func (p *ProtectedSender) Send(ctx context.Context, toE164, body string) provider.SendResult {
	if !p.breaker.Allow() {
		p.logger.Warn("circuit breaker rejected send",
			zap.String("carrier", p.sender.Name()),
			zap.String("state", p.breaker.GetState().String()),
		)
		return provider.SendResult{
			Error: fmt.Sprintf("%s: %v", p.sender.Name(), ErrCircuitOpen),
		}
	}

	result := p.sender.Send(ctx, toE164, body)
	if result.Success {
		p.breaker.RecordSuccess()
	} else {
		p.breaker.RecordFailure()
	}

	return result
}

// Breaker returns the underlying circuit breaker for metrics/monitoring.
func (p *ProtectedSender) Breaker() *CircuitBreaker {
	return p.breaker
}
