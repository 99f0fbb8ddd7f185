package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Gateway fronts an ordered list of generation providers. The first provider
// is primary; on a transient failure the next one is tried exactly once. All
// outbound calls pass through a shared rate limiter.
type Gateway struct {
	providers []Provider
	limiter   *RateLimiter
	log       *zap.Logger
}

// NewGateway builds a gateway from the preferred provider and its fallback.
// If the preferred provider lacks a credential the fallback is promoted to
// primary; providers without credentials are dropped entirely, so a gateway
// may end up with no providers at all (degraded mode).
func NewGateway(preferred, fallback Provider, limiter *RateLimiter, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}

	ordered := make([]Provider, 0, 2)
	for _, p := range []Provider{preferred, fallback} {
		if p == nil {
			continue
		}
		if !p.Available() {
			log.Warn("generation provider has no credential, skipping",
				zap.String("provider", p.Name()))
			continue
		}
		ordered = append(ordered, p)
	}

	if len(ordered) > 0 {
		log.Info("generation gateway ready",
			zap.String("primary", ordered[0].Name()),
			zap.Int("providers", len(ordered)))
	} else {
		log.Warn("no generation provider available, running in degraded mode")
	}

	return &Gateway{providers: ordered, limiter: limiter, log: log}
}

// Degraded reports whether the gateway has no usable providers.
func (g *Gateway) Degraded() bool {
	return len(g.providers) == 0
}

// Primary returns the name of the current primary provider, or "" when degraded.
func (g *Gateway) Primary() string {
	if len(g.providers) == 0 {
		return ""
	}
	return g.providers[0].Name()
}

// Complete runs the request through the fallback chain: primary first, then
// the secondary exactly once when the failure is classified as transient.
// The returned error is always either ErrNoProviders or a *ProviderError.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if len(g.providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr *ProviderError
	for i, p := range g.providers {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, Classify(p.Name(), err)
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = Classify(p.Name(), err)
		g.log.Warn("generation attempt failed",
			zap.String("provider", p.Name()),
			zap.String("kind", lastErr.Kind.String()),
			zap.Error(lastErr.Err))

		// Only transient failures justify burning the secondary attempt,
		// and never more than one fallback hop.
		if !lastErr.Transient() || i >= 1 {
			break
		}
	}

	return nil, lastErr
}

// IsNoProviders reports whether err means the gateway is degraded.
func IsNoProviders(err error) bool {
	return errors.Is(err, ErrNoProviders)
}
