package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DeclineToken makes MemoryGateway decline an authorization.
const DeclineToken = "tok_decline"

// MemoryGateway is an in-process Gateway for local development and tests.
type MemoryGateway struct {
	mu        sync.Mutex
	seq       int
	charges   map[string]*Charge
	refunded  map[string]bool
	refunds   map[string]*Refund
	refundErr error
	calls     map[string]int
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		charges:  make(map[string]*Charge),
		refunded: make(map[string]bool),
		refunds:  make(map[string]*Refund),
		calls:    make(map[string]int),
	}
}

// AddCaptured registers a charge as already captured.
func (g *MemoryGateway) AddCaptured(reference string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges[reference] = &Charge{Reference: reference, Amount: amount, Currency: "myr", Status: StatusCaptured}
}

// FailRefunds makes every following Refund fail with err; nil restores.
func (g *MemoryGateway) FailRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

// Calls reports how many times op reached the gateway.
func (g *MemoryGateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *MemoryGateway) Refunded(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunded[reference]
}

func (g *MemoryGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["authorize"]++

	if req.Amount <= 0 || req.Currency == "" || req.Token == "" {
		return nil, &ProviderError{Op: "authorize", Code: "invalid_request", Message: "amount, currency and token are required", Kind: ErrDeclined}
	}
	if req.Token == DeclineToken {
		return nil, &ProviderError{Op: "authorize", Code: "insufficient_fund", Message: "card declined", Kind: ErrDeclined}
	}

	g.seq++
	ch := &Charge{
		Reference: fmt.Sprintf("chrg_mem_%d", g.seq),
		Amount:    req.Amount,
		Currency:  strings.ToLower(req.Currency),
		Status:    StatusAuthorized,
		Metadata:  copyMetadata(req.Metadata),
	}
	g.charges[ch.Reference] = ch
	out := *ch
	return &out, nil
}

func (g *MemoryGateway) Lookup(ctx context.Context, reference string) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["lookup"]++

	ch, ok := g.charges[reference]
	if !ok {
		return nil, &ProviderError{Op: "lookup", Code: "not_found", Message: "charge " + reference + " was not found", Kind: ErrNotFound}
	}
	out := *ch
	return &out, nil
}

func (g *MemoryGateway) Capture(ctx context.Context, reference string) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["capture"]++

	ch, ok := g.charges[reference]
	if !ok {
		return nil, &ProviderError{Op: "capture", Code: "not_found", Message: "charge " + reference + " was not found", Kind: ErrNotFound}
	}
	if ch.Status == StatusFailed || g.refunded[reference] {
		return nil, &ProviderError{Op: "capture", Code: "failed_capture", Message: "charge cannot be captured", Kind: ErrDeclined}
	}
	ch.Status = StatusCaptured
	out := *ch
	return &out, nil
}

func (g *MemoryGateway) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["refund"]++

	if req.IdempotencyKey != "" {
		if r, ok := g.refunds[req.IdempotencyKey]; ok {
			out := *r
			return &out, nil
		}
	}
	if g.refundErr != nil {
		return nil, g.refundErr
	}

	ch, ok := g.charges[req.Reference]
	if !ok {
		return nil, &ProviderError{Op: "refund", Code: "not_found", Message: "charge " + req.Reference + " was not found", Kind: ErrNotFound}
	}
	if g.refunded[req.Reference] {
		return nil, &ProviderError{Op: "refund", Code: "failed_refund", Message: "charge has already been refunded", Kind: ErrDeclined}
	}

	amount := req.Amount
	if amount == 0 {
		amount = ch.Amount
	}
	if amount > ch.Amount {
		return nil, &ProviderError{Op: "refund", Code: "invalid_amount", Message: "refund exceeds charge amount", Kind: ErrDeclined}
	}

	g.seq++
	r := &Refund{ID: fmt.Sprintf("rfnd_mem_%d", g.seq), Reference: req.Reference, Amount: amount}
	g.refunded[req.Reference] = true
	if req.IdempotencyKey != "" {
		g.refunds[req.IdempotencyKey] = r
	}
	out := *r
	return &out, nil
}

func copyMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
