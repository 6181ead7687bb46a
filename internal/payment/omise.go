package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// requestTimeout caps a single SDK request. call stops waiting when the
// caller's context ends, but the request goroutine lives until this fires.
const requestTimeout = 30 * time.Second

const refundPageSize = 100

// OmiseGateway implements Gateway on top of omise-go. References are
// Omise charge ids (chrg_...).
type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	c.Client.Timeout = requestTimeout
	return &OmiseGateway{client: c}, nil
}

func (g *OmiseGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Charge, error) {
	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    strings.ToLower(req.Currency),
		Card:        req.Token,
		DontCapture: true,
		Metadata:    req.Metadata,
	}
	if err := g.call(ctx, func() error { return g.client.Do(ch, op) }); err != nil {
		return nil, translate("authorize", err)
	}

	if string(ch.Status) == "failed" || string(ch.Status) == "expired" {
		return nil, chargeFailure("authorize", ch)
	}
	return toCharge(ch), nil
}

func (g *OmiseGateway) Lookup(ctx context.Context, reference string) (*Charge, error) {
	ch, err := g.retrieve(ctx, reference)
	if err != nil {
		return nil, translate("lookup", err)
	}
	return toCharge(ch), nil
}

func (g *OmiseGateway) Capture(ctx context.Context, reference string) (*Charge, error) {
	ch, err := g.retrieve(ctx, reference)
	if err != nil {
		return nil, translate("capture", err)
	}

	switch string(ch.Status) {
	case "successful":
		return toCharge(ch), nil
	case "pending":
		if !ch.Authorized {
			return nil, &ProviderError{Op: "capture", Code: "not_authorized", Message: "charge is not authorized yet", Kind: ErrDeclined}
		}
	default:
		return nil, chargeFailure("capture", ch)
	}

	captured := &omise.Charge{}
	err = g.call(ctx, func() error {
		return g.client.Do(captured, &operations.CaptureCharge{ChargeID: reference})
	})
	if err != nil {
		return nil, translate("capture", err)
	}
	if string(captured.Status) != "successful" {
		return nil, chargeFailure("capture", captured)
	}
	return toCharge(captured), nil
}

// Refund looks for an earlier refund carrying the same idempotency key
// before creating one. Omise stores the key as metadata only.
func (g *OmiseGateway) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if req.IdempotencyKey != "" {
		prior, err := g.findRefund(ctx, req.Reference, req.IdempotencyKey)
		if err != nil {
			return nil, translate("refund", err)
		}
		if prior != nil {
			return &Refund{ID: prior.ID, Reference: req.Reference, Amount: prior.Amount}, nil
		}
	}

	amount := req.Amount
	if amount == 0 {
		ch, err := g.retrieve(ctx, req.Reference)
		if err != nil {
			return nil, translate("refund", err)
		}
		amount = ch.Amount
	}

	metadata := make(map[string]interface{}, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.IdempotencyKey != "" {
		metadata["idempotency_key"] = req.IdempotencyKey
	}

	r := &omise.Refund{}
	err := g.call(ctx, func() error {
		return g.client.Do(r, &operations.CreateRefund{
			ChargeID: req.Reference,
			Amount:   amount,
			Metadata: metadata,
		})
	})
	if err != nil {
		return nil, translate("refund", err)
	}
	return &Refund{ID: r.ID, Reference: req.Reference, Amount: r.Amount}, nil
}

func (g *OmiseGateway) retrieve(ctx context.Context, reference string) (*omise.Charge, error) {
	ch := &omise.Charge{}
	err := g.call(ctx, func() error {
		return g.client.Do(ch, &operations.RetrieveCharge{ChargeID: reference})
	})
	return ch, err
}

// findRefund pages through the charge's refunds, newest first, and returns
// the one created under key, or nil.
func (g *OmiseGateway) findRefund(ctx context.Context, chargeID, key string) (*omise.Refund, error) {
	offset := 0
	for {
		list := &omise.RefundList{}
		err := g.call(ctx, func() error {
			return g.client.Do(list, &operations.ListRefunds{
				ChargeID: chargeID,
				List: operations.List{
					Offset: offset,
					Limit:  refundPageSize,
					Order:  omise.ReverseChronological,
				},
			})
		})
		if err != nil {
			return nil, err
		}
		if r := matchRefund(list.Data, key); r != nil {
			return r, nil
		}

		offset += len(list.Data)
		if len(list.Data) == 0 || offset >= list.Total {
			return nil, nil
		}
	}
}

func matchRefund(refunds []*omise.Refund, key string) *omise.Refund {
	for _, r := range refunds {
		if r == nil {
			continue
		}
		if k, _ := r.Metadata["idempotency_key"].(string); k == key {
			return r
		}
	}
	return nil
}

// call runs a blocking SDK request and gives up when ctx is done. The
// request itself cannot be aborted; its result is discarded and its
// goroutine exits when the client timeout fires at the latest.
func (g *OmiseGateway) call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toCharge(ch *omise.Charge) *Charge {
	status := StatusAuthorized
	if string(ch.Status) == "successful" {
		status = StatusCaptured
	}
	return &Charge{
		Reference: ch.ID,
		Amount:    ch.Amount,
		Currency:  ch.Currency,
		Status:    status,
		Metadata:  ch.Metadata,
	}
}

func chargeFailure(op string, ch *omise.Charge) error {
	pe := &ProviderError{Op: op, Code: string(ch.Status), Message: "charge " + string(ch.Status), Kind: ErrDeclined}
	if ch.FailureCode != nil {
		pe.Code = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		pe.Message = *ch.FailureMessage
	}
	return pe
}

func translate(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Op: op, Code: "timeout", Message: err.Error(), Kind: ErrUnavailable}
	}

	var apiErr *omise.Error
	if errors.As(err, &apiErr) {
		pe := &ProviderError{Op: op, Code: apiErr.Code, Message: apiErr.Message, Kind: ErrDeclined}
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			pe.Kind = ErrNotFound
		case apiErr.StatusCode >= http.StatusInternalServerError:
			pe.Kind = ErrUnavailable
		}
		return pe
	}
	return &ProviderError{Op: op, Code: "transport", Message: err.Error(), Kind: ErrUnavailable}
}
