package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/ig"
	"github.com/jiaming2012/ig-trading/src/models"
)

const DefaultRequestTimeout = 30 * time.Second

// OrderService runs the order lifecycle: normalize the instruction, submit it
// through the live session, and merge in the deal confirmation. Every outcome
// is reported as a structured Result; errors never escape this boundary.
type OrderService struct {
	sessions       *SessionService
	submitter      *Submitter
	defaults       Defaults
	requestTimeout time.Duration
}

func NewOrderService(sessions *SessionService, defaults Defaults, requestTimeout time.Duration) *OrderService {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return &OrderService{
		sessions:       sessions,
		submitter:      NewSubmitter(),
		defaults:       defaults,
		requestTimeout: requestTimeout,
	}
}

// PlaceOrder executes one instruction end to end.
func (o *OrderService) PlaceOrder(ctx context.Context, instr *models.Instruction) *models.Result {
	req, err := Normalize(instr, o.defaults)
	if err != nil {
		return errorResult(err)
	}

	client, err := o.sessions.Ensure(ctx)
	if err != nil {
		return errorResult(err)
	}

	// Deadline covers submission plus confirmation so a hung gateway call
	// cannot block the caller indefinitely.
	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	defer cancel()

	sub, err := o.submitter.Submit(ctx, client, req)
	if err != nil {
		var apiErr *ig.APIError
		if errors.As(err, &apiErr) && apiErr.TokenInvalid() {
			// The gateway refused the tokens, so the order was never placed
			// and one retry on a fresh session is safe.
			log.Warn("OrderService.PlaceOrder: session tokens rejected, re-authenticating")
			o.sessions.Invalidate()

			client, err = o.sessions.Ensure(ctx)
			if err != nil {
				return errorResult(err)
			}

			sub, err = o.submitter.Submit(ctx, client, req)
		}

		if err != nil {
			return errorResult(err)
		}
	}

	confirm := ResolveConfirmation(ctx, client, sub.DealReference)

	log.WithField("dealReference", sub.DealReference).Infof("OrderService.PlaceOrder: %s %s %v submitted", req.Direction, req.Epic, req.Size)

	return &models.Result{
		Status:        models.ResultStatusSuccess,
		DealReference: sub.DealReference,
		StatusCode:    sub.StatusCode,
		Raw:           sub.Raw,
		Confirm:       confirm,
	}
}

// CloseByLookup closes the open position on the given epic by submitting the
// opposite direction at MARKET, sized to the request. Returns an error result
// when no position is open on the epic.
func (o *OrderService) CloseByLookup(ctx context.Context, epic string, size float64) *models.Result {
	if epic == "" {
		return errorResult(&models.ValidationError{Field: "epic", Message: "required"})
	}

	client, err := o.sessions.Ensure(ctx)
	if err != nil {
		return errorResult(err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	defer cancel()

	positions, err := client.FetchOpenPositions(ctx)
	if err != nil {
		return errorResult(err)
	}

	var open *ig.OpenPosition
	for i := range positions.Positions {
		if positions.Positions[i].Market.Epic == epic {
			open = &positions.Positions[i]
			break
		}
	}

	if open == nil {
		return errorResult(fmt.Errorf("no open position on epic %s", epic))
	}

	closeDirection := models.DirectionSell
	if models.Direction(open.Position.Direction) == models.DirectionSell {
		closeDirection = models.DirectionBuy
	}

	if size <= 0 {
		size = open.Position.Size
	}

	body, err := client.CloseOTCPosition(ctx, map[string]interface{}{
		"dealId":    open.Position.DealID,
		"direction": string(closeDirection),
		"size":      size,
		"orderType": string(models.OrderTypeMarket),
	})
	if err != nil {
		return errorResult(err)
	}

	dealReference, _ := body["dealReference"].(string)
	confirm := ResolveConfirmation(ctx, client, dealReference)

	return &models.Result{
		Status:        models.ResultStatusSuccess,
		DealReference: dealReference,
		Raw:           body,
		Confirm:       confirm,
	}
}

// errorResult mirrors the gateway's error taxonomy into the response shape:
// error names the class of failure, reason carries the message.
func errorResult(err error) *models.Result {
	res := &models.Result{
		Status: models.ResultStatusError,
		Reason: err.Error(),
	}

	var validationErr *models.ValidationError
	var submissionErr *models.SubmissionError

	switch {
	case errors.Is(err, models.MissingCredentialsErr):
		res.Error = "CredentialsMissing"
	case errors.As(err, &validationErr):
		res.Error = "ValidationError"
	case errors.As(err, &submissionErr):
		res.Error = "SubmissionFailed"
		res.Payload = submissionErr.Payload
	default:
		res.Error = "BrokerError"
	}

	return res
}
