package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/ig"
	"github.com/jiaming2012/ig-trading/src/models"
)

// positionOpener builds the OTC open-position payload for one version of the
// IG dealing API. The endpoint's payload shape has changed across versions;
// candidates are tried in order until one is accepted.
type positionOpener interface {
	Name() string
	Version() string
	// SendsReference reports whether this convention carries the client-side
	// deal reference in its payload.
	SendsReference() bool
	Payload(req *models.OrderRequest, dealReference string) map[string]interface{}
}

// Submitter issues canonical orders against whichever payload convention the
// live gateway accepts.
type Submitter struct {
	openers []positionOpener
}

func NewSubmitter() *Submitter {
	return &Submitter{
		openers: []positionOpener{otcOpenerV2{}, otcOpenerV1{}},
	}
}

// NewDealReference generates a client-side deal reference. IG accepts up to
// 30 characters from [A-Za-z0-9_-].
func NewDealReference() string {
	return "TV" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:28]
}

// Submit tries each payload convention in turn. A validation refusal moves on
// to the next candidate; any other gateway error is a genuine broker-side
// outcome and is returned as-is, never retried. Exhausting all candidates
// yields a SubmissionError carrying the last refusal and payload.
func (s *Submitter) Submit(ctx context.Context, client *ig.Client, req *models.OrderRequest) (*models.SubmissionResult, error) {
	dealReference := NewDealReference()

	var lastErr error
	var lastPayload map[string]interface{}

	for _, opener := range s.openers {
		payload := opener.Payload(req, dealReference)

		body, code, err := client.CreateOTCPosition(ctx, opener.Version(), payload)
		if err == nil {
			return &models.SubmissionResult{
				DealReference: dealReferenceFrom(body, opener, dealReference),
				StatusCode:    code,
				Raw:           body,
			}, nil
		}

		var apiErr *ig.APIError
		if errors.As(err, &apiErr) && apiErr.InputInvalid() {
			log.Warnf("Submitter.Submit: %s payload refused (%v), trying next convention", opener.Name(), apiErr)
			lastErr = err
			lastPayload = payload
			continue
		}

		return nil, fmt.Errorf("Submitter.Submit: %w", err)
	}

	return nil, &models.SubmissionError{Payload: lastPayload, Err: lastErr}
}

// dealReferenceFrom prefers the reference echoed by the gateway, falling back
// to the reference we sent when the convention carried one.
func dealReferenceFrom(body map[string]interface{}, opener positionOpener, sent string) string {
	if ref, ok := body["dealReference"].(string); ok && ref != "" {
		return ref
	}

	if opener.SendsReference() {
		return sent
	}

	return ""
}

// otcOpenerV2 is the current dealing API payload: carries the client deal
// reference, currency code, and trailing stop fields.
type otcOpenerV2 struct{}

func (otcOpenerV2) Name() string         { return "otc-v2" }
func (otcOpenerV2) Version() string      { return "2" }
func (otcOpenerV2) SendsReference() bool { return true }

func (otcOpenerV2) Payload(req *models.OrderRequest, dealReference string) map[string]interface{} {
	p := map[string]interface{}{
		"epic":           req.Epic,
		"expiry":         req.Expiry,
		"direction":      string(req.Direction),
		"size":           req.Size,
		"orderType":      string(req.OrderType),
		"guaranteedStop": req.GuaranteedStop,
		"trailingStop":   req.TrailingStop,
		"forceOpen":      req.ForceOpen,
		"currencyCode":   req.CurrencyCode,
		"dealReference":  dealReference,
	}

	putFloat(p, "level", req.Level)
	putFloat(p, "limitDistance", req.LimitDistance)
	putFloat(p, "limitLevel", req.LimitLevel)
	putFloat(p, "stopDistance", req.StopDistance)
	putFloat(p, "stopLevel", req.StopLevel)
	putFloat(p, "trailingStopIncrement", req.TrailingStopIncrement)
	putString(p, "timeInForce", req.TimeInForce)
	putString(p, "goodTillDate", req.GoodTillDate)

	return p
}

// otcOpenerV1 is the legacy payload: no client deal reference or trailing
// stop support, but it accepts a quoteId.
type otcOpenerV1 struct{}

func (otcOpenerV1) Name() string         { return "otc-v1" }
func (otcOpenerV1) Version() string      { return "1" }
func (otcOpenerV1) SendsReference() bool { return false }

func (otcOpenerV1) Payload(req *models.OrderRequest, _ string) map[string]interface{} {
	p := map[string]interface{}{
		"epic":           req.Epic,
		"expiry":         req.Expiry,
		"direction":      string(req.Direction),
		"size":           req.Size,
		"orderType":      string(req.OrderType),
		"guaranteedStop": req.GuaranteedStop,
		"forceOpen":      req.ForceOpen,
		"currencyCode":   req.CurrencyCode,
	}

	putFloat(p, "level", req.Level)
	putFloat(p, "limitDistance", req.LimitDistance)
	putFloat(p, "limitLevel", req.LimitLevel)
	putFloat(p, "stopDistance", req.StopDistance)
	putFloat(p, "stopLevel", req.StopLevel)
	putString(p, "timeInForce", req.TimeInForce)
	putString(p, "goodTillDate", req.GoodTillDate)
	putString(p, "quoteId", req.QuoteID)

	return p
}

func putFloat(p map[string]interface{}, key string, v *float64) {
	if v != nil {
		p[key] = *v
	}
}

func putString(p map[string]interface{}, key, v string) {
	if v != "" {
		p[key] = v
	}
}
