package services

import (
	"strings"

	"github.com/jiaming2012/ig-trading/src/models"
)

// Defaults carries the configuration-scoped values applied during
// normalization.
type Defaults struct {
	Currency string
	Expiry   string
}

func (d Defaults) withFallbacks() Defaults {
	if d.Currency == "" {
		d.Currency = "EUR"
	}
	if d.Expiry == "" {
		d.Expiry = "-"
	}
	return d
}

// Normalize maps an inbound instruction to a canonical broker order. It is a
// pure transform: the same instruction always yields the same request, and
// the instruction itself is never mutated.
//
// CLOSE_LONG and CLOSE_SHORT fully determine direction and force_open; values
// supplied in the instruction are ignored for those actions.
func Normalize(in *models.Instruction, defaults Defaults) (*models.OrderRequest, error) {
	defaults = defaults.withFallbacks()

	epic := strings.TrimSpace(in.Epic)
	if epic == "" {
		return nil, &models.ValidationError{Field: "epic", Message: "required"}
	}

	req := &models.OrderRequest{
		Epic:                  epic,
		Size:                  in.Size.FloatOr(1),
		Level:                 in.Level.Ptr(),
		LimitDistance:         in.LimitDistance.Ptr(),
		LimitLevel:            in.LimitLevel.Ptr(),
		StopDistance:          in.StopDistance.Ptr(),
		StopLevel:             in.StopLevel.Ptr(),
		GuaranteedStop:        in.GuaranteedStop.BoolOr(false),
		TrailingStop:          in.TrailingStop.BoolOr(false),
		TrailingStopIncrement: in.TrailingStopIncrement.Ptr(),
		CurrencyCode:          stringOr(in.CurrencyCode, defaults.Currency),
		Expiry:                stringOr(in.Expiry, defaults.Expiry),
		TimeInForce:           strings.TrimSpace(in.TimeInForce),
		GoodTillDate:          strings.TrimSpace(in.GoodTillDate),
		QuoteID:               strings.TrimSpace(in.QuoteID),
	}

	switch in.ResolvedAction() {
	case models.ActionCloseLong:
		req.Direction = models.DirectionSell
		req.ForceOpen = false
	case models.ActionCloseShort:
		req.Direction = models.DirectionBuy
		req.ForceOpen = false
	default:
		direction := strings.ToUpper(strings.TrimSpace(in.Direction))
		if direction == "" {
			return nil, &models.ValidationError{Field: "direction", Message: "required for OPEN orders"}
		}

		req.Direction = models.Direction(direction)
		req.ForceOpen = in.ForceOpen.BoolOr(true)
	}

	switch orderType := strings.ToUpper(stringOr(in.OrderType, string(models.OrderTypeMarket))); models.OrderType(orderType) {
	case models.OrderTypeMarket:
		req.OrderType = models.OrderTypeMarket
	case models.OrderTypeLimit:
		if req.Level == nil {
			return nil, &models.ValidationError{Field: "level", Message: "required for LIMIT orders"}
		}
		req.OrderType = models.OrderTypeLimit
	default:
		return nil, &models.ValidationError{Field: "order_type", Message: "must be MARKET or LIMIT"}
	}

	if req.Size <= 0 {
		return nil, &models.ValidationError{Field: "size", Message: "must be positive"}
	}

	return req, nil
}

func stringOr(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
