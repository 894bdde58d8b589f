package models

import "strings"

type Action string

const (
	ActionOpen       Action = "OPEN"
	ActionCloseLong  Action = "CLOSE_LONG"
	ActionCloseShort Action = "CLOSE_SHORT"
)

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Instruction is the decoded body of a TradingView alert webhook. Field types
// are deliberately loose: alert templates interpolate placeholders as strings,
// so numbers and booleans arrive in whatever shape the user configured.
type Instruction struct {
	// AlertID is optional; when set, repeated deliveries of the same alert are
	// deduplicated at the HTTP layer.
	AlertID string `json:"alert_id"`

	// Secret is an alternative to the X-Webhook-Secret header for sources that
	// cannot set custom headers.
	Secret string `json:"secret"`

	Action    string  `json:"action"`
	Epic      string  `json:"epic"`
	Direction string  `json:"direction"`
	Size      Decimal `json:"size"`
	OrderType string  `json:"order_type"`
	Level     Decimal `json:"level"`

	LimitDistance         Decimal `json:"limit_distance"`
	LimitLevel            Decimal `json:"limit_level"`
	StopDistance          Decimal `json:"stop_distance"`
	StopLevel             Decimal `json:"stop_level"`
	GuaranteedStop        Flag    `json:"guaranteed_stop"`
	TrailingStop          Flag    `json:"trailing_stop"`
	TrailingStopIncrement Decimal `json:"trailing_stop_increment"`
	ForceOpen             Flag    `json:"force_open"`

	CurrencyCode string `json:"currency_code"`
	Expiry       string `json:"expiry"`
	TimeInForce  string `json:"time_in_force"`
	GoodTillDate string `json:"good_till_date"`
	QuoteID      string `json:"quote_id"`
}

// ResolvedAction returns the upper-cased action, defaulting to OPEN. Unknown
// actions resolve to OPEN so that alert templates which only ever send
// direction changes keep working.
func (i *Instruction) ResolvedAction() Action {
	switch strings.ToUpper(strings.TrimSpace(i.Action)) {
	case string(ActionCloseLong):
		return ActionCloseLong
	case string(ActionCloseShort):
		return ActionCloseShort
	default:
		return ActionOpen
	}
}
