package models

// OrderRequest is the canonical, broker-shaped order: every Instruction field
// resolved to its final value, with nil for optional fields that were unset.
type OrderRequest struct {
	Epic                  string
	Expiry                string
	Direction             Direction
	Size                  float64
	OrderType             OrderType
	Level                 *float64
	LimitDistance         *float64
	LimitLevel            *float64
	StopDistance          *float64
	StopLevel             *float64
	GuaranteedStop        bool
	TrailingStop          bool
	TrailingStopIncrement *float64
	ForceOpen             bool
	CurrencyCode          string
	TimeInForce           string
	GoodTillDate          string
	QuoteID               string
}

// SubmissionResult is the normalized outcome of a position submission call.
type SubmissionResult struct {
	DealReference string
	StatusCode    int
	Raw           map[string]interface{}
}

// Confirmation is the broker's asynchronous accept/reject verdict for a
// submitted deal. Error is set instead of the other fields when the
// confirmation could not be fetched; by that point the order has already been
// transmitted, so a missing confirmation degrades the result rather than
// failing it.
type Confirmation struct {
	DealID        string  `json:"dealId,omitempty"`
	DealReference string  `json:"dealReference,omitempty"`
	DealStatus    string  `json:"dealStatus,omitempty"`
	Status        string  `json:"status,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	Epic          string  `json:"epic,omitempty"`
	Direction     string  `json:"direction,omitempty"`
	Size          float64 `json:"size,omitempty"`
	Level         float64 `json:"level,omitempty"`
	Error         string  `json:"error,omitempty"`
}

const (
	DealStatusAccepted = "ACCEPTED"
	DealStatusRejected = "REJECTED"
)

// Result is the unified response returned to the webhook caller.
type Result struct {
	Status        string                 `json:"status"`
	DealReference string                 `json:"dealReference,omitempty"`
	StatusCode    int                    `json:"status_code,omitempty"`
	Raw           map[string]interface{} `json:"raw,omitempty"`
	Confirm       *Confirmation          `json:"confirm,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	Payload       interface{}            `json:"payload,omitempty"`
}

const (
	ResultStatusSuccess = "success"
	ResultStatusError   = "error"
)
