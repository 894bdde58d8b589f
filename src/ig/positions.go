package ig

import (
	"context"
	"fmt"
	"net/http"
)

type PositionMarket struct {
	Epic           string `json:"epic"`
	InstrumentName string `json:"instrumentName"`
}

type PositionDetail struct {
	DealID    string  `json:"dealId"`
	Direction string  `json:"direction"`
	Size      float64 `json:"size"`
	Level     float64 `json:"level"`
	Currency  string  `json:"currency"`
}

type OpenPosition struct {
	Market   PositionMarket `json:"market"`
	Position PositionDetail `json:"position"`
}

type PositionsResponse struct {
	Positions []OpenPosition `json:"positions"`
}

// FetchOpenPositions lists all open OTC positions on the account.
func (c *Client) FetchOpenPositions(ctx context.Context) (*PositionsResponse, error) {
	var body PositionsResponse
	if _, err := c.do(ctx, http.MethodGet, "/positions", "2", nil, &body, nil); err != nil {
		return nil, fmt.Errorf("FetchOpenPositions: %w", err)
	}

	return &body, nil
}

// CreateOTCPosition submits an open-position request. The payload shape is
// version-dependent, so the caller supplies both the payload map and the
// VERSION header value it was built for. The decoded body and HTTP status are
// returned even though on success IG only echoes a dealReference.
func (c *Client) CreateOTCPosition(ctx context.Context, version string, payload map[string]interface{}) (map[string]interface{}, int, error) {
	var body map[string]interface{}
	code, err := c.do(ctx, http.MethodPost, "/positions/otc", version, payload, &body, nil)
	if err != nil {
		return nil, code, fmt.Errorf("CreateOTCPosition: %w", err)
	}

	return body, code, nil
}

// CloseOTCPosition closes an open position. IG models close as a DELETE on
// /positions/otc, tunneled through POST with the _method override header.
func (c *Client) CloseOTCPosition(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	var body map[string]interface{}
	_, err := c.do(ctx, http.MethodPost, "/positions/otc", "1", payload, &body, map[string]string{
		"_method": "DELETE",
	})
	if err != nil {
		return nil, fmt.Errorf("CloseOTCPosition: %w", err)
	}

	return body, nil
}
