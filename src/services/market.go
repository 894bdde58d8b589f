package services

import (
	"context"
)

// MarketService backs the auxiliary lookup endpoints. Broker errors are
// wrapped into a uniform {ok: false, error: message} shape instead of being
// raised to the HTTP layer.
type MarketService struct {
	sessions *SessionService
}

func NewMarketService(sessions *SessionService) *MarketService {
	return &MarketService{sessions: sessions}
}

// TestConnectivity verifies credentials and session health by listing the
// session's accounts.
func (m *MarketService) TestConnectivity(ctx context.Context) map[string]interface{} {
	client, err := m.sessions.Ensure(ctx)
	if err != nil {
		return notOK(err)
	}

	accounts, err := client.FetchAccounts(ctx)
	if err != nil {
		return notOK(err)
	}

	return map[string]interface{}{"ok": true, "accounts": accounts}
}

// SearchInstruments looks up tradable markets matching the query, typically
// used to discover an instrument's epic.
func (m *MarketService) SearchInstruments(ctx context.Context, query string) map[string]interface{} {
	client, err := m.sessions.Ensure(ctx)
	if err != nil {
		return notOK(err)
	}

	results, err := client.SearchMarkets(ctx, query)
	if err != nil {
		return notOK(err)
	}

	return map[string]interface{}{"ok": true, "results": results}
}

// OpenPositions lists the account's open OTC positions.
func (m *MarketService) OpenPositions(ctx context.Context) map[string]interface{} {
	client, err := m.sessions.Ensure(ctx)
	if err != nil {
		return notOK(err)
	}

	positions, err := client.FetchOpenPositions(ctx)
	if err != nil {
		return notOK(err)
	}

	return map[string]interface{}{"ok": true, "positions": positions.Positions}
}

func notOK(err error) map[string]interface{} {
	return map[string]interface{}{"ok": false, "error": err.Error()}
}
