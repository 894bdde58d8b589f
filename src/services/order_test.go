package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/ig-trading/src/models"
)

func testOrderService(t *testing.T, gatewayURL string) *OrderService {
	t.Helper()
	return NewOrderService(testSessionService(t, gatewayURL), Defaults{}, 0)
}

func TestPlaceOrderHappyPath(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	instr := decodeInstruction(t, `{
		"action": "OPEN",
		"epic": "CS.D.GBPCHF.CFD.IP",
		"direction": "BUY",
		"size": 1,
		"order_type": "MARKET",
		"currency_code": "EUR"
	}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Equal(t, "GATEWAYREF", res.DealReference)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.NotNil(t, res.Confirm)
	assert.Equal(t, models.DealStatusAccepted, res.Confirm.DealStatus)
	assert.Empty(t, res.Confirm.Error)

	// The first convention carried the full current payload.
	require.Equal(t, []string{"2"}, gateway.otcVersions)
	payload := gateway.otcPayloads[0]
	assert.Equal(t, "CS.D.GBPCHF.CFD.IP", payload["epic"])
	assert.Equal(t, "BUY", payload["direction"])
	assert.Equal(t, "-", payload["expiry"])
	assert.Equal(t, true, payload["forceOpen"])
	assert.Equal(t, "EUR", payload["currencyCode"])
	assert.NotEmpty(t, payload["dealReference"])
	assert.NotContains(t, payload, "level")
}

func TestPlaceOrderFallsBackToLegacyPayload(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	gateway.openPosition = func(version string, payload map[string]interface{}) (int, interface{}) {
		if version == "2" {
			return http.StatusBadRequest, map[string]string{"errorCode": "validation.null-not-allowed.request.dealReference"}
		}
		return http.StatusOK, map[string]interface{}{"dealReference": "LEGACYREF"}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Equal(t, "LEGACYREF", res.DealReference)
	assert.Equal(t, []string{"2", "1"}, gateway.otcVersions)

	// The legacy convention drops the fields the old endpoint rejects.
	legacy := gateway.otcPayloads[1]
	assert.NotContains(t, legacy, "dealReference")
	assert.NotContains(t, legacy, "trailingStop")
}

func TestPlaceOrderWithoutDealReference(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	// Force the legacy convention, whose payload carries no client reference,
	// and have the gateway echo nothing back.
	gateway.openPosition = func(version string, payload map[string]interface{}) (int, interface{}) {
		if version == "2" {
			return http.StatusBadRequest, map[string]string{"errorCode": "validation.unsupported.version"}
		}
		return http.StatusOK, map[string]interface{}{}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	// The order was transmitted, so the result is a success with the missing
	// confirmation reported inside it rather than a failure.
	require.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Empty(t, res.DealReference)
	require.NotNil(t, res.Confirm)
	assert.Equal(t, models.NoDealReferenceErr.Error(), res.Confirm.Error)
	assert.Empty(t, res.Confirm.DealStatus)
}

func TestPlaceOrderAllConventionsRefused(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	gateway.openPosition = func(string, map[string]interface{}) (int, interface{}) {
		return http.StatusBadRequest, map[string]string{"errorCode": "invalid.input"}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusError, res.Status)
	assert.Equal(t, "SubmissionFailed", res.Error)
	assert.NotEmpty(t, res.Reason)
	assert.NotNil(t, res.Payload)
	assert.Equal(t, []string{"2", "1"}, gateway.otcVersions)
}

func TestPlaceOrderBrokerErrorIsNotRetried(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	gateway.openPosition = func(string, map[string]interface{}) (int, interface{}) {
		return http.StatusForbidden, map[string]string{"errorCode": "error.public-api.exceeded-account-allowance"}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusError, res.Status)
	assert.Equal(t, "BrokerError", res.Error)
	assert.Contains(t, res.Reason, "error.public-api.exceeded-account-allowance")

	// A non-validation refusal must not trigger the next payload convention.
	assert.Equal(t, []string{"2"}, gateway.otcVersions)
}

func TestPlaceOrderRetriesOnceOnTokenInvalid(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	rejected := false
	gateway.openPosition = func(string, map[string]interface{}) (int, interface{}) {
		if !rejected {
			rejected = true
			return http.StatusUnauthorized, map[string]string{"errorCode": "error.security.client-token-invalid"}
		}
		return http.StatusOK, map[string]interface{}{"dealReference": "RETRYREF"}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Equal(t, "RETRYREF", res.DealReference)
	assert.Equal(t, 2, gateway.sessionCalls)
}

func TestPlaceOrderRejectionConfirmationPassesThrough(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	gateway.confirm = func(ref string) (int, interface{}) {
		return http.StatusOK, map[string]interface{}{
			"dealReference": ref,
			"dealStatus":    "REJECTED",
			"reason":        "INSUFFICIENT_FUNDS",
		}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	// The submission succeeded; the rejection is the broker's verdict, carried
	// in the confirmation.
	require.Equal(t, models.ResultStatusSuccess, res.Status)
	require.NotNil(t, res.Confirm)
	assert.Equal(t, models.DealStatusRejected, res.Confirm.DealStatus)
	assert.Equal(t, "INSUFFICIENT_FUNDS", res.Confirm.Reason)
}

func TestPlaceOrderConfirmationFetchFailureDegrades(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	gateway.confirm = func(string) (int, interface{}) {
		return http.StatusInternalServerError, map[string]string{"errorCode": "system.error"}
	}

	instr := decodeInstruction(t, `{"epic": "X", "direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Equal(t, "GATEWAYREF", res.DealReference)
	require.NotNil(t, res.Confirm)
	assert.NotEmpty(t, res.Confirm.Error)
	assert.Empty(t, res.Confirm.DealStatus)
}

func TestPlaceOrderValidationFailureSkipsGateway(t *testing.T) {
	gateway, srv := newFakeGateway(t)
	orders := testOrderService(t, srv.URL)

	instr := decodeInstruction(t, `{"direction": "BUY"}`)

	res := orders.PlaceOrder(context.Background(), instr)

	require.Equal(t, models.ResultStatusError, res.Status)
	assert.Equal(t, "ValidationError", res.Error)
	assert.Equal(t, 0, gateway.sessionCalls)
}

func TestCloseByLookup(t *testing.T) {
	t.Run("closes the matching position in the opposite direction", func(t *testing.T) {
		gateway, srv := newFakeGateway(t)
		orders := testOrderService(t, srv.URL)

		gateway.positions = map[string]interface{}{
			"positions": []map[string]interface{}{
				{
					"market":   map[string]interface{}{"epic": "IX.D.DAX.IFMM.IP"},
					"position": map[string]interface{}{"dealId": "DIAAA002", "direction": "BUY", "size": 2.0},
				},
			},
		}

		res := orders.CloseByLookup(context.Background(), "IX.D.DAX.IFMM.IP", 0)

		require.Equal(t, models.ResultStatusSuccess, res.Status)
		assert.Equal(t, "CLOSEREF", res.DealReference)

		require.Len(t, gateway.closeCalls, 1)
		closeCall := gateway.closeCalls[0]
		assert.Equal(t, "DIAAA002", closeCall["dealId"])
		assert.Equal(t, "SELL", closeCall["direction"])
		assert.Equal(t, 2.0, closeCall["size"])
		assert.Equal(t, "MARKET", closeCall["orderType"])
	})

	t.Run("no open position", func(t *testing.T) {
		_, srv := newFakeGateway(t)
		orders := testOrderService(t, srv.URL)

		res := orders.CloseByLookup(context.Background(), "CS.D.GBPCHF.CFD.IP", 0)

		require.Equal(t, models.ResultStatusError, res.Status)
		assert.Contains(t, res.Reason, "no open position")
	})

	t.Run("missing epic", func(t *testing.T) {
		_, srv := newFakeGateway(t)
		orders := testOrderService(t, srv.URL)

		res := orders.CloseByLookup(context.Background(), "", 1)

		require.Equal(t, models.ResultStatusError, res.Status)
		assert.Equal(t, "ValidationError", res.Error)
	})
}
