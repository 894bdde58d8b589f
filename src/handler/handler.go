// Package handler exposes the bridge over HTTP: the TradingView webhook plus
// the connectivity and market lookup endpoints.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	cache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/models"
)

const ServiceName = "ig-tv-webhook"

// OrderPlacer runs a normalized instruction through the broker.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, instr *models.Instruction) *models.Result
	CloseByLookup(ctx context.Context, epic string, size float64) *models.Result
}

// MarketLookup backs the auxiliary read endpoints.
type MarketLookup interface {
	TestConnectivity(ctx context.Context) map[string]interface{}
	SearchInstruments(ctx context.Context, query string) map[string]interface{}
	OpenPositions(ctx context.Context) map[string]interface{}
}

type Handler struct {
	orders  OrderPlacer
	markets MarketLookup
	secret  string
	version string
	accType string

	// dedupe replays the prior result for repeated deliveries of the same
	// alert_id. TradingView retries webhooks on slow responses; without this a
	// retry would double the position.
	dedupe *cache.Cache
}

func New(orders OrderPlacer, markets MarketLookup, secret, version, accType string, dedupeTTL time.Duration) *Handler {
	if dedupeTTL <= 0 {
		dedupeTTL = 10 * time.Minute
	}

	return &Handler{
		orders:  orders,
		markets: markets,
		secret:  secret,
		version: version,
		accType: accType,
		dedupe:  cache.New(dedupeTTL, 2*dedupeTTL),
	}
}

// SetupHandler registers all routes on the given router.
func (h *Handler) SetupHandler(router *mux.Router) {
	router.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/__version", h.handleVersion).Methods(http.MethodGet)
	router.HandleFunc("/test_ig", h.handleTestIG).Methods(http.MethodGet)
	router.HandleFunc("/markets", h.handleMarkets).Methods(http.MethodGet)
	router.HandleFunc("/positions", h.handlePositions).Methods(http.MethodGet)
	router.HandleFunc("/positions/close", h.handleClosePosition).Methods(http.MethodPost)
	router.HandleFunc("/webhook", h.handleWebhook).Methods(http.MethodPost)
}

func (h *Handler) authorized(r *http.Request, bodySecret string) bool {
	if header := r.Header.Get("X-Webhook-Secret"); header != "" {
		return header == h.secret
	}

	return bodySecret != "" && bodySecret == h.secret
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("writeJSON: failed to encode response: %v", err)
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"status":  "error",
		"message": "unauthorized",
	})
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"service": ServiceName,
		"hint":    "use /test_ig, /markets, /webhook",
	})
}

func (h *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": ServiceName,
		"version": h.version,
		"env": map[string]string{
			"IG_ACC_TYPE": h.accType,
		},
	})
}

func (h *Handler) handleTestIG(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r, "") {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, h.markets.TestConnectivity(r.Context()))
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r, "") {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, h.markets.OpenPositions(r.Context()))
}

func (h *Handler) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string         `json:"secret"`
		Epic   string         `json:"epic"`
		Size   models.Decimal `json:"size"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "invalid json: " + err.Error(),
		})
		return
	}

	if !h.authorized(r, body.Secret) {
		writeUnauthorized(w)
		return
	}

	result := h.orders.CloseByLookup(r.Context(), body.Epic, body.Size.FloatOr(0))
	writeJSON(w, statusCodeFor(result), result)
}

func statusCodeFor(result *models.Result) int {
	if result.Status == models.ResultStatusSuccess {
		return http.StatusOK
	}

	if result.Error == "ValidationError" {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
