package handler

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/models"
)

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var instr models.Instruction
	if err := json.NewDecoder(r.Body).Decode(&instr); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "invalid json: " + err.Error(),
		})
		return
	}

	if !h.authorized(r, instr.Secret) {
		log.Warn("handleWebhook: rejected request with invalid secret")
		writeUnauthorized(w)
		return
	}

	if instr.AlertID != "" {
		if cached, found := h.dedupe.Get(instr.AlertID); found {
			log.Infof("handleWebhook: replaying result for alert %s", instr.AlertID)
			w.Header().Set("X-Idempotent-Replay", "true")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	log.WithField("epic", instr.Epic).Infof("handleWebhook: received %s instruction", instr.ResolvedAction())

	result := h.orders.PlaceOrder(r.Context(), &instr)

	// Only successes are cached: a failed attempt placed no deal, so a retry
	// of the same alert should reach the broker again.
	if instr.AlertID != "" && result.Status == models.ResultStatusSuccess {
		h.dedupe.SetDefault(instr.AlertID, result)
	}

	writeJSON(w, statusCodeFor(result), result)
}
