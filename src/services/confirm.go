package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/ig"
	"github.com/jiaming2012/ig-trading/src/models"
)

// ResolveConfirmation fetches the broker's verdict for a submitted deal. By
// this point the order has already been transmitted, so a missing reference
// or a failed fetch is reported inside the confirmation rather than failing
// the operation.
func ResolveConfirmation(ctx context.Context, client *ig.Client, dealReference string) *models.Confirmation {
	if dealReference == "" {
		return &models.Confirmation{Error: models.NoDealReferenceErr.Error()}
	}

	confirm, err := client.FetchDealConfirm(ctx, dealReference)
	if err != nil {
		log.Warnf("ResolveConfirmation: confirmation fetch failed for %s: %v", dealReference, err)
		return &models.Confirmation{Error: err.Error()}
	}

	return confirm
}
