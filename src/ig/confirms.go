package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jiaming2012/ig-trading/src/models"
)

// FetchDealConfirm retrieves the broker's accept/reject verdict for a
// submitted deal reference. A REJECTED dealStatus with a reason code is a
// normal response here, not an error.
func (c *Client) FetchDealConfirm(ctx context.Context, dealReference string) (*models.Confirmation, error) {
	if dealReference == "" {
		return nil, models.NoDealReferenceErr
	}

	var body models.Confirmation
	if _, err := c.do(ctx, http.MethodGet, "/confirms/"+url.PathEscape(dealReference), "1", nil, &body, nil); err != nil {
		return nil, fmt.Errorf("FetchDealConfirm: %w", err)
	}

	return &body, nil
}
