package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SearchMarkets looks up tradable instruments matching the search term. The
// raw body is returned as-is; the caller decides how much of it to expose.
func (c *Client) SearchMarkets(ctx context.Context, searchTerm string) (map[string]interface{}, error) {
	q := url.Values{}
	q.Set("searchTerm", searchTerm)

	var body map[string]interface{}
	if _, err := c.do(ctx, http.MethodGet, "/markets?"+q.Encode(), "1", nil, &body, nil); err != nil {
		return nil, fmt.Errorf("SearchMarkets: %w", err)
	}

	return body, nil
}

type NavigationNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NavigationMarket struct {
	Epic           string `json:"epic"`
	InstrumentName string `json:"instrumentName"`
}

// MarketNavigationResponse is one level of IG's market browse hierarchy:
// child nodes to descend into, and market leaves carrying epics.
type MarketNavigationResponse struct {
	Nodes   []NavigationNode   `json:"nodes"`
	Markets []NavigationMarket `json:"markets"`
}

// MarketNavigation returns the given navigation node, or the root hierarchy
// when nodeID is empty.
func (c *Client) MarketNavigation(ctx context.Context, nodeID string) (*MarketNavigationResponse, error) {
	path := "/marketnavigation"
	if nodeID != "" {
		path += "/" + url.PathEscape(nodeID)
	}

	var body MarketNavigationResponse
	if _, err := c.do(ctx, http.MethodGet, path, "1", nil, &body, nil); err != nil {
		return nil, fmt.Errorf("MarketNavigation: %w", err)
	}

	return &body, nil
}
