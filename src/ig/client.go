// Package ig is a minimal REST client for the IG Markets dealing gateway.
// All calls decode the response body immediately into either a typed struct
// or a generic map, so callers never branch on response shapes.
package ig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DemoAPIHost = "https://demo-api.ig.com/gateway/deal"
	LiveAPIHost = "https://api.ig.com/gateway/deal"
)

// HostForAccountType maps the IG_ACC_TYPE setting to the dealing gateway
// host. Anything other than LIVE selects the demo host.
func HostForAccountType(accType string) string {
	if strings.ToUpper(strings.TrimSpace(accType)) == "LIVE" {
		return LiveAPIHost
	}
	return DemoAPIHost
}

// APIError is a non-2xx response from the IG gateway.
type APIError struct {
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("ig: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("ig: http status %d: %s", e.StatusCode, e.Code)
}

// TokenInvalid reports whether the session tokens were rejected and a fresh
// login is required.
func (e *APIError) TokenInvalid() bool {
	return e.Code == "error.security.client-token-invalid" ||
		e.Code == "error.security.oauth-token-invalid" ||
		e.Code == "error.security.client-token-missing"
}

// InputInvalid reports whether the gateway refused the request shape itself,
// as opposed to rejecting the deal. The OTC position endpoint has shipped
// several payload versions; a validation refusal on one version is the signal
// to try the next.
func (e *APIError) InputInvalid() bool {
	if e.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.HasPrefix(e.Code, "validation") ||
		strings.Contains(e.Code, "invalid.input") ||
		strings.Contains(e.Code, "request.invalid") ||
		strings.Contains(e.Code, "invalid.request")
}

// Client holds gateway credentials and the CST / X-SECURITY-TOKEN pair issued
// at login. A Client is bound to one authenticated session; re-authentication
// replaces the whole Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	cst           string
	securityToken string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Authenticated reports whether a session token pair is present.
func (c *Client) Authenticated() bool {
	return c.cst != "" && c.securityToken != ""
}

// CreateSession logs in and captures the CST and X-SECURITY-TOKEN response
// headers used to authenticate every subsequent call.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return fmt.Errorf("CreateSession: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("CreateSession: failed to create request: %w", err)
	}

	c.setHeaders(req, "2")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("CreateSession: login failed: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("CreateSession: %w", decodeAPIError(res))
	}

	c.cst = res.Header.Get("CST")
	c.securityToken = res.Header.Get("X-SECURITY-TOKEN")

	if !c.Authenticated() {
		return fmt.Errorf("CreateSession: login response missing session tokens")
	}

	log.Debug("CreateSession: IG session established")

	return nil
}

func (c *Client) setHeaders(req *http.Request, version string) {
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json; charset=UTF-8")
	req.Header.Set("X-IG-API-KEY", c.apiKey)
	req.Header.Set("Version", version)

	if c.cst != "" {
		req.Header.Set("CST", c.cst)
	}
	if c.securityToken != "" {
		req.Header.Set("X-SECURITY-TOKEN", c.securityToken)
	}
}

// do issues an authenticated request and decodes the JSON response into out
// (when out is non-nil). extra headers are applied last, so callers can set
// IG's _method override.
func (c *Client) do(ctx context.Context, method, path, version string, body, out interface{}, extra map[string]string) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("do: failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("do: failed to create request: %w", err)
	}

	c.setHeaders(req, version)

	for k, v := range extra {
		req.Header.Set(k, v)
	}

	log.Tracef("ig: %s %s (version %s)", method, req.URL.String(), version)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do: %s %s failed: %w", method, path, err)
	}

	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, decodeAPIError(res)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("do: failed to decode response body: %w", err)
		}
	}

	return res.StatusCode, nil
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return apiErr
	}

	var dto struct {
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(b, &dto); err == nil {
		apiErr.Code = dto.ErrorCode
	}

	return apiErr
}

// FetchAccounts lists the accounts attached to the session. It doubles as the
// low-cost liveness probe used by session renewal.
func (c *Client) FetchAccounts(ctx context.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	if _, err := c.do(ctx, http.MethodGet, "/accounts", "1", nil, &body, nil); err != nil {
		return nil, fmt.Errorf("FetchAccounts: %w", err)
	}

	return body, nil
}
