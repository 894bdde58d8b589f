package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeGateway is an in-process stand-in for the IG dealing gateway, recording
// the calls the services make against it.
type fakeGateway struct {
	t  *testing.T
	mu sync.Mutex

	sessionCalls int
	accountCalls int
	otcVersions  []string
	otcPayloads  []map[string]interface{}
	closeCalls   []map[string]interface{}

	accountsFail bool
	positions    interface{}

	// openPosition and confirm override the default 200 responses.
	openPosition func(version string, payload map[string]interface{}) (int, interface{})
	confirm      func(dealReference string) (int, interface{})
}

func newFakeGateway(t *testing.T) (*fakeGateway, *httptest.Server) {
	g := &fakeGateway{t: t}

	srv := httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(srv.Close)

	return g, srv
}

func (g *fakeGateway) handle(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/session":
		g.sessionCalls++
		w.Header().Set("CST", "cst-token")
		w.Header().Set("X-SECURITY-TOKEN", "security-token")
		writeBody(w, http.StatusOK, map[string]interface{}{})

	case r.Method == http.MethodGet && r.URL.Path == "/accounts":
		g.accountCalls++
		if g.accountsFail {
			writeBody(w, http.StatusUnauthorized, map[string]string{"errorCode": "error.security.client-token-invalid"})
			return
		}
		writeBody(w, http.StatusOK, map[string]interface{}{"accounts": []interface{}{}})

	case r.Method == http.MethodPost && r.URL.Path == "/positions/otc":
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			g.t.Errorf("fakeGateway: bad otc payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if r.Header.Get("_method") == "DELETE" {
			g.closeCalls = append(g.closeCalls, payload)
			writeBody(w, http.StatusOK, map[string]interface{}{"dealReference": "CLOSEREF"})
			return
		}

		version := r.Header.Get("Version")
		g.otcVersions = append(g.otcVersions, version)
		g.otcPayloads = append(g.otcPayloads, payload)

		if g.openPosition != nil {
			code, body := g.openPosition(version, payload)
			writeBody(w, code, body)
			return
		}
		writeBody(w, http.StatusOK, map[string]interface{}{"dealReference": "GATEWAYREF"})

	case r.Method == http.MethodGet && r.URL.Path == "/positions":
		if g.positions != nil {
			writeBody(w, http.StatusOK, g.positions)
			return
		}
		writeBody(w, http.StatusOK, map[string]interface{}{"positions": []interface{}{}})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/confirms/"):
		ref := strings.TrimPrefix(r.URL.Path, "/confirms/")
		if g.confirm != nil {
			code, body := g.confirm(ref)
			writeBody(w, code, body)
			return
		}
		writeBody(w, http.StatusOK, map[string]interface{}{
			"dealReference": ref,
			"dealId":        "DIAAA001",
			"dealStatus":    "ACCEPTED",
			"status":        "OPEN",
			"reason":        "SUCCESS",
		})

	default:
		g.t.Errorf("fakeGateway: unexpected call %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeBody(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func testSessionService(t *testing.T, gatewayURL string) *SessionService {
	t.Helper()

	sessions, err := NewSessionService(SessionConfig{
		Username:    "demo-user",
		Password:    "demo-pass",
		APIKey:      "demo-key",
		AccountType: "DEMO",
		APIURL:      gatewayURL,
	})
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	return sessions
}
