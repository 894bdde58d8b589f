// Package services holds the order bridge core: session lifecycle, alert
// normalization, order submission, and confirmation resolution.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/ig-trading/src/ig"
	"github.com/jiaming2012/ig-trading/src/models"
)

const DefaultSessionTTL = 20 * time.Minute

type SessionConfig struct {
	Username    string
	Password    string
	APIKey      string
	AccountType string
	// APIURL overrides the gateway host derived from AccountType. Used by
	// tests to point at a fake gateway.
	APIURL string
	TTL    time.Duration
}

// SessionService owns the single authenticated IG client for the process.
// The session is created lazily, probed with a fetch-accounts call once its
// TTL has elapsed, and replaced wholesale when the probe fails. Renewal is
// serialized so concurrent requests on an expired session do not race
// redundant logins against the gateway.
type SessionService struct {
	mu            sync.Mutex
	cfg           SessionConfig
	client        *ig.Client
	lastValidated time.Time

	now func() time.Time
}

func NewSessionService(cfg SessionConfig) (*SessionService, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.APIKey == "" {
		return nil, models.MissingCredentialsErr
	}

	if cfg.APIURL == "" {
		cfg.APIURL = ig.HostForAccountType(cfg.AccountType)
	}

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}

	return &SessionService{
		cfg: cfg,
		now: time.Now,
	}, nil
}

// Ensure returns a live authenticated client, logging in or renewing the
// session as needed.
func (s *SessionService) Ensure(ctx context.Context) (*ig.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if s.client == nil {
		return s.login(ctx, now)
	}

	if now.Sub(s.lastValidated) <= s.cfg.TTL {
		return s.client, nil
	}

	if _, err := s.client.FetchAccounts(ctx); err != nil {
		log.Warnf("SessionService.Ensure: liveness probe failed, re-authenticating: %v", err)
		return s.login(ctx, now)
	}

	s.lastValidated = now

	return s.client, nil
}

// Invalidate drops the current session so the next Ensure call performs a
// fresh login. Called when the gateway reports the session tokens invalid.
func (s *SessionService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client = nil
}

func (s *SessionService) login(ctx context.Context, now time.Time) (*ig.Client, error) {
	client := ig.NewClient(s.cfg.APIURL, s.cfg.APIKey)

	if err := client.CreateSession(ctx, s.cfg.Username, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("SessionService.login: %w", err)
	}

	s.client = client
	s.lastValidated = now

	log.Infof("SessionService.login: new IG session (acc_type=%s)", s.cfg.AccountType)

	return client, nil
}
