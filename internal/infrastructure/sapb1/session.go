package sapb1

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

const (
	// sessionSafetyBuffer is subtracted from the ERP-reported session
	// timeout so a session is refreshed before the server drops it.
	sessionSafetyBuffer = 5 * time.Minute
	// minSessionTTL is the floor for the cached session lifetime.
	minSessionTTL = time.Minute

	sessionCookieName = "B1SESSION"
	routeCookieName   = "ROUTEID"
)

// Session is a short-lived Service Layer credential pair with its local
// expiry. Never persisted beyond the cache TTL.
type Session struct {
	SessionID string
	RouteID   string
	ExpiresAt time.Time
}

// IsValid returns true while the session can still be attached to requests.
func (s *Session) IsValid() bool {
	return s != nil && s.SessionID != "" && time.Now().Before(s.ExpiresAt)
}

// loginResponse is the Service Layer login payload.
type loginResponse struct {
	SessionID      string `json:"SessionId"`
	Version        string `json:"Version"`
	SessionTimeout int    `json:"SessionTimeout"` // minutes
}

// SessionManager authenticates against the Service Layer and caches the
// resulting session per connection identity. The mutex serializes login
// and refresh so a refresh is never pipelined with an in-flight login;
// concurrent callers wait for the new token instead of racing.
type SessionManager struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string]*Session
}

// NewSessionManager creates a session manager for one Service Layer
// connection identity.
func NewSessionManager(config *Config, logger *zap.Logger) (*SessionManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SessionManager{
		config: config,
		httpClient: &http.Client{
			Timeout: config.LoginTimeout,
		},
		logger: logger,
		cache:  make(map[string]*Session),
	}, nil
}

// cacheKey hashes the connection identity so sessions for different
// endpoints, company databases or users never collide in the cache.
func (m *SessionManager) cacheKey() string {
	sum := sha1.Sum([]byte(m.config.BaseURL + "|" + m.config.CompanyDB + "|" + m.config.Username))
	return hex.EncodeToString(sum[:])
}

// GetSession returns the cached non-expired session or performs a login.
func (m *SessionManager) GetSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.cache[m.cacheKey()]; s.IsValid() {
		return s, nil
	}
	return m.loginLocked(ctx)
}

// Login always performs a fresh authentication call, overwriting the cache.
func (m *SessionManager) Login(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx)
}

// Refresh discards the cached session and logs in again.
func (m *SessionManager) Refresh(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, m.cacheKey())
	return m.loginLocked(ctx)
}

// Invalidate drops the cached session without logging in again. Called by
// the client when the server rejects the session mid-flight.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, m.cacheKey())
}

// Logout best-effort-invalidates the server-side session and always clears
// the local cache regardless of the network outcome.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	session := m.cache[m.cacheKey()]
	delete(m.cache, m.cacheKey())
	m.mu.Unlock()

	if session == nil || session.SessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.LogoutTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/Logout", nil)
	if err != nil {
		return
	}
	attachSessionCookies(req, session)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Warn("Service Layer logout failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	m.logger.Debug("Service Layer session logged out")
}

// loginLocked performs the login call. Caller holds m.mu.
func (m *SessionManager) loginLocked(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"CompanyDB": m.config.CompanyDB,
		"UserName":  m.config.Username,
		"Password":  m.config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("sapb1: failed to encode login body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.LoginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/Login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sapb1: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewConnectionError("login request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, integration.NewConnectionError("failed to read login response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		code, message := ParseError(respBody)
		reason := integration.AuthReasonInvalidCredentials
		if strings.Contains(strings.ToLower(message), "license") {
			reason = integration.AuthReasonLicenseExhausted
		}
		m.logger.Error("Service Layer login rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("erp_code", code),
			zap.String("message", message),
		)
		return nil, integration.NewAuthError(reason, message)
	}
	if resp.StatusCode >= 400 {
		code, message := ParseError(respBody)
		return nil, integration.NewAPIError(resp.StatusCode, code, message)
	}

	var login loginResponse
	if err := json.Unmarshal(respBody, &login); err != nil || login.SessionID == "" {
		// A 2xx without a session id is a malformed server response, fatal.
		return nil, integration.NewAuthError(integration.AuthReasonInvalidCredentials,
			"login response contained no session id")
	}

	session := &Session{
		SessionID: login.SessionID,
		ExpiresAt: time.Now().Add(sessionTTL(login.SessionTimeout)),
	}
	for _, c := range resp.Cookies() {
		switch c.Name {
		case sessionCookieName:
			session.SessionID = c.Value
		case routeCookieName:
			session.RouteID = c.Value
		}
	}

	m.cache[m.cacheKey()] = session
	m.logger.Debug("Service Layer session established",
		zap.Time("expires_at", session.ExpiresAt),
		zap.String("version", login.Version),
	)
	return session, nil
}

// sessionTTL converts the ERP-reported timeout (minutes) into the cache
// lifetime: reported timeout minus the safety buffer, floor one minute.
func sessionTTL(timeoutMinutes int) time.Duration {
	ttl := time.Duration(timeoutMinutes)*time.Minute - sessionSafetyBuffer
	if ttl < minSessionTTL {
		ttl = minSessionTTL
	}
	return ttl
}

// attachSessionCookies sets the session credential cookies on a request.
func attachSessionCookies(req *http.Request, session *Session) {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.SessionID})
	if session.RouteID != "" {
		req.AddCookie(&http.Cookie{Name: routeCookieName, Value: session.RouteID})
	}
}
