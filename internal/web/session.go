package web

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/pkg/enums"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	WebSessionKey(sessionID string) string
}

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionUser is the signed-in account as the API reported it at login.
type SessionUser struct {
	UserID    string         `json:"user_id"`
	ProfileID string         `json:"profile_id"`
	Role      enums.UserRole `json:"role"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
}

// Session is everything the front-end keeps per browser.
type Session struct {
	ID           string           `json:"-"`
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	User         *SessionUser     `json:"user,omitempty"`
	GuestCart    []cart.LineInput `json:"guest_cart,omitempty"`
	Flashes      []Flash          `json:"flashes,omitempty"`
	CSRFToken    string           `json:"csrf_token"`
}

func (s *Session) SignedIn() bool {
	return s != nil && s.User != nil && s.AccessToken != ""
}

func (s *Session) HasRole(roles ...enums.UserRole) bool {
	if !s.SignedIn() {
		return false
	}
	for _, role := range roles {
		if s.User.Role == role {
			return true
		}
	}
	return false
}

func (s *Session) AddFlash(kind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns and clears the queued notices.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// SignOut drops credentials but keeps the session for flashes.
func (s *Session) SignOut() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.User = nil
}

// AddGuestLine merges a line into the guest cart by distributor and product.
func (s *Session) AddGuestLine(line cart.LineInput) {
	for i := range s.GuestCart {
		if s.GuestCart[i].DistributorID == line.DistributorID && s.GuestCart[i].ProductID == line.ProductID {
			s.GuestCart[i].Quantity += line.Quantity
			return
		}
	}
	s.GuestCart = append(s.GuestCart, line)
}

// SetGuestQuantity updates or, for qty < 1, removes a guest line.
func (s *Session) SetGuestQuantity(key string, qty int) bool {
	for i := range s.GuestCart {
		if guestLineKey(s.GuestCart[i]) != key {
			continue
		}
		if qty < 1 {
			s.GuestCart = append(s.GuestCart[:i], s.GuestCart[i+1:]...)
		} else {
			s.GuestCart[i].Quantity = qty
		}
		return true
	}
	return false
}

func guestLineKey(line cart.LineInput) string {
	return line.DistributorID.String() + ":" + line.ProductID.String()
}

// SessionManager keeps sessions in Redis behind an opaque cookie.
type SessionManager struct {
	store      sessionStore
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionManager(store sessionStore, cookieName string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if store == nil {
		return nil, errors.New("session store required")
	}
	if cookieName == "" {
		return nil, errors.New("session cookie name required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &SessionManager{store: store, cookieName: cookieName, ttl: ttl, secure: secure}, nil
}

// Load returns the request's session, or a fresh one when the cookie is
// missing or has expired server side.
func (m *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return m.newSession()
	}

	raw, err := m.store.Get(ctx, m.store.WebSessionKey(cookie.Value))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return m.newSession()
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return m.newSession()
	}
	sess.ID = cookie.Value
	if sess.CSRFToken == "" {
		sess.CSRFToken = randomToken()
	}
	return &sess, nil
}

// Commit persists the session and refreshes the cookie. It must run before
// the response header is written.
func (m *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.WebSessionKey(sess.ID), string(payload), m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}

// Renew moves the session to a fresh id and CSRF nonce. Call it whenever the
// signed-in identity changes.
func (m *SessionManager) Renew(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	old := sess.ID
	sess.ID = randomToken()
	sess.CSRFToken = randomToken()
	if old == "" {
		return nil
	}
	if err := m.store.Del(ctx, m.store.WebSessionKey(old)); err != nil {
		return fmt.Errorf("drop previous session: %w", err)
	}
	return nil
}

func (m *SessionManager) newSession() (*Session, error) {
	return &Session{ID: randomToken(), CSRFToken: randomToken()}, nil
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
