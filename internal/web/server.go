package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// Server is the front-end: it renders pages and proxies every action to the API.
type Server struct {
	api      *APIClient
	sessions *SessionManager
	csrf     csrfSigner
	views    *Engine
	logg     *logger.Logger
}

func NewServer(api *APIClient, sessions *SessionManager, views *Engine, csrfSecret string, logg *logger.Logger) (*Server, error) {
	if api == nil || sessions == nil || views == nil {
		return nil, errors.New("web server requires an api client, sessions and views")
	}
	if strings.TrimSpace(csrfSecret) == "" {
		return nil, errors.New("csrf secret required")
	}
	return &Server{
		api:      api,
		sessions: sessions,
		csrf:     newCSRFSigner(csrfSecret),
		views:    views,
		logg:     logg,
	}, nil
}

type sessionCtxKey struct{}

func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionCtxKey{}).(*Session)
	return sess
}

func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := s.sessions.Load(ctx, r)
		if err != nil {
			s.logg.Error(ctx, "session load failed", err)
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		ctx = context.WithValue(ctx, sessionCtxKey{}, sess)
		if sess.User != nil {
			ctx = s.logg.WithUserID(ctx, sess.User.UserID)
			ctx = s.logg.WithActorRole(ctx, string(sess.User.Role))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) verifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		sess := sessionFrom(r)
		if err := r.ParseForm(); err != nil || !s.csrf.Verify(sess, r.PostFormValue(CSRFField)) {
			sess.AddFlash("error", "Your form expired. Please try again.")
			s.redirect(w, r, sess, backTo(r, "/products"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole sends anonymous visitors to the login page and refuses other roles.
func (s *Server) requireRole(roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if !sess.SignedIn() {
				sess.AddFlash("info", "Please sign in to continue.")
				target := r.URL.RequestURI()
				if r.Method != http.MethodGet {
					target = backTo(r, "/products")
				}
				s.redirect(w, r, sess, "/login?next="+url.QueryEscape(target))
				return
			}
			if len(roles) > 0 && !sess.HasRole(roles...) {
				s.renderError(w, r, sess, http.StatusForbidden, "This page is not available for your account.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, sess *Session, status int, page, title string, data any) {
	ctx := r.Context()
	td := TemplateData{
		Title:       title,
		CSRFToken:   s.csrf.Token(sess),
		Flashes:     sess.PopFlashes(),
		CurrentPath: r.URL.Path,
		User:        sess.User,
		ShowCart:    !sess.SignedIn() || sess.HasRole(enums.UserRoleCustomer),
		Data:        data,
	}
	if !sess.SignedIn() {
		td.CartCount = len(sess.GuestCart)
	}
	if err := s.sessions.Commit(ctx, w, sess); err != nil {
		s.logg.Error(ctx, "session commit failed", err)
	}
	if err := s.views.Render(w, status, page, td); err != nil {
		s.logg.Error(ctx, "render failed", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, sess *Session, status int, message string) {
	s.render(w, r, sess, status, "error", http.StatusText(status), message)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *Session, to string) {
	if err := s.sessions.Commit(r.Context(), w, sess); err != nil {
		s.logg.Error(r.Context(), "session commit failed", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail reports a failed action as a flash and goes back to the form.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, sess *Session, err error, back string) {
	if s.expired(w, r, sess, err) {
		return
	}
	s.logFailure(r.Context(), err)
	sess.AddFlash("error", UserMessage(err))
	s.redirect(w, r, sess, back)
}

// failPage reports a failed page load.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, sess *Session, err error) {
	if s.expired(w, r, sess, err) {
		return
	}
	s.logFailure(r.Context(), err)
	status := http.StatusBadGateway
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		status = apiErr.Status
	}
	s.renderError(w, r, sess, status, UserMessage(err))
}

func (s *Server) expired(w http.ResponseWriter, r *http.Request, sess *Session, err error) bool {
	if !IsUnauthorized(err) {
		return false
	}
	sess.SignOut()
	sess.AddFlash("error", "Your session has expired. Please sign in again.")
	s.redirect(w, r, sess, "/login?next="+url.QueryEscape(backTo(r, "/products")))
	return true
}

func (s *Server) logFailure(ctx context.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return
	}
	s.logg.Error(ctx, "api call failed", err)
}

// withToken runs fn with the session's access token, refreshing it once when
// the API answers 401.
func (s *Server) withToken(ctx context.Context, sess *Session, fn func(token string) error) error {
	err := fn(sess.AccessToken)
	if !IsUnauthorized(err) || sess.RefreshToken == "" {
		return err
	}
	tokens, refreshErr := s.api.Refresh(ctx, sess.AccessToken, sess.RefreshToken)
	if refreshErr != nil {
		return err
	}
	signIn(sess, tokens)
	return fn(sess.AccessToken)
}

func signIn(sess *Session, tokens *auth.TokenResponse) {
	sess.AccessToken = tokens.AccessToken
	sess.RefreshToken = tokens.RefreshToken
	if tokens.User == nil {
		return
	}
	user := &SessionUser{
		UserID: tokens.User.ID.String(),
		Role:   tokens.User.Role,
		Name:   tokens.User.DisplayName,
		Email:  tokens.User.Email,
	}
	if tokens.User.ProfileID != nil {
		user.ProfileID = tokens.User.ProfileID.String()
	}
	if user.Name == "" {
		user.Name = tokens.User.CompanyName
	}
	sess.User = user
}

// backTo returns the local path of the Referer, or fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	return safeLocal(u.RequestURI(), fallback)
}

// safeLocal accepts only same-site absolute paths.
func safeLocal(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func idempotencyKey(r *http.Request) string {
	if key := strings.TrimSpace(r.PostFormValue("idempotency_key")); key != "" {
		return key
	}
	return randomToken()
}

func landingFor(role enums.UserRole) string {
	switch role {
	case enums.UserRoleDistributor:
		return "/quotations"
	case enums.UserRoleAdmin:
		return "/admin"
	default:
		return "/products"
	}
}
