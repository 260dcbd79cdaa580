package web

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/multierr"

	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
)

type loginPage struct {
	Email string
	Next  string
}

type registerPage struct {
	Form RegisterForm
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.SignedIn() {
		s.redirect(w, r, sess, landingFor(sess.User.Role))
		return
	}
	s.render(w, r, sess, http.StatusOK, "login", "Sign in", loginPage{Next: safeLocal(r.URL.Query().Get("next"), "")})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	email := strings.TrimSpace(r.PostFormValue("email"))
	next := safeLocal(r.PostFormValue("next"), "")

	tokens, err := s.api.Login(ctx, email, r.PostFormValue("password"))
	if err != nil {
		s.logFailure(ctx, err)
		sess.AddFlash("error", UserMessage(err))
		s.render(w, r, sess, http.StatusOK, "login", "Sign in", loginPage{Email: email, Next: next})
		return
	}
	s.startSession(w, r, sess, tokens, next, "Welcome back")
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.render(w, r, sess, http.StatusOK, "register", "Register", registerPage{Form: RegisterForm{Role: enums.UserRoleCustomer}})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	form := RegisterForm{
		Role:           enums.UserRole(r.PostFormValue("role")),
		Email:          strings.TrimSpace(r.PostFormValue("email")),
		Password:       r.PostFormValue("password"),
		CompanyName:    strings.TrimSpace(r.PostFormValue("company_name")),
		ContactName:    strings.TrimSpace(r.PostFormValue("contact_name")),
		Phone:          optionalField(r, "phone"),
		DefaultAddress: optionalField(r, "default_address"),
		Website:        optionalField(r, "website"),
	}

	tokens, err := s.api.Register(ctx, form)
	if err != nil {
		s.logFailure(ctx, err)
		sess.AddFlash("error", UserMessage(err))
		form.Password = ""
		s.render(w, r, sess, http.StatusOK, "register", "Register", registerPage{Form: form})
		return
	}
	s.startSession(w, r, sess, tokens, "", "Welcome to PartsBridge")
}

// startSession signs the browser in and moves the guest cart to the account.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess *Session, tokens *auth.TokenResponse, next, greeting string) {
	ctx := r.Context()
	if err := s.sessions.Renew(ctx, sess); err != nil {
		s.logg.Error(ctx, "session renew failed", err)
	}
	signIn(sess, tokens)
	if sess.User == nil {
		sess.SignOut()
		sess.AddFlash("error", "Sign in failed. Please try again.")
		s.redirect(w, r, sess, "/login")
		return
	}
	sess.AddFlash("success", fmt.Sprintf("%s, %s.", greeting, sess.User.Name))
	s.mergeGuestCart(r, sess)
	s.redirect(w, r, sess, safeLocal(next, landingFor(sess.User.Role)))
}

func (s *Server) mergeGuestCart(r *http.Request, sess *Session) {
	if len(sess.GuestCart) == 0 {
		return
	}
	if !sess.HasRole(enums.UserRoleCustomer) {
		sess.GuestCart = nil
		sess.AddFlash("info", "Your guest cart was cleared because this account cannot place orders.")
		return
	}

	ctx := r.Context()
	lines := sess.GuestCart
	var (
		result *mergeOutcome
		err    error
	)
	err = s.withToken(ctx, sess, func(token string) error {
		merged, callErr := s.api.MergeCart(ctx, token, lines)
		if callErr == nil {
			result = &mergeOutcome{Skipped: len(merged.Skipped)}
			for _, skipped := range merged.Skipped {
				result.Reasons = append(result.Reasons, skipped.Reason)
			}
		}
		return callErr
	})
	if err != nil {
		s.logFailure(ctx, err)
		sess.AddFlash("error", "Your guest cart could not be moved to your account: "+UserMessage(err))
		return
	}
	sess.GuestCart = nil
	moved := len(lines) - result.Skipped
	if moved > 0 {
		sess.AddFlash("success", fmt.Sprintf("Moved %d item(s) from your guest cart.", moved))
	}
	for _, reason := range result.Reasons {
		sess.AddFlash("error", "A guest cart item was skipped: "+reason)
	}
}

type mergeOutcome struct {
	Skipped int
	Reasons []string
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	var errs error
	if sess.AccessToken != "" {
		if err := s.api.Logout(ctx, sess.AccessToken); err != nil && !IsUnauthorized(err) {
			errs = multierr.Append(errs, err)
		}
	}
	errs = multierr.Append(errs, s.sessions.Renew(ctx, sess))
	if errs != nil {
		s.logg.Error(ctx, "logout incomplete", errs)
	}

	sess.SignOut()
	sess.GuestCart = nil
	sess.AddFlash("success", "You have been signed out.")
	s.redirect(w, r, sess, "/products")
}

func optionalField(r *http.Request, name string) *string {
	value := strings.TrimSpace(r.PostFormValue(name))
	if value == "" {
		return nil
	}
	return &value
}
