package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

type userCtxKey struct{}

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(auth.WithUserID(ctx, u.ID), userCtxKey{}, u)
}

// currentUser returns the user set by requireUser.
func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userCtxKey{}).(core.User)
	return u
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireUser authenticates the request. Pages redirect to the sign-in form,
// the API answers 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.finance.Authenticate(r.Context(), sessionToken(r))
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				s.writeError(w, r, err, "User")
				return
			}
			switch {
			case isAPI(r):
				writeJSON(w, http.StatusUnauthorized, apiError{Error: msgUnauthorized})
			case isHTMX(r):
				w.Header().Set("HX-Redirect", "/auth/signin")
				w.WriteHeader(http.StatusUnauthorized)
			default:
				http.Redirect(w, r, "/auth/signin", http.StatusSeeOther)
			}
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, u.ID)
		ctx := context.WithValue(withUser(r.Context(), u), log.LoggerContextKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type authForm struct {
	Email string
	Name  string
	Error string
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.finance.Authenticate(r.Context(), sessionToken(r)); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "signin", http.StatusOK, pageData{Title: "Sign in", Data: authForm{}})
}

// handleSignIn serves both the HTML form and JSON clients, which get the
// token back for use as a bearer token.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "User")
		return
	}
	email := p.Get("email")

	sess, err := s.finance.SignIn(r.Context(), email, p.Get("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			atomic.AddInt64(&s.appMetrics.failedSignIns, 1)
			if wantsJSON(r, p) {
				writeJSON(w, http.StatusUnauthorized, apiError{Error: "Invalid email or password"})
				return
			}
			s.render(w, r, "signin", http.StatusUnauthorized, pageData{
				Title: "Sign in",
				Data:  authForm{Email: email, Error: "Invalid email or password"},
			})
			return
		}
		s.writeError(w, r, err, "User")
		return
	}
	atomic.AddInt64(&s.appMetrics.signIns, 1)

	s.setSessionCookie(w, sess)
	if wantsJSON(r, p) {
		writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: sess.User})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", http.StatusOK, pageData{Title: "Create account", Data: authForm{}})
}

// handleSignUp creates the account and signs the new user in.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "User")
		return
	}
	in := core.SignUpInput{Email: p.Get("email"), Name: p.Get("name"), Password: p.Get("password")}

	u, err := s.finance.SignUp(r.Context(), in)
	if err != nil {
		msg := ""
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			msg = "An account with this email already exists"
		case core.IsValidationError(err):
			msg = signUpMessage(err)
		default:
			s.writeError(w, r, err, "User")
			return
		}
		if wantsJSON(r, p) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: msg})
			return
		}
		s.render(w, r, "signup", http.StatusBadRequest, pageData{
			Title: "Create account",
			Data:  authForm{Email: in.Email, Name: in.Name, Error: msg},
		})
		return
	}

	if wantsJSON(r, p) {
		writeJSON(w, http.StatusCreated, u)
		return
	}

	sess, err := s.finance.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err, "User")
		return
	}
	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func signUpMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidEmail):
		return "Please enter a valid email address"
	case errors.Is(err, core.ErrWeakPassword):
		return "Password must be at least 8 characters"
	case errors.Is(err, core.ErrPasswordTooLong):
		return "Password is too long"
	case errors.Is(err, core.ErrEmptyName):
		return "Name is required"
	case errors.Is(err, core.ErrNameTooLong):
		return "Name must be at most 100 characters"
	default:
		return "Invalid input"
	}
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/auth/signin")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/auth/signin", http.StatusSeeOther)
}
