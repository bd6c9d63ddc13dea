package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"socialmedia/internal/config"
	"socialmedia/internal/domain"
	"socialmedia/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := s.accounts.Register(r.Context(), domain.Account{Username: req.Username, Password: req.Password})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	all, err := s.accounts.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, ok, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeEmpty(w)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteAccount removes the caller's own account. Routed behind
// ownerMiddleware.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	a, ok, err := s.accounts.Delete(r.Context(), owner(r).AccountID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeEmpty(w)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleChangePassword sets a new password for the caller. The Basic auth
// password is the current one. Routed behind ownerMiddleware.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, current, _ := r.BasicAuth()

	a, err := s.accounts.ChangePassword(r.Context(), owner(r).AccountID, current, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SSO holds the OpenID Connect client used by the /sso routes.
type SSO struct {
	OAuth2   oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// NewSSO discovers the provider at c.Issuer and builds the client.
func NewSSO(ctx context.Context, c config.OIDC) (*SSO, error) {
	provider, err := oidc.NewProvider(ctx, c.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &SSO{
		OAuth2: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: c.ClientID}),
	}, nil
}

const stateCookie = "oauth_state"

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.OAuth2.AuthCodeURL(state), http.StatusFound)
}

// handleSSOCallback completes the code flow and answers like /login. The
// identity provider's username must already be registered.
func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	log := logger.From(r.Context())
	token, err := s.sso.OAuth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Warn("sso token exchange failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
		return
	}
	idToken, err := s.sso.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		log.Warn("sso id_token rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
		return
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Sub               string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
		return
	}

	a, err := s.accounts.AuthenticateFederated(r.Context(), federatedUsername(claims.PreferredUsername, claims.Email, claims.Sub))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func federatedUsername(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
