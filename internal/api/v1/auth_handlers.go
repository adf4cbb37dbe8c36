package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/edu-center/site-api/internal/auth"
	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/service"
	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

const refreshCookie = "refresh_token"

type tokenStore interface {
	SaveRefreshToken(ctx context.Context, userID, plainToken string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, plainToken string) error
	RotateRefreshToken(ctx context.Context, oldPlain, newPlain string, newExpiry time.Time) (string, error)
}

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user,omitempty"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	req := registerReq{Username: f.String("username"), Email: f.String("email"), Password: f.Raw("password")}
	if errs := collectErrors(f, req); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}

	u, err := a.users.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrRegistrationClosed):
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "registration is closed", nil, nil)
		return
	case errors.Is(err, service.ErrUserExists):
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "user already exists", nil, nil)
		return
	case err != nil:
		a.serverError(w, r, "error creating user", err)
		return
	}
	a.log.WithField("user_id", u.ID).Info("admin registered")
	a.issueTokens(w, r, u, http.StatusCreated, "user registered")
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	req := loginReq{Email: f.String("email"), Password: f.Raw("password")}
	if errs := collectErrors(f, req); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	u, err := a.users.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountDisabled):
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, err.Error(), nil, nil)
		return
	case err != nil:
		a.serverError(w, r, "login failed", err)
		return
	}
	a.issueTokens(w, r, u, http.StatusOK, "login successful")
}

// refreshTokenFrom prefers the cookie and falls back to a refresh_token body field.
func (a *API) refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	f, ok := a.bodyFields(w, r)
	if !ok {
		return "", false
	}
	if !f.Has(refreshCookie) {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing refresh token", nil, nil)
		return "", false
	}
	return f.String(refreshCookie), true
}

// Refresh rotates the refresh token and returns a fresh access token.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	old, ok := a.refreshTokenFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	newPlain := utils.RandomToken()
	newExpiry := time.Now().Add(a.cfg.RefreshTokenTTL)
	userID, err := a.store.RotateRefreshToken(ctx, old, newPlain, newExpiry)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid refresh token", nil, nil)
			return
		}
		a.serverError(w, r, "refresh failed", err)
		return
	}
	u, err := a.store.GetUserByID(ctx, userID)
	if err != nil || !u.Active {
		if rerr := a.store.RevokeRefreshToken(ctx, newPlain); rerr != nil {
			a.log.WithError(rerr).WithField("user_id", userID).Warn("failed to revoke refresh token")
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			a.serverError(w, r, "refresh failed", err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid refresh token", nil, nil)
		return
	}
	access, err := auth.GenerateAccessToken(a.cfg.JWTSecret, a.cfg.AccessTokenTTL, u.ID, u.Username, string(u.Role))
	if err != nil {
		a.serverError(w, r, "could not create access token", err)
		return
	}
	a.setRefreshCookie(w, newPlain, newExpiry)
	utils.WriteJSONResponse(w, http.StatusOK, true, "refresh successful", tokenResp{
		AccessToken:  access,
		RefreshToken: newPlain,
		ExpiresIn:    int64(a.cfg.AccessTokenTTL.Seconds()),
	}, nil)
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	rt, ok := a.refreshTokenFrom(w, r)
	if !ok {
		return
	}
	if err := a.store.RevokeRefreshToken(r.Context(), rt); err != nil {
		a.serverError(w, r, "revoke error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !a.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSONResponse(w, http.StatusOK, true, "logged out", nil, nil)
}

// GoogleSignIn accepts an authorization code. Only existing active accounts
// may sign in this way.
func (a *API) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if a.google == nil {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "google sign-in is not enabled", nil, nil)
		return
	}
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	if !f.Has("code") {
		utils.WriteValidationErrors(w, []models.FieldError{{Field: "code", Message: "code is required"}})
		return
	}
	id, err := a.google.Verify(r.Context(), f.String("code"))
	if err != nil {
		a.log.WithError(err).Warn("google sign-in rejected")
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "google sign-in failed", nil, nil)
		return
	}
	if id.Email == "" || !id.EmailVerified {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "google account email is not verified", nil, nil)
		return
	}
	u, err := a.store.GetUserByEmail(r.Context(), strings.ToLower(id.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSONResponse(w, http.StatusForbidden, false, "no account for this google user", nil, nil)
			return
		}
		a.serverError(w, r, "login failed", err)
		return
	}
	if !u.Active {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, service.ErrAccountDisabled.Error(), nil, nil)
		return
	}
	a.issueTokens(w, r, u, http.StatusOK, "login successful")
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, true, "", auth.GetUserFromCtx(r.Context()), nil)
}

// issueTokens creates an access token and a stored refresh token for u.
func (a *API) issueTokens(w http.ResponseWriter, r *http.Request, u *models.User, status int, msg string) {
	access, err := auth.GenerateAccessToken(a.cfg.JWTSecret, a.cfg.AccessTokenTTL, u.ID, u.Username, string(u.Role))
	if err != nil {
		a.serverError(w, r, "token error", err)
		return
	}
	rt := utils.RandomToken()
	expires := time.Now().Add(a.cfg.RefreshTokenTTL)
	if err := a.store.SaveRefreshToken(r.Context(), u.ID, rt, expires); err != nil {
		a.serverError(w, r, "save refresh token error", err)
		return
	}
	a.setRefreshCookie(w, rt, expires)
	utils.WriteJSONResponse(w, status, true, msg, tokenResp{
		AccessToken:  access,
		RefreshToken: rt,
		ExpiresIn:    int64(a.cfg.AccessTokenTTL.Seconds()),
		User:         u,
	}, nil)
}

func (a *API) setRefreshCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/api/v1/auth",
		HttpOnly: true,
		Secure:   !a.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}
