package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/internal/auth"
	mid "github.com/suteetoe/ekklesia/internal/middleware"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(auth *auth.Service) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp registers a user and signs them in
func (h *AuthHandler) SignUp(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.SignUp
	if err := bindJSON(c, &req); err != nil {
		log.Warn("Invalid sign-up data", zap.Error(err))
		return err
	}

	user, issued, err := h.auth.SignUp(c.Request().Context(), req, clientMeta(c))
	if err != nil {
		log.Warn("Sign-up failed", zap.Error(err))
		return err
	}

	h.setSessionCookie(c, issued)
	log.Info("User registered", zap.String("user_id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{"user": user, "session": issued.Session, "token": issued.Token})
}

// SignIn opens a session for valid credentials
func (h *AuthHandler) SignIn(c echo.Context) error {
	log := logger.FromEcho(c)

	var req validation.SignIn
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, issued, err := h.auth.SignIn(c.Request().Context(), req, clientMeta(c))
	if err != nil {
		return err
	}

	h.setSessionCookie(c, issued)
	log.Info("User signed in", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"user": user, "session": issued.Session, "token": issued.Token})
}

// SignOut ends the current session and clears the cookie
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.auth.SignOut(c.Request().Context(), mid.Principal(c)); err != nil {
		return err
	}

	h.clearSessionCookie(c)
	logger.FromEcho(c).Info("User signed out")
	return c.NoContent(http.StatusNoContent)
}

// Session returns the caller and the session the request was made with
func (h *AuthHandler) Session(c echo.Context) error {
	principal := mid.Principal(c)
	return c.JSON(http.StatusOK, echo.Map{"user": principal.User, "session": principal.Session})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req validation.ProfileUpdate
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), mid.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Sessions lists the caller's active sessions
func (h *AuthHandler) Sessions(c echo.Context) error {
	sessions, err := h.auth.Sessions(c.Request().Context(), mid.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

// RevokeSession ends one of the caller's sessions
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	if err := h.auth.RevokeSession(c.Request().Context(), id, mid.UserID(c)); err != nil {
		return err
	}

	if principal := mid.Principal(c); principal.Session.ID == id {
		h.clearSessionCookie(c)
	}
	log.Info("Session revoked", zap.String("session_id", id))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, issued *auth.Issued) {
	c.SetCookie(&http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    issued.Token,
		Path:     "/",
		Expires:  issued.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.auth.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.auth.SecureCookie(),
		SameSite: http.SameSiteLaxMode,
	})
}

func clientMeta(c echo.Context) auth.ClientMeta {
	return auth.ClientMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
