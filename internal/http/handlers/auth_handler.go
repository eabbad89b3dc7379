// Auth HTTP handlers.
//
// This file exposes the login callback: the browser returns from the identity
// provider with an authorization code, the server exchanges it for the user's
// identity, and a signed session token is handed back for subsequent requests.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-achievements-backend/internal/auth"
)

// CodeExchanger swaps a provider authorization code for a verified identity.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (auth.Identity, error)
}

// SessionIssuer signs session tokens for verified identities.
type SessionIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// AuthHandlers groups the login endpoints.
type AuthHandlers struct {
	Provider CodeExchanger
	Sessions SessionIssuer
}

// NewAuth constructs AuthHandlers bound to a provider and session signer.
func NewAuth(provider CodeExchanger, sessions SessionIssuer) *AuthHandlers {
	return &AuthHandlers{Provider: provider, Sessions: sessions}
}

// CallbackResponse is returned on successful login.
type CallbackResponse struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}

// Callback godoc
// @ID          authCallback
// @Summary     Login callback
// @Description Exchanges the provider authorization code for a session token.
// @Tags        Auth
// @Produce     json
//
// @Param       code  query  string  true  "Authorization code from the identity provider"
//
// @Success     200  {object} handlers.CallbackResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing code"
// @Failure     502  {object} handlers.ErrorResponse "Provider rejected the code"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/callback [get]
func (h *AuthHandlers) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code query parameter required")
		return
	}

	id, err := h.Provider.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrProviderRejected) {
			fail(c, http.StatusBadGateway, ErrCodeAuthExchangeFailed, "identity provider rejected the code")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeAuthExchangeFailed, err.Error())
		return
	}

	token, err := h.Sessions.Issue(id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not sign session token")
		return
	}
	ok(c, http.StatusOK, CallbackResponse{Token: token, User: id})
}
