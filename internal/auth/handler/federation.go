package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/user"
	"auth-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// federationLogin starts the external-provider handshake. The caller's
// returnUrl is embedded in the signed state payload so it survives the
// redirect to the provider and back without any server-side memory.
func (h *Handler) federationLogin(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.providers.Get(providerName)
		if err != nil {
			c.JSON(http.StatusBadRequest, authResponse{
				Success: false,
				Message: "unknown oauth provider",
			})
			return
		}

		returnURL := c.Query("returnUrl")
		if returnURL == "" {
			returnURL = h.frontendURL
		}

		state, err := h.tokens.IssueState(returnURL)
		if err != nil {
			logger.Error("federation: state issue failed", map[string]any{
				"provider": providerName,
				"error":    err.Error(),
			})
			c.JSON(http.StatusInternalServerError, authResponse{
				Success: false,
				Message: "failed to start login",
			})
			return
		}

		setStateCookie(c, state)
		_, codeChallenge := generatePKCE(c)

		c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
	}
}

// federationCallback finishes the handshake: it validates the signed
// round-trip state, exchanges the code, maps the external identity to
// a local user (auto-provisioning on first sight), and redirects to
// the sanitized return destination with a fresh bearer token in the
// URL fragment.
func (h *Handler) federationCallback(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.providers.Get(providerName)
		if err != nil {
			c.JSON(http.StatusBadRequest, authResponse{
				Success: false,
				Message: "unknown oauth provider",
			})
			return
		}

		// Provider-reported failure. Answer the caller directly; never
		// redirect from this branch, the state is not trusted yet.
		if errParam := c.Query("error"); errParam != "" {
			logger.Warn("federation callback returned error", map[string]any{
				"provider": providerName,
				"error":    errParam,
				"desc":     c.Query("error_description"),
			})
			c.JSON(http.StatusBadRequest, authResponse{
				Success: false,
				Message: "external authentication failed",
			})
			return
		}

		stateQuery := c.Query("state")
		if !validateStateCookie(c, stateQuery) {
			c.JSON(http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "invalid state",
			})
			return
		}

		returnURL, stateID, err := h.tokens.ValidateState(stateQuery)
		if err != nil {
			c.JSON(http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "invalid state",
			})
			return
		}

		// Each state payload is good for exactly one callback.
		fresh, err := h.states.Consume(c.Request.Context(), stateID, stateTTL)
		if err != nil {
			logger.Error("federation: state consume failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, authResponse{
				Success: false,
				Message: "failed to validate state",
			})
			return
		}
		if !fresh {
			c.JSON(http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "invalid state",
			})
			return
		}

		code := c.Query("code")
		if code == "" {
			logger.Error("federation callback missing code and error", nil)
			c.JSON(http.StatusBadRequest, authResponse{
				Success: false,
				Message: "external authentication failed",
			})
			return
		}

		codeVerifier := getPKCEVerifier(c)
		if codeVerifier == "" {
			c.JSON(http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "missing pkce verifier",
			})
			return
		}

		identity, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
		if err != nil {
			logger.Warn("federation: code exchange failed", map[string]any{
				"provider": providerName,
				"error":    err.Error(),
			})
			c.JSON(http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "external authentication failed",
			})
			return
		}

		// Federation cannot proceed without a stable identifier.
		if identity.Email == "" {
			c.JSON(http.StatusBadRequest, authResponse{
				Success: false,
				Message: "email not received from provider",
			})
			return
		}

		u, err := h.resolveFederatedUser(c.Request.Context(), identity)
		if err != nil {
			logger.Error("federation: resolve user failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, authResponse{
				Success: false,
				Message: "failed to resolve user",
			})
			return
		}

		tok, err := h.tokens.Issue(u)
		if err != nil {
			logger.Error("federation: token issue failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, authResponse{
				Success: false,
				Message: "failed to issue token",
			})
			return
		}

		dest := resolveReturnURL(
			returnURL,
			c.GetHeader("Origin"),
			c.GetHeader("Referer"),
			h.frontendURL,
		)

		// Terminate the provider-session cookies before handing the
		// browser back to the front end.
		clearStateCookie(c)
		clearPKCECookie(c)

		// Token travels in the fragment so it never reaches server logs.
		c.Redirect(http.StatusFound, dest+"/#/callback?token="+tok)
	}
}

// resolveFederatedUser maps an external identity to a local account by
// normalized email, provisioning one on first sight. New accounts get
// a generated display name with a random numeric suffix and never a
// password.
func (h *Handler) resolveFederatedUser(
	ctx context.Context,
	identity *auth.Identity,
) (*user.User, error) {

	u, err := h.users.FindByEmail(ctx, identity.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	u, err = h.users.CreateFederated(ctx, federatedDisplayName(identity), identity.Email)

	// Two callbacks racing on the same first-time email: the loser
	// reloads the winner's row.
	if errors.Is(err, user.ErrDuplicateEmail) {
		return h.users.FindByEmail(ctx, identity.Email)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("federated user provisioned", map[string]any{
		"provider": identity.Provider,
		"user_id":  u.ID,
	})

	return u, nil
}

func federatedDisplayName(identity *auth.Identity) string {
	base := identity.Name
	if base == "" {
		base = strings.Split(identity.Email, "@")[0]
	}

	return strings.ReplaceAll(base, " ", "") + utils.DisplayNameSuffix()
}
