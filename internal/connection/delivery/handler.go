package delivery

import (
	"context"
	"net/http"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	"github.com/containersuper/bct-crm/internal/connection/repository"
	"github.com/containersuper/bct-crm/pkg/teamleader"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// GoogleExchanger trades an OAuth authorization code for a token set.
type GoogleExchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)
}

type TeamleaderExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*teamleader.TokenResponse, error)
}

type ConnectionHandler struct {
	repo   repository.ConnectionRepository
	google GoogleExchanger
	tl     TeamleaderExchanger
}

func NewConnectionHandler(repo repository.ConnectionRepository, google GoogleExchanger, tl TeamleaderExchanger) *ConnectionHandler {
	return &ConnectionHandler{repo: repo, google: google, tl: tl}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	conns, err := h.repo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "connections": conns})
}

type callbackRequest struct {
	Code         string `json:"code" binding:"required"`
	RedirectURI  string `json:"redirect_uri" binding:"required"`
	AccountEmail string `json:"account_email"`
}

// Callback stores the token set obtained from an OAuth authorization-code
// exchange as the user's connection for the provider.
func (h *ConnectionHandler) Callback(c *gin.Context) {
	userID := c.GetString("userID")
	provider := c.Param("provider")

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	conn := &conndomain.Connection{
		UserID:       userID,
		Provider:     provider,
		AccountEmail: req.AccountEmail,
	}

	switch provider {
	case conndomain.ProviderGmail:
		token, err := h.google.Exchange(c.Request.Context(), req.Code, req.RedirectURI)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		conn.AccessToken = token.AccessToken
		conn.RefreshToken = token.RefreshToken
		conn.ExpiresAt = token.Expiry
	case conndomain.ProviderTeamleader:
		token, err := h.tl.ExchangeCode(c.Request.Context(), req.Code, req.RedirectURI)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		conn.AccessToken = token.AccessToken
		conn.RefreshToken = token.RefreshToken
		conn.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown provider"})
		return
	}

	if err := h.repo.Upsert(conn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "connection": conn})
}

func (h *ConnectionHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")
	provider := c.Param("provider")

	conn, err := h.repo.FindActive(userID, provider)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if conn == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no active connection"})
		return
	}

	if err := h.repo.Deactivate(conn.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
