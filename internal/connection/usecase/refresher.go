package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	"github.com/containersuper/bct-crm/internal/connection/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/teamleader"

	"golang.org/x/oauth2"
)

// RefreshLookahead is the single refresh buffer used by every sync path.
const RefreshLookahead = 5 * time.Minute

// GoogleTokenClient refreshes a Google access token from a refresh token.
type GoogleTokenClient interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// TeamleaderTokenClient refreshes a TeamLeader token set.
type TeamleaderTokenClient interface {
	RefreshToken(ctx context.Context, refreshToken string) (*teamleader.TokenResponse, error)
}

// TokenRefresher is the one shared refresh path for every provider.
type TokenRefresher interface {
	// EnsureFresh refreshes the connection only when its token expires within
	// the lookahead buffer.
	EnsureFresh(ctx context.Context, conn *conndomain.Connection) (*conndomain.Connection, error)
	// Refresh unconditionally rotates the access token. On failure the stored
	// row keeps its old tokens and the error count is incremented.
	Refresh(ctx context.Context, conn *conndomain.Connection) (*conndomain.Connection, error)
}

type tokenRefresher struct {
	repo            repository.ConnectionRepository
	google          GoogleTokenClient
	tl              TeamleaderTokenClient
	deactivateAfter int
}

func NewTokenRefresher(repo repository.ConnectionRepository, google GoogleTokenClient, tl TeamleaderTokenClient, deactivateAfter int) TokenRefresher {
	return &tokenRefresher{
		repo:            repo,
		google:          google,
		tl:              tl,
		deactivateAfter: deactivateAfter,
	}
}

func (r *tokenRefresher) EnsureFresh(ctx context.Context, conn *conndomain.Connection) (*conndomain.Connection, error) {
	if !conn.ExpiresWithin(RefreshLookahead) {
		return conn, nil
	}
	return r.Refresh(ctx, conn)
}

func (r *tokenRefresher) Refresh(ctx context.Context, conn *conndomain.Connection) (*conndomain.Connection, error) {
	if conn.RefreshToken == "" {
		return nil, &apperr.AuthError{Provider: conn.Provider, Reason: "no refresh token stored, re-consent required"}
	}

	var (
		accessToken  string
		refreshToken string
		expiresAt    time.Time
		err          error
	)

	switch conn.Provider {
	case conndomain.ProviderGmail:
		var token *oauth2.Token
		token, err = r.google.RefreshAccessToken(ctx, conn.RefreshToken)
		if err == nil {
			accessToken = token.AccessToken
			refreshToken = token.RefreshToken
			expiresAt = token.Expiry
		}
	case conndomain.ProviderTeamleader:
		var token *teamleader.TokenResponse
		token, err = r.tl.RefreshToken(ctx, conn.RefreshToken)
		if err == nil {
			accessToken = token.AccessToken
			refreshToken = token.RefreshToken
			expiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", conn.Provider)
	}

	if err != nil {
		log.Printf("[Refresher] Refresh failed for connection %s (%s): %v", conn.ID, conn.Provider, err)
		if repoErr := r.repo.RecordSyncFailure(conn.ID, r.deactivateAfter); repoErr != nil {
			log.Printf("[Refresher] Failed to record refresh failure: %v", repoErr)
		}
		if apperr.IsAuthError(err) {
			return nil, err
		}
		return nil, &apperr.AuthError{Provider: conn.Provider, Reason: err.Error()}
	}

	if err := r.repo.UpdateTokens(conn.ID, accessToken, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	conn.AccessToken = accessToken
	if refreshToken != "" {
		conn.RefreshToken = refreshToken
	}
	conn.ExpiresAt = expiresAt
	return conn, nil
}
