package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/teamleader"

	"golang.org/x/oauth2"
)

type memoryConnRepo struct {
	conns map[string]*conndomain.Connection
}

func newMemoryConnRepo(conns ...*conndomain.Connection) *memoryConnRepo {
	m := &memoryConnRepo{conns: map[string]*conndomain.Connection{}}
	for _, c := range conns {
		m.conns[c.ID] = c
	}
	return m
}

func (m *memoryConnRepo) Upsert(conn *conndomain.Connection) error {
	m.conns[conn.ID] = conn
	return nil
}

func (m *memoryConnRepo) FindActive(userID, provider string) (*conndomain.Connection, error) {
	for _, c := range m.conns {
		if c.UserID == userID && c.Provider == provider && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memoryConnRepo) FindDue(errorThreshold int) ([]*conndomain.Connection, error) {
	var due []*conndomain.Connection
	for _, c := range m.conns {
		if c.IsActive && c.SyncErrorCount < errorThreshold {
			due = append(due, c)
		}
	}
	return due, nil
}

func (m *memoryConnRepo) ListByUser(userID string) ([]*conndomain.Connection, error) {
	var out []*conndomain.Connection
	for _, c := range m.conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryConnRepo) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	c := m.conns[id]
	c.AccessToken = accessToken
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	c.ExpiresAt = expiresAt
	return nil
}

func (m *memoryConnRepo) RecordSyncSuccess(id string, at time.Time) error {
	c := m.conns[id]
	c.LastSyncAt = &at
	c.SyncErrorCount = 0
	return nil
}

func (m *memoryConnRepo) RecordSyncFailure(id string, deactivateAfter int) error {
	c := m.conns[id]
	c.SyncErrorCount++
	if c.SyncErrorCount >= deactivateAfter {
		c.IsActive = false
	}
	return nil
}

func (m *memoryConnRepo) Deactivate(id string) error {
	m.conns[id].IsActive = false
	return nil
}

type stubGoogle struct {
	token *oauth2.Token
	err   error
	calls int
}

func (s *stubGoogle) RefreshAccessToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	s.calls++
	return s.token, s.err
}

type stubTeamleader struct {
	token *teamleader.TokenResponse
	err   error
	calls int
}

func (s *stubTeamleader) RefreshToken(ctx context.Context, refreshToken string) (*teamleader.TokenResponse, error) {
	s.calls++
	return s.token, s.err
}

func gmailConn(expiresAt time.Time) *conndomain.Connection {
	return &conndomain.Connection{
		ID:           "conn-g",
		UserID:       "user-1",
		Provider:     conndomain.ProviderGmail,
		AccessToken:  "old-access",
		RefreshToken: "refresh",
		ExpiresAt:    expiresAt,
		IsActive:     true,
	}
}

func TestEnsureFreshSkipsValidToken(t *testing.T) {
	conn := gmailConn(time.Now().Add(time.Hour))
	google := &stubGoogle{}
	r := NewTokenRefresher(newMemoryConnRepo(conn), google, &stubTeamleader{}, 5)

	got, err := r.EnsureFresh(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "old-access", got.AccessToken)
	assert.Zero(t, google.calls)
}

func TestEnsureFreshRefreshesInsideLookahead(t *testing.T) {
	// Token still valid, but inside the lookahead buffer.
	conn := gmailConn(time.Now().Add(RefreshLookahead / 2))
	newExpiry := time.Now().Add(time.Hour)
	google := &stubGoogle{token: &oauth2.Token{AccessToken: "new-access", Expiry: newExpiry}}
	repo := newMemoryConnRepo(conn)
	r := NewTokenRefresher(repo, google, &stubTeamleader{}, 5)

	got, err := r.EnsureFresh(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 1, google.calls)
	assert.Equal(t, "new-access", got.AccessToken)
	// The stored row was rewritten too.
	assert.Equal(t, "new-access", repo.conns["conn-g"].AccessToken)
}

func TestRefreshKeepsStoredRefreshTokenWhenNotRotated(t *testing.T) {
	conn := gmailConn(time.Now().Add(-time.Minute))
	// Google does not always return a new refresh token.
	google := &stubGoogle{token: &oauth2.Token{AccessToken: "new-access", Expiry: time.Now().Add(time.Hour)}}
	repo := newMemoryConnRepo(conn)
	r := NewTokenRefresher(repo, google, &stubTeamleader{}, 5)

	got, err := r.Refresh(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.Equal(t, "refresh", repo.conns["conn-g"].RefreshToken)
}

func TestRefreshPersistsRotatedTeamleaderTokens(t *testing.T) {
	conn := &conndomain.Connection{
		ID:           "conn-tl",
		UserID:       "user-1",
		Provider:     conndomain.ProviderTeamleader,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
		IsActive:     true,
	}
	tl := &stubTeamleader{token: &teamleader.TokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    3600,
	}}
	repo := newMemoryConnRepo(conn)
	r := NewTokenRefresher(repo, &stubGoogle{}, tl, 5)

	got, err := r.Refresh(context.Background(), conn)
	require.NoError(t, err)
	// TeamLeader rotates the refresh token on every call: both must be stored.
	assert.Equal(t, "new-refresh", got.RefreshToken)
	assert.Equal(t, "new-refresh", repo.conns["conn-tl"].RefreshToken)
	assert.True(t, got.ExpiresAt.After(time.Now().Add(30*time.Minute)))
}

func TestRefreshFailureCountsAndDeactivates(t *testing.T) {
	conn := gmailConn(time.Now().Add(-time.Minute))
	google := &stubGoogle{err: &apperr.AuthError{Provider: "gmail", Reason: "invalid_grant"}}
	repo := newMemoryConnRepo(conn)
	r := NewTokenRefresher(repo, google, &stubTeamleader{}, 2)

	for i := 0; i < 2; i++ {
		_, err := r.Refresh(context.Background(), conn)
		require.Error(t, err)
		assert.True(t, apperr.IsAuthError(err))
	}

	stored := repo.conns["conn-g"]
	assert.Equal(t, 2, stored.SyncErrorCount)
	assert.False(t, stored.IsActive)
	// Failed refreshes never clobber the stored tokens.
	assert.Equal(t, "old-access", stored.AccessToken)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	conn := gmailConn(time.Now().Add(-time.Minute))
	conn.RefreshToken = ""
	r := NewTokenRefresher(newMemoryConnRepo(conn), &stubGoogle{}, &stubTeamleader{}, 5)

	_, err := r.Refresh(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthError(err))
}
