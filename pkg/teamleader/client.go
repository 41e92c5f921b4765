// Package teamleader is a minimal client for the TeamLeader Focus REST API:
// OAuth2 token exchange/refresh plus the paginated *.list endpoints the sync
// layer needs.
package teamleader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/containersuper/bct-crm/pkg/apperr"
)

type Client struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewClient(baseURL, authURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// ExchangeCode trades an authorization code for tokens (OAuth callback path).
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	}
	return c.tokenCall(ctx, form)
}

// RefreshToken rotates an access token. TeamLeader also rotates the refresh
// token on every call, so callers must persist both.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return c.tokenCall(ctx, form)
}

func (c *Client) tokenCall(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teamleader token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperr.AuthError{
			Provider: "teamleader",
			Reason:   fmt.Sprintf("token endpoint status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("teamleader token decode: %w", err)
	}
	return &token, nil
}

// List calls one paginated *.list endpoint, e.g. "contacts.list". Pages are
// 1-based. updatedSince/updatedBefore bound the window for incremental and
// backfill sync; either may be nil.
func (c *Client) List(ctx context.Context, accessToken, endpoint string, page, size int, updatedSince, updatedBefore *time.Time) (*ListResponse, error) {
	reqBody := listRequest{Page: pageRequest{Size: size, Number: page}}
	if updatedSince != nil || updatedBefore != nil {
		reqBody.Filter = &listFilter{UpdatedSince: updatedSince, UpdatedBefore: updatedBefore}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teamleader %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperr.AuthError{Provider: "teamleader", Reason: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperr.ProviderAPIError{Provider: "teamleader", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var list ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("teamleader %s decode: %w", endpoint, err)
	}
	list.requestedPage = page
	list.requestedSize = size
	return &list, nil
}
