// Package gmailapi wraps the Gmail REST API for the sync layer: OAuth token
// plumbing, paginated message listing, detail fetch and send.
package gmailapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is called whenever the underlying token source refreshed
// the access token, so the caller can persist the new credentials.
type TokenUpdateFunc func(token *oauth2.Token) error

type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{clientID: clientID, clientSecret: clientSecret}
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailSendScope,
		},
	}
}

// Exchange trades an authorization code for a token set (OAuth callback path).
func (s *Service) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := s.oauthConfig()
	cfg.RedirectURL = redirectURI
	return cfg.Exchange(ctx, code)
}

// RefreshAccessToken forces a refresh using the stored refresh token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now(), // forces the token source to refresh
	}
	return s.oauthConfig().TokenSource(ctx, token).Token()
}

func (s *Service) gmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	wrapped := &notifyTokenSource{
		src:      s.oauthConfig().TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrapped)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// MessagePage is one page of message ids from messages.list.
type MessagePage struct {
	IDs           []string
	NextPageToken string
}

// ListMessages fetches one page of message ids matching the query.
func (s *Service) ListMessages(ctx context.Context, accessToken, refreshToken, query, pageToken string, maxResults int64, onTokenRefresh TokenUpdateFunc) (*MessagePage, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	call := srv.Users.Messages.List("me").MaxResults(maxResults)
	if query != "" {
		call = call.Q(query)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	page := &MessagePage{NextPageToken: resp.NextPageToken}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// Message is a provider-neutral view of one Gmail message.
type Message struct {
	ExternalID string
	ThreadID   string
	Subject    string
	From       string
	To         string
	Snippet    string
	Body       string
	SentAt     time.Time
	LabelIDs   []string
}

// IsOutgoing reports whether the message carries the SENT label.
func (m *Message) IsOutgoing() bool {
	for _, l := range m.LabelIDs {
		if l == "SENT" {
			return true
		}
	}
	return false
}

// GetMessage fetches one message with headers and body text.
func (s *Service) GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) (*Message, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get message %s: %w", messageID, err)
	}
	return parseMessage(msg), nil
}

func parseMessage(msg *gmail.Message) *Message {
	out := &Message{
		ExternalID: msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		LabelIDs:   msg.LabelIds,
		SentAt:     time.UnixMilli(msg.InternalDate),
	}

	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			out.Subject = h.Value
		case "from":
			out.From = h.Value
		case "to":
			out.To = h.Value
		}
	}

	out.Body = extractBody(msg.Payload)
	if out.Body == "" {
		out.Body = msg.Snippet
	}
	return out
}

// extractBody walks the MIME tree for the first text/plain part, falling back
// to text/html.
func extractBody(part *gmail.MessagePart) string {
	if body := findPart(part, "text/plain"); body != "" {
		return body
	}
	return findPart(part, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(data)
	}
	for _, p := range part.Parts {
		if body := findPart(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// SendMessage sends a plain-text email through the connected account.
func (s *Service) SendMessage(ctx context.Context, accessToken, refreshToken, to, subject, body string, onTokenRefresh TokenUpdateFunc) (string, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}

	var raw strings.Builder
	raw.WriteString("To: " + to + "\r\n")
	raw.WriteString("Subject: " + subject + "\r\n")
	raw.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw.String())),
	}
	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return "", fmt.Errorf("unable to send message: %w", err)
	}
	return sent.Id, nil
}
