package teamleader

import (
	"encoding/json"
	"time"
)

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type pageRequest struct {
	Size   int `json:"size"`
	Number int `json:"number"`
}

type listFilter struct {
	UpdatedSince *time.Time `json:"updated_since,omitempty"`
	UpdatedBefore *time.Time `json:"updated_before,omitempty"`
}

type listRequest struct {
	Page   pageRequest `json:"page"`
	Filter *listFilter `json:"filter,omitempty"`
}

type listMeta struct {
	Page struct {
		Size   int `json:"size"`
		Number int `json:"number"`
	} `json:"page"`
	Matches int `json:"matches"`
}

// ListResponse is one page of a TeamLeader *.list endpoint. Data is kept raw
// so each entity type can be mapped by its own mapper.
type ListResponse struct {
	Data []json.RawMessage `json:"data"`
	Meta *listMeta         `json:"meta"`

	requestedPage int
	requestedSize int
}

// NewListPage assembles a page the way List returns it, so fakes standing in
// for the client can produce responses with working pagination.
func NewListPage(data []json.RawMessage, page, size, matches int) *ListResponse {
	r := &ListResponse{Data: data, Meta: &listMeta{Matches: matches}, requestedPage: page, requestedSize: size}
	r.Meta.Page.Size = size
	r.Meta.Page.Number = page
	return r
}

// HasMore prefers the provider's meta.matches total. The short-batch check is
// only the fallback when meta is absent; a full-sized last page would fool it.
func (r *ListResponse) HasMore() bool {
	if r.Meta != nil {
		return r.requestedPage*r.requestedSize < r.Meta.Matches
	}
	return len(r.Data) == r.requestedSize
}
