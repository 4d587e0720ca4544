package api

import (
	"context"
	"net/http"
	"strings"
)

// Roles returned by the identity exchange.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Identity is the signed-in user as the backend knows them.
type Identity struct {
	Email    string
	Role     string
	FullName string
}

// IsAdmin reports whether the identity may enter the admin console.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// ExchangeIdentity trades a provider access token for the backend's view of
// the user (find-or-create plus role). Idempotent from the client's side;
// the token is passed explicitly because the session transport may not carry
// it yet at exchange time.
func (c *Client) ExchangeIdentity(ctx context.Context, accessToken, fullName string) (Identity, error) {
	body := map[string]string{
		"accessToken": accessToken,
		"fullName":    strings.TrimSpace(fullName),
	}
	headers := map[string]string{"Authorization": "Bearer " + accessToken}
	var raw struct {
		Email    string `json:"email"`
		Role     string `json:"role"`
		FullName string `json:"fullName"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/google", nil, headers, body, &raw); err != nil {
		return Identity{}, err
	}
	return Identity{
		Email:    trimmed(raw.Email),
		Role:     defaultString(raw.Role, RoleCustomer),
		FullName: trimmed(raw.FullName),
	}, nil
}
