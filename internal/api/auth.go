package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
	"golang.org/x/oauth2"
)

// tokenResponse is the wire shape of the token endpoints.
type tokenResponse struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresIn int       `json:"expires_in,omitempty"`
	User      *wireUser `json:"user,omitempty"`
}

func (t tokenResponse) toToken(previousRefresh string) *oauth2.Token {
	refresh := t.Refresh
	if refresh == "" {
		refresh = previousRefresh
	}

	tok := &oauth2.Token{
		AccessToken:  t.Access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// Login exchanges credentials for a token pair and persists it together with
// the returned user profile.
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	body := map[string]string{"username": username, "password": password}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token/", body, &resp); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if resp.Access == "" {
		return models.User{}, fmt.Errorf("%w: empty access token in response", shared.ErrAuthFailed)
	}

	user := models.User{Username: username}
	if resp.User != nil {
		user = resp.User.toModel()
	}

	if c.tokens != nil {
		if err := c.tokens.Save(resp.toToken(""), user); err != nil {
			return models.User{}, err
		}
	}
	return user, nil
}

// Refresh exchanges the stored refresh token for a new access token.
// Called automatically by the client on the first 401 of a request.
func (c *Client) Refresh(ctx context.Context) error {
	if c.tokens == nil {
		return shared.ErrNoRefreshToken
	}

	tok, err := c.tokens.Current()
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	// roundTrip, not do: a failing refresh must not recurse into another refresh.
	resp, raw, err := c.roundTrip(ctx, http.MethodPost, "/auth/token/refresh/", map[string]string{"refresh": tok.RefreshToken})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var parsed tokenResponse
	if err := unmarshalStrictBody(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if parsed.Access == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrRefreshFailed)
	}

	user, _ := c.tokens.User()
	return c.tokens.Save(parsed.toToken(tok.RefreshToken), user)
}

// Logout clears the persisted session.
func (c *Client) Logout() error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.Clear()
}
