package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// SearchUsers queries the user directory. The debounce policy lives in
// chat.Directory; this method issues exactly one request per call.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	query := url.Values{"search": {term}}

	var wire []wireUser
	if err := c.do(ctx, http.MethodGet, "/users/search/?"+query.Encode(), nil, &wire); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(wire))
	for _, w := range wire {
		if w.ID == "" {
			continue
		}
		users = append(users, w.toModel())
	}
	return users, nil
}
