package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/nhle/tracerx/internal/model"
)

// UserUpdate is a partial user update; nil fields are not sent.
type UserUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// ListUsers fetches every user visible to the caller.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	const endpoint = "/users"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireUser](endpoint, "users", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireUser.toModel), nil
}

// GetUser fetches a single user.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	path := "/users/" + escape(id)
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return DecodeUser(path, raw)
}

// UpdateUser applies a partial update and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, id string, u UserUpdate) (*model.User, error) {
	path := "/users/" + escape(id)
	raw, err := c.Put(ctx, path, u)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return DecodeUser(path, raw)
}

// DeactivateUser deactivates a user account.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/users/"+escape(id))
	return err
}

// UserStatsOverview fetches the user counters.
func (c *Client) UserStatsOverview(ctx context.Context) (*model.UserStats, error) {
	const endpoint = "/users/stats/overview"
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	w, err := decodeObject[wireUserStats](endpoint, "stats", raw)
	if err != nil {
		return nil, err
	}
	s := w.toModel()
	return &s, nil
}

// SearchCollaborators finds users matching query. An empty query lists
// every collaborator.
func (c *Client) SearchCollaborators(ctx context.Context, query string) ([]model.User, error) {
	const endpoint = "/users/search/collaborators"
	raw, err := c.Get(ctx, withQuery(endpoint, url.Values{"search": {query}}))
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireUser](endpoint, "users", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireUser.toModel), nil
}

// UpdateAvatar uploads a new avatar image as multipart form data.
func (c *Client) UpdateAvatar(
	ctx context.Context,
	userID string,
	filename string,
	image io.Reader,
) (*model.User, error) {
	path := "/users/" + escape(userID) + "/avatar"
	if c.tokens.Token() == "" {
		return nil, &APIError{
			Status:  http.StatusUnauthorized,
			Message: "Not authenticated",
			Method:  http.MethodPatch,
			Path:    path,
		}
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("avatar", filename)
	if err != nil {
		return nil, fmt.Errorf("creating avatar form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copying avatar: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing avatar form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	raw, err := c.send(req, http.MethodPatch, path)
	if err != nil {
		return nil, err
	}
	return DecodeUser(path, raw)
}

// DecodeUser decodes a user payload in any of the accepted shapes,
// including {user: {...}}.
func DecodeUser(endpoint string, raw json.RawMessage) (*model.User, error) {
	w, err := decodeObject[wireUser](endpoint, "user", raw)
	if err != nil {
		return nil, err
	}
	u := w.toModel()
	return &u, nil
}

// DecodeSession decodes the {token, user} payload returned by the login
// and register endpoints.
func DecodeSession(endpoint string, raw json.RawMessage) (string, *model.User, error) {
	type sessionPayload struct {
		Token flexString      `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	p, err := decodeObject[sessionPayload](endpoint, "", raw)
	if err != nil {
		return "", nil, err
	}
	if p.Token == "" {
		return "", nil, &DecodeError{Endpoint: endpoint, Reason: "response has no token"}
	}
	if isNull(p.User) {
		return "", nil, &DecodeError{Endpoint: endpoint, Reason: "response has no user"}
	}
	u, err := DecodeUser(endpoint, p.User)
	if err != nil {
		return "", nil, err
	}
	return string(p.Token), u, nil
}
