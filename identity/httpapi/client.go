package identityhttpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/opencircle/auth-server/identity"
	"github.com/opencircle/auth-server/internal/apiclient"
	apperrors "github.com/opencircle/auth-server/internal/errors"
)

var _ identity.Repo = (*Client)(nil)

// Client implements identity.Repo against the users data-access
// service.
type Client struct {
	api *apiclient.Client
}

func New(baseURL string) *Client {
	return &Client{api: apiclient.New(baseURL)}
}

type createdResponse struct {
	ID int64 `json:"id"`
}

func (c *Client) Create(ctx context.Context, ident *identity.Identity) (int64, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodPost, "/api/v1/users", nil, ident)
	if err != nil {
		return 0, err
	}
	if !apiclient.IsSuccess(status) {
		return 0, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var created createdResponse
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrInternal, "decode created user: %v", err)
	}
	return created.ID, nil
}

func (c *Client) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	return c.getByFilter(ctx, url.Values{"email": {email}, "limit": {"1"}})
}

func (c *Client) GetByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	return c.getByFilter(ctx, url.Values{"username": {username}, "limit": {"1"}})
}

func (c *Client) GetByID(ctx context.Context, id int64) (*identity.Identity, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	if !apiclient.IsSuccess(status) {
		return nil, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var ident identity.Identity
	if err := json.Unmarshal(envelope.Data, &ident); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "decode user: %v", err)
	}
	return &ident, nil
}

func (c *Client) getByFilter(ctx context.Context, query url.Values) (*identity.Identity, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodGet, "/api/v1/users", query, nil)
	if err != nil {
		return nil, err
	}
	if !apiclient.IsSuccess(status) {
		return nil, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var idents []*identity.Identity
	if err := json.Unmarshal(envelope.Data, &idents); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "decode users: %v", err)
	}
	if len(idents) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return idents[0], nil
}
