package refreshhttpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/opencircle/auth-server/internal/apiclient"
	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/token/refresh"
)

var _ refresh.Repo = (*Client)(nil)

// Client implements refresh.Repo against the tokens data-access
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

type revokedResponse struct {
	Revoked bool `json:"revoked"`
}

func (c *Client) Insert(ctx context.Context, record *refresh.Record) (int64, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodPost, "/api/v1/tokens", nil, record)
	if err != nil {
		return 0, err
	}
	if !apiclient.IsSuccess(status) {
		return 0, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var created createdResponse
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrInternal, "decode created token: %v", err)
	}
	return created.ID, nil
}

func (c *Client) GetByHash(ctx context.Context, hash string) (*refresh.Record, error) {
	records, err := c.list(ctx, url.Values{"refresh_token_hash": {hash}, "limit": {"1"}})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return records[0], nil
}

func (c *Client) ListByUser(ctx context.Context, userID int64) ([]*refresh.Record, error) {
	return c.list(ctx, url.Values{"user_id": {strconv.FormatInt(userID, 10)}})
}

func (c *Client) list(ctx context.Context, query url.Values) ([]*refresh.Record, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodGet, "/api/v1/tokens", query, nil)
	if err != nil {
		return nil, err
	}
	if !apiclient.IsSuccess(status) {
		return nil, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var records []*refresh.Record
	if err := json.Unmarshal(envelope.Data, &records); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "decode tokens: %v", err)
	}
	return records, nil
}

func (c *Client) Revoke(ctx context.Context, id int64) (bool, error) {
	status, envelope, err := c.api.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/tokens/%d", id), nil, nil)
	if err != nil {
		return false, err
	}
	if !apiclient.IsSuccess(status) {
		return false, apiclient.ErrorFromStatus(status, envelope.Message)
	}

	var revoked revokedResponse
	if err := json.Unmarshal(envelope.Data, &revoked); err != nil {
		return false, apperrors.Wrapf(apperrors.ErrInternal, "decode revoke result: %v", err)
	}
	return revoked.Revoked, nil
}
