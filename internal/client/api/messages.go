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

	"github.com/atinyakov/slashmsg/internal/models"
)

// Conversations fetches the rolling conversation list, most recent
// first as ordered by the server.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var convos []models.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/messages/conversations", nil, &convos); err != nil {
		return nil, err
	}
	return convos, nil
}

// History fetches the full message history with the given user.
func (c *Client) History(ctx context.Context, userID string) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/messages/with/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendRequest is the payload for sending one message. Exactly one of
// Text or MediaURL is set, matching Kind.
type SendRequest struct {
	ToIdentifier string `json:"to_identifier"`
	Kind         string `json:"kind"`
	Text         string `json:"text,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
}

// SendResponse carries the server-assigned fields of a sent message.
type SendResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// Send submits one message.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	var resp SendResponse
	if err := c.doJSON(ctx, http.MethodPost, "/messages/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadResponse describes a stored media file: the server-relative
// URL it is served from and the inferred message kind.
type UploadResponse struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// Upload stores a media file on the backend via multipart form upload.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}
	var up UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &up, nil
}

// Search finds users matching the query by username, name or number.
func (c *Client) Search(ctx context.Context, q string) ([]models.User, error) {
	var users []models.User
	path := "/users/search?q=" + url.QueryEscape(q)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Block blocks the given user.
func (c *Client) Block(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, "/block/"+url.PathEscape(userID), nil, nil)
}

// Unblock removes a block on the given user.
func (c *Client) Unblock(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/block/"+url.PathEscape(userID), nil, nil)
}
