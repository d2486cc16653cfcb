// Package photos talks to the Google Photos Library REST API: album creation,
// raw byte uploads and media item registration.
package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"drive2photos/internal/domain"
)

const (
	DefaultBaseURL = "https://photoslibrary.googleapis.com/v1"
	statusSuccess  = "Success"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	client  HTTPDoer
}

func NewClient(baseURL string, client HTTPDoer) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

type albumRequest struct {
	Album struct {
		Title string `json:"title"`
	} `json:"album"`
}

type albumResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (c *Client) CreateAlbum(ctx context.Context, title string) (domain.Album, error) {
	var body albumRequest
	body.Album.Title = title
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Album{}, fmt.Errorf("encode album request: %w", err)
	}

	respBody, err := c.post(ctx, "Album creation", "/albums", "application/json", payload, nil)
	if err != nil {
		return domain.Album{}, err
	}

	var album albumResponse
	if err := json.Unmarshal(respBody, &album); err != nil {
		return domain.Album{}, fmt.Errorf("decode album response: %w", err)
	}
	if album.Title == "" {
		album.Title = title
	}
	return domain.Album{ID: album.ID, Title: album.Title}, nil
}

// UploadBytes sends raw content and returns the upload token the service
// hands back as the plain response body.
func (c *Client) UploadBytes(ctx context.Context, data []byte, fileName, mimeType string) (string, error) {
	headers := map[string]string{
		"X-Goog-Upload-Content-Type": mimeType,
		"X-Goog-Upload-Protocol":     "raw",
		"X-Goog-Upload-File-Name":    fileName,
	}
	body, err := c.post(ctx, "Upload", "/uploads", "application/octet-stream", data, headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type simpleMediaItem struct {
	UploadToken string `json:"uploadToken"`
	FileName    string `json:"fileName"`
}

type newMediaItem struct {
	Description     string          `json:"description"`
	SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
}

type batchCreateRequest struct {
	AlbumID       string         `json:"albumId,omitempty"`
	NewMediaItems []newMediaItem `json:"newMediaItems"`
}

type batchCreateResponse struct {
	NewMediaItemResults []struct {
		UploadToken string `json:"uploadToken"`
		Status      struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
		MediaItem struct {
			ID string `json:"id"`
		} `json:"mediaItem"`
	} `json:"newMediaItemResults"`
}

// CreateMediaItem registers uploaded bytes as a media item, placing it in the
// album when one is given. A 200 response can still carry a per-item failure.
func (c *Client) CreateMediaItem(ctx context.Context, item domain.NewMediaItem) (string, error) {
	payload, err := json.Marshal(batchCreateRequest{
		AlbumID: item.AlbumID,
		NewMediaItems: []newMediaItem{{
			Description: item.Description,
			SimpleMediaItem: simpleMediaItem{
				UploadToken: item.UploadToken,
				FileName:    item.FileName,
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode media item request: %w", err)
	}

	const op = "Media item creation"
	respBody, err := c.post(ctx, op, "/mediaItems:batchCreate", "application/json", payload, nil)
	if err != nil {
		return "", err
	}

	var resp batchCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode media item response: %w", err)
	}
	if len(resp.NewMediaItemResults) == 0 {
		return "", &domain.ServiceError{Op: op, StatusCode: http.StatusOK, Message: "Unknown error"}
	}
	result := resp.NewMediaItemResults[0]
	if result.Status.Message != statusSuccess {
		message := result.Status.Message
		if message == "" {
			message = "Unknown error"
		}
		return "", &domain.ServiceError{Op: op, StatusCode: http.StatusOK, Message: message}
	}
	return result.MediaItem.ID, nil
}

// post sends a request and returns the response body. Any non-200 answer is a
// ServiceError carrying the body text.
func (c *Client) post(ctx context.Context, op, path, contentType string, payload []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", strings.ToLower(op), err)
	}
	req.Header.Set("Content-Type", contentType)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", strings.ToLower(op), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", strings.ToLower(op), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}
	return body, nil
}
