// Package drive reads folder listings and file content from the Google Drive
// v3 REST API.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"drive2photos/internal/domain"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/drive/v3"
	listPageSize   = 1000
	listFields     = "nextPageToken, files(id, name, mimeType, size, createdTime, modifiedTime, imageMediaMetadata, md5Checksum)"
)

// HTTPDoer is satisfied by *http.Client; the authorized client from the auth
// package is passed in production.
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

type fileResource struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	MimeType           string                  `json:"mimeType"`
	Size               *int64                  `json:"size,omitempty,string"`
	CreatedTime        *time.Time              `json:"createdTime,omitempty"`
	ModifiedTime       *time.Time              `json:"modifiedTime,omitempty"`
	MD5Checksum        string                  `json:"md5Checksum,omitempty"`
	ImageMediaMetadata *domain.CaptureMetadata `json:"imageMediaMetadata,omitempty"`
}

type fileList struct {
	Files         []fileResource `json:"files"`
	NextPageToken string         `json:"nextPageToken"`
}

func (f fileResource) entry() domain.Entry {
	return domain.Entry{
		ID:            f.ID,
		Name:          f.Name,
		TypeMarker:    f.MimeType,
		MimeType:      f.MimeType,
		Size:          f.Size,
		CreatedTime:   f.CreatedTime,
		ModifiedTime:  f.ModifiedTime,
		Checksum:      f.MD5Checksum,
		ImageMetadata: f.ImageMediaMetadata,
	}
}

// GetName returns the display name of a file or folder.
func (c *Client) GetName(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("fields", "name")

	var file fileResource
	if err := c.getJSON(ctx, "/files/"+url.PathEscape(id), params, &file); err != nil {
		return "", fmt.Errorf("get name of %s: %w", id, err)
	}
	return file.Name, nil
}

// FindFolder looks up a non-trashed child folder by exact name.
func (c *Client) FindFolder(ctx context.Context, parentID, name string) (string, bool, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), escapeQuery(name), domain.FolderType))
	params.Set("spaces", "drive")
	params.Set("fields", "files(id, name)")
	params.Set("pageSize", "1")

	var list fileList
	if err := c.getJSON(ctx, "/files", params, &list); err != nil {
		return "", false, fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].ID, true, nil
}

// ListPage returns one page of the non-trashed children of parentID.
func (c *Client) ListPage(ctx context.Context, parentID, pageToken string) (domain.Page, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID)))
	params.Set("spaces", "drive")
	params.Set("fields", listFields)
	params.Set("pageSize", fmt.Sprint(listPageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var list fileList
	if err := c.getJSON(ctx, "/files", params, &list); err != nil {
		return domain.Page{}, fmt.Errorf("list folder %s: %w", parentID, err)
	}

	page := domain.Page{
		Entries:       make([]domain.Entry, 0, len(list.Files)),
		NextPageToken: list.NextPageToken,
	}
	for _, file := range list.Files {
		page.Entries = append(page.Entries, file.entry())
	}
	return page, nil
}

// Download fetches the full content of a file.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	params := url.Values{}
	params.Set("alt", "media")

	resp, err := c.do(ctx, "/files/"+url.PathEscape(id), params)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", id, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.do(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode drive response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build drive request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.ServiceError{
			Op:         "Drive request",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// escapeQuery escapes a value for use inside a single-quoted Drive query
// string literal.
func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}
