package paperless

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avoelk/paperroute/internal/core/domain"
)

// Per-operation timeouts. The binary download is allowed to run long;
// tag lookups are cheap.
const (
	documentTimeout = 60 * time.Second
	downloadTimeout = 120 * time.Second
	tagTimeout      = 20 * time.Second
)

// Client talks to the Paperless-ngx REST API with token auth.
type Client struct {
	baseURL      string
	token        string
	downloadPath string
	httpClient   *http.Client
}

func New(baseURL, token, downloadPath string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		downloadPath: downloadPath,
		httpClient:   &http.Client{},
	}
}

// ListRecent returns a bounded page of the newest documents first.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()

	var response struct {
		Results []domain.DocumentSummary `json:"results"`
	}
	path := fmt.Sprintf("/api/documents/?ordering=-created&page_size=%d", limit)
	if err := c.getJSON(ctx, path, &response, "list documents"); err != nil {
		return nil, err
	}
	return response.Results, nil
}

func (c *Client) GetDetail(ctx context.Context, id int) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()

	var doc domain.Document
	if err := c.getJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), &doc, "get document"); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetBinary downloads the source file for forwarding.
func (c *Client) GetBinary(ctx context.Context, id int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf(c.downloadPath, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "download document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("download document", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "read document body", err)
	}
	return data, nil
}

// ApplyLabels unions the given label ids into the document's current
// tag set. The write is idempotent: re-applying ids already present
// produces the same sorted set.
func (c *Client) ApplyLabels(ctx context.Context, id int, labelIDs []int) error {
	doc, err := c.GetDetail(ctx, id)
	if err != nil {
		return err
	}

	current := make(map[int]struct{}, len(doc.Tags)+len(labelIDs))
	for _, tag := range doc.Tags {
		current[tag] = struct{}{}
	}
	for _, tag := range labelIDs {
		current[tag] = struct{}{}
	}

	union := make([]int, 0, len(current))
	for tag := range current {
		union = append(union, tag)
	}
	sort.Ints(union)

	ctx, cancel := context.WithTimeout(ctx, tagTimeout)
	defer cancel()
	return c.patchJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), map[string]any{"tags": union}, "patch document tags")
}

// FindLabel resolves a label name to its repository id, reporting
// false when no such label exists.
func (c *Client) FindLabel(ctx context.Context, name string) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, tagTimeout)
	defer cancel()

	var response struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	path := "/api/tags/?name__iexact=" + url.QueryEscape(name)
	if err := c.getJSON(ctx, path, &response, "find tag"); err != nil {
		return 0, false, err
	}
	if len(response.Results) == 0 {
		return 0, false, nil
	}
	return response.Results[0].ID, true, nil
}

func (c *Client) CreateLabel(ctx context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, tagTimeout)
	defer cancel()

	var created struct {
		ID int `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/tags/", map[string]any{"name": name}, &created, "create tag"); err != nil {
		return 0, err
	}
	return created.ID, nil
}
