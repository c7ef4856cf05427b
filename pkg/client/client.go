// Package client provides a Go client for the law chunk API.
//
// It covers the three endpoints the viewer needs:
//   - the version endpoint, a cheap call telling which dataset revision is current;
//   - the dataset endpoint, the full payload of chunk records;
//   - the detail endpoint, the full text of one chunk by id.
//
// The client handles HTTP communication, JSON deserialization and
// standardized error handling.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sanonone/lawgraph/pkg/model"
)

// Default endpoint paths, relative to the base URL.
const (
	DefaultVersionPath = "/api/law-chunk-metadata"
	DefaultDatasetPath = "/api/law-chunks.json"
	DefaultDetailPath  = "/api/law-chunks/"
)

// --- Custom Errors ---

// APIError represents an error returned by the API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// ErrEmptyVersion is returned when the version endpoint answers without a
// version identifier.
var ErrEmptyVersion = errors.New("version endpoint returned no version")

// --- JSON Response Structs ---

// versionResponse models the response of the version endpoint.
type versionResponse struct {
	Version model.Label `json:"version"`
}

// --- Client ---

// Options configures a Client.
type Options struct {
	BaseURL     string
	VersionPath string
	DatasetPath string
	DetailPath  string
	// Timeout bounds each request, body included. Default: 30s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (Timeout is then ignored).
	HTTPClient *http.Client
}

// Client talks to the law chunk API.
type Client struct {
	baseURL     string
	versionPath string
	datasetPath string
	detailPath  string
	httpClient  *http.Client
}

// New creates a new client for the API at baseURL.
func New(baseURL string) *Client {
	return NewWithOptions(Options{BaseURL: baseURL})
}

// NewWithOptions creates a client with explicit endpoint paths and timeout.
func NewWithOptions(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		versionPath: withDefault(opts.VersionPath, DefaultVersionPath),
		datasetPath: withDefault(opts.DatasetPath, DefaultDatasetPath),
		detailPath:  withDefault(opts.DetailPath, DefaultDetailPath),
		httpClient:  opts.HTTPClient,
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// getJSON is a helper method to execute all requests to the API.
// It handles the HTTP call, error management and JSON decoding into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil && errResp["error"] != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON response for %s: %w", endpoint, err)
	}
	return nil
}

// Version returns the identifier of the dataset revision the server
// currently serves. Numeric versions are returned as their decimal text.
func (c *Client) Version(ctx context.Context) (string, error) {
	var resp versionResponse
	if err := c.getJSON(ctx, c.versionPath, &resp); err != nil {
		return "", err
	}
	if resp.Version == "" {
		return "", ErrEmptyVersion
	}
	return string(resp.Version), nil
}

// Dataset downloads the full dataset payload. Records are returned as sent;
// a badly typed record carries its decode error in RawRecord.Err instead of
// failing the download. Normalization is the loader's job.
func (c *Client) Dataset(ctx context.Context) (*model.RawDataset, error) {
	var resp model.RawDataset
	if err := c.getJSON(ctx, c.datasetPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chunk retrieves the full text and metadata of a single chunk.
func (c *Client) Chunk(ctx context.Context, id string) (*model.ChunkDetail, error) {
	if id == "" {
		return nil, errors.New("chunk id is required")
	}
	var resp model.ChunkDetail
	if err := c.getJSON(ctx, c.detailPath+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
