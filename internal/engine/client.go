package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Searcher looks up candidate characters. It is unauthenticated.
type Searcher interface {
	Search(ctx context.Context, term string) ([]SearchResult, error)
}

// CollectionClient is the stateless request/response wrapper around the user's
// remote collection. Every call carries the client identity.
type CollectionClient interface {
	FetchCollection(ctx context.Context, identity string) ([]CollectionEntry, error)
	AddEntry(ctx context.Context, identity string, entry NewEntry) (string, error)
	DeleteEntry(ctx context.Context, identity string, entryID int) error
}

// StoreClient implements Searcher and CollectionClient over HTTP.
type StoreClient struct {
	BaseURL *url.URL
	Client  *http.Client
}

// NewStoreClient validates the backend URL and configures the transport timeouts.
func NewStoreClient(baseURL string) (*StoreClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}
	return &StoreClient{
		BaseURL: u,
		Client:  &http.Client{Timeout: config.HTTPTimeout},
	}, nil
}

// Search issues GET /search/{term}. Results keep the backend's order.
func (c *StoreClient) Search(ctx context.Context, term string) ([]SearchResult, error) {
	var out []SearchResult
	path := config.RouteSearch + url.PathEscape(term)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchCollection issues GET /dashboard and returns the authoritative list.
func (c *StoreClient) FetchCollection(ctx context.Context, identity string) ([]CollectionEntry, error) {
	out := []CollectionEntry{}
	if err := c.do(ctx, http.MethodGet, config.RouteDashboard, identity, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddEntry issues POST /add and returns the backend's confirmation message.
func (c *StoreClient) AddEntry(ctx context.Context, identity string, entry NewEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	var resp AddResponse
	if err := c.do(ctx, http.MethodPost, config.RouteAdd, identity, entry, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteEntry issues DELETE /delete/{id}. No response body is required.
func (c *StoreClient) DeleteEntry(ctx context.Context, identity string, entryID int) error {
	return c.do(ctx, http.MethodDelete, config.RouteDelete+strconv.Itoa(entryID), identity, nil, nil)
}

// do performs one round trip. Transport failures wrap ErrNetwork, non-2xx
// statuses become *StatusError.
func (c *StoreClient) do(ctx context.Context, method, path, identity string, body, out any) error {
	target, err := url.Parse(strings.TrimRight(c.BaseURL.String(), "/") + path)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompClient),
		slog.String(config.LogKeyMethod, method),
		slog.String(config.LogKeyURL, target.Scheme+"://"+target.Host+target.Path),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrEncode, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeJSON)
	if body != nil {
		req.Header.Set(config.HeaderContentType, config.MimeJSON)
	}
	if identity != "" {
		req.Header.Set(config.HeaderUserID, identity)
	}

	log.Debug(config.MsgRequest)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			se.Detail = eb.Detail
		}
		log.Warn(config.MsgRequestFailed, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return se
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrServer, config.ErrDecode, err)
	}
	return nil
}
