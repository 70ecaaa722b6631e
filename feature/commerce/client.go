package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"supplier-sync/feature/supplier"
)

const apiPath = "/wp-json/wc/v3"

// Client pushes products to the commerce platform.
type Client interface {
	// TestConnection verifies the credentials with a minimal read.
	TestConnection(ctx context.Context) error
	// FindBySKU returns the remote product id for a SKU, or 0 when the
	// store has no product with that SKU.
	FindBySKU(ctx context.Context, sku string) (int64, error)
	// CreateDraft creates a single draft product and returns its remote id.
	CreateDraft(ctx context.Context, payload ProductPayload) (int64, error)
	// UpdateDraft overwrites an existing remote product.
	UpdateDraft(ctx context.Context, remoteID int64, payload ProductPayload) error
	// BatchCreate creates up to a platform page of draft products in one
	// call. The result slice is positional: result[i] answers payloads[i].
	BatchCreate(ctx context.Context, payloads []ProductPayload) ([]BatchResult, error)
}

// BatchResult is the per-item outcome of a batch create.
type BatchResult struct {
	SKU      string
	RemoteID int64
	Err      error
}

type httpClient struct {
	cfg  Config
	log  *zap.Logger
	http *http.Client
}

// NewClient builds the platform client from config. The URL, key, and
// secret are required.
func NewClient(cfg Config, log *zap.Logger) (Client, error) {
	if cfg.URL == "" || cfg.Key == "" || cfg.Secret == "" {
		return nil, supplier.Errf(supplier.KindConfiguration, "commerce",
			"commerce url, key, and secret are required")
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &httpClient{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

func (c *httpClient) TestConnection(ctx context.Context) error {
	var out []json.RawMessage
	return c.do(ctx, http.MethodGet, "/products?per_page=1", nil, http.StatusOK, &out)
}

func (c *httpClient) FindBySKU(ctx context.Context, sku string) (int64, error) {
	var out []struct {
		ID int64 `json:"id"`
	}
	path := "/products?sku=" + url.QueryEscape(sku)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].ID, nil
}

func (c *httpClient) CreateDraft(ctx context.Context, payload ProductPayload) (int64, error) {
	payload.Status = StatusDraft
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/products", payload, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	c.log.Debug("created remote draft",
		zap.String("sku", payload.SKU),
		zap.Int64("remote_id", out.ID))
	return out.ID, nil
}

func (c *httpClient) UpdateDraft(ctx context.Context, remoteID int64, payload ProductPayload) error {
	payload.Status = StatusDraft
	path := fmt.Sprintf("/products/%d", remoteID)
	return c.do(ctx, http.MethodPut, path, payload, http.StatusOK, nil)
}

func (c *httpClient) BatchCreate(ctx context.Context, payloads []ProductPayload) ([]BatchResult, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	for i := range payloads {
		payloads[i].Status = StatusDraft
	}

	body := map[string][]ProductPayload{"create": payloads}
	var out struct {
		Create []struct {
			ID    int64  `json:"id"`
			SKU   string `json:"sku"`
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"create"`
	}
	if err := c.do(ctx, http.MethodPost, "/products/batch", body, http.StatusOK, &out); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(payloads))
	for i := range payloads {
		results[i].SKU = payloads[i].SKU
		if i >= len(out.Create) {
			results[i].Err = supplier.Errf(supplier.KindExternalPush, "commerce",
				"batch response missing item %d", i)
			continue
		}
		item := out.Create[i]
		if item.Error != nil {
			results[i].Err = supplier.Errf(supplier.KindExternalPush, "commerce",
				"batch item rejected (%s): %s", item.Error.Code, item.Error.Message)
			continue
		}
		results[i].RemoteID = item.ID
	}
	return results, nil
}

// do issues one authenticated API request and decodes the response into out
// when out is non-nil and the status matches wantStatus.
func (c *httpClient) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return supplier.WrapErr(supplier.KindExternalPush, "commerce", fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	url := strings.TrimRight(c.cfg.URL, "/") + apiPath + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return supplier.WrapErr(supplier.KindExternalPush, "commerce", fmt.Errorf("build request: %w", err))
	}
	req.SetBasicAuth(c.cfg.Key, c.cfg.Secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return supplier.WrapErr(supplier.KindTransport, "commerce", fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == wantStatus:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return supplier.Errf(supplier.KindAuthentication, "commerce",
			"%s %s: status %d", method, path, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return supplier.Errf(supplier.KindExternalPush, "commerce",
			"%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return supplier.WrapErr(supplier.KindExternalPush, "commerce", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
