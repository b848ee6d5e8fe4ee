package client

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

	"product-dashboard/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.restful-api.dev/objects"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 1 << 20
)

// ProductAPI defines the five operations of the remote product store
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (domain.Product, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (string, error)
}

// Client talks to a REST collection of product objects
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit bounds outbound requests; a non-positive rps disables it
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the collection at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProducts fetches the whole collection
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, OpList, http.MethodGet, c.baseURL, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetProduct fetches a single product
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, newValidationError(OpGet, []FieldError{{Field: "id", Message: "id is required"}})
	}

	var product domain.Product
	if err := c.do(ctx, OpGet, http.MethodGet, c.itemURL(id), nil, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// CreateProduct posts a new product
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (domain.Product, error) {
	if err := req.validate(); err != nil {
		return domain.Product{}, err
	}
	req.Name = strings.TrimSpace(req.Name)

	var product domain.Product
	if err := c.do(ctx, OpCreate, http.MethodPost, c.baseURL, req, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// UpdateProduct sends a partial update of req.ID
func (c *Client) UpdateProduct(ctx context.Context, req UpdateProductRequest) (domain.Product, error) {
	if err := req.validate(); err != nil {
		return domain.Product{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	var product domain.Product
	if err := c.do(ctx, OpUpdate, http.MethodPut, c.itemURL(req.ID), req, &product); err != nil {
		return domain.Product{}, err
	}
	if product.ID == "" {
		product.ID = req.ID
	}
	return product, nil
}

// DeleteProduct removes id and returns it. The response body is ignored.
func (c *Client) DeleteProduct(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", newValidationError(OpDelete, []FieldError{{Field: "id", Message: "id is required"}})
	}

	if err := c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil, nil); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op Op, method, target string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transportError(op, 0, "", fmt.Errorf("rate limiter: %w", err))
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return transportError(op, 0, "", fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return transportError(op, 0, "", fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Product API request failed",
			zap.String("op", string(op)),
			zap.String("method", method),
			zap.Error(err),
		)
		return transportError(op, 0, "", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Product API request completed",
		zap.String("op", string(op)),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(op, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError(op, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) errorFromResponse(op Op, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload apiError
	if len(raw) > 0 {
		// A body that is not the expected shape just means no server message
		_ = json.Unmarshal(raw, &payload)
	}

	cause := fmt.Errorf("unexpected status code: %s", resp.Status)

	if resp.StatusCode == http.StatusNotFound {
		message := payload.Error
		if strings.TrimSpace(message) == "" {
			message = op.FallbackMessage()
		}
		return &Error{Op: op, Kind: KindNotFound, Status: resp.StatusCode, Message: message, Err: cause}
	}

	return transportError(op, resp.StatusCode, payload.Error, cause)
}
