package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"product-sheets-service/internal/models"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxExportPages bounds ListAllProducts when the backend never reports the last page.
	maxExportPages = 500
)

// CatalogClient handles communication with the catalog backend API
type CatalogClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

// APIError is a failed call to the catalog backend
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

const apiPrefix = "/api/v1"

// envelope is the backend's {success, data} response wrapper
type envelope[T any] struct {
	Success    bool                   `json:"success"`
	Data       T                      `json:"data"`
	Message    string                 `json:"message,omitempty"`
	Pagination *models.PaginationInfo `json:"pagination,omitempty"`
	Error      *models.Error          `json:"error,omitempty"`
}

// NewCatalogClient creates a new catalog backend client. baseURL is the
// service root; a trailing /api/v1 is dropped since every path carries it.
func NewCatalogClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *CatalogClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CatalogClient{
		baseURL: strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), apiPrefix),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithField("component", "catalog_client"),
	}
}

// ListProductTypes returns every product type of the tenant.
func (c *CatalogClient) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	var resp envelope[[]models.ProductType]
	if err := c.do(ctx, "list product types", http.MethodGet, "/api/v1/product-types", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListCategories returns every category of the tenant.
func (c *CatalogClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var resp envelope[[]models.Category]
	if err := c.do(ctx, "list categories", http.MethodGet, "/api/v1/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListAttributes returns the attributes attached to a product type.
func (c *CatalogClient) ListAttributes(ctx context.Context, typeID string) ([]models.Attribute, error) {
	var resp envelope[[]models.Attribute]
	path := fmt.Sprintf("/api/v1/product-types/%s/attributes", url.PathEscape(typeID))
	if err := c.do(ctx, "list attributes", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FetchReferenceData loads product types, categories and the attributes of
// every type, one request at a time.
func (c *CatalogClient) FetchReferenceData(ctx context.Context) (*models.ReferenceData, error) {
	types, err := c.ListProductTypes(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := c.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	ref := &models.ReferenceData{
		Types:      types,
		Categories: categories,
		Attributes: make(map[string][]models.Attribute, len(types)),
	}
	for _, t := range types {
		attrs, err := c.ListAttributes(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		ref.Attributes[t.ID] = attrs
	}

	c.logger.WithFields(logrus.Fields{
		"types":      len(types),
		"categories": len(categories),
	}).Debug("Loaded reference data")
	return ref, nil
}

// ListProducts returns one page of products.
func (c *CatalogClient) ListProducts(ctx context.Context, page, limit int) ([]models.Product, *models.PaginationInfo, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp envelope[[]models.Product]
	if err := c.do(ctx, "list products", http.MethodGet, "/api/v1/products?"+q.Encode(), nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Data, resp.Pagination, nil
}

// ListAllProducts pages through every product.
func (c *CatalogClient) ListAllProducts(ctx context.Context, pageSize int) ([]models.Product, error) {
	var all []models.Product
	for page := 1; page <= maxExportPages; page++ {
		products, pagination, err := c.ListProducts(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, products...)
		if len(products) == 0 || pagination == nil || !pagination.HasNext {
			break
		}
	}
	return all, nil
}

// BulkImport submits mapped products in one request. A response with
// failed rows is still a successful call.
func (c *CatalogClient) BulkImport(ctx context.Context, products []models.MappedProduct) (*models.ImportResult, error) {
	var result models.ImportResult
	req := models.BulkImportRequest{Products: products}
	if err := c.do(ctx, "bulk import", http.MethodPost, "/api/v1/products/bulk-import", req, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"submitted": len(products),
		"created":   result.Results.Created,
		"updated":   result.Results.Updated,
		"failed":    result.Results.Failed,
	}).Info("Bulk import finished")
	return &result, nil
}

func (c *CatalogClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if user, ok := UserFromContext(ctx); ok {
		user.apply(req.Header)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("op", op).Error("Catalog API call failed")
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(data)
		c.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
		}).Warn("Catalog API returned error: " + msg)
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts a readable message from an error body.
func errorMessage(body []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
