// Package products reads and, for admin flows, mutates the commerce
// backend's catalog. Listing tolerates the backend's three success-envelope
// shapes; mutation requires a session token.
package products

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/enums"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
)

// Filters narrows a catalog listing. Zero values are omitted from the query.
type Filters struct {
	Search    string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	InStock   *bool
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.InStock != nil {
		q.Set("in_stock", strconv.FormatBool(*f.InStock))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

// FileUpload is one file part of a multipart product update.
type FileUpload struct {
	Field   string
	Name    string
	Content io.Reader
}

// Client exposes catalog operations.
type Client interface {
	List(ctx context.Context, filters Filters) ([]Product, error)
	Featured(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Categories(ctx context.Context) []string
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	UpdateMultipart(ctx context.Context, id string, fields map[string]string, files []FileUpload) error
	Delete(ctx context.Context, id string) error
}

type client struct {
	api  *commerce.Client
	logg *logger.Logger
}

func NewClient(api *commerce.Client, logg *logger.Logger) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &client{api: api, logg: logg}, nil
}

func (c *client) List(ctx context.Context, filters Filters) ([]Product, error) {
	resp, err := c.api.Do(ctx, commerce.Request{
		Method: http.MethodGet,
		Path:   "/products",
		Query:  filters.query(),
	})
	if err != nil {
		return nil, err
	}
	return c.decodeList(ctx, resp), nil
}

func (c *client) Featured(ctx context.Context) ([]Product, error) {
	resp, err := c.api.Do(ctx, commerce.Request{Method: http.MethodGet, Path: "/products/featured"})
	if err != nil {
		return nil, err
	}
	return c.decodeList(ctx, resp), nil
}

func (c *client) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	resp, err := c.api.Do(ctx, commerce.Request{Method: http.MethodGet, Path: "/products/" + id, Route: "/products/{productID}"})
	if err != nil {
		return Product{}, err
	}
	items := resp.Payload.Items()
	if len(items) == 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product, err := decodeProduct(items[0])
	if err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "decode product")
	}
	return product, nil
}

// Categories lists the vehicle classes, falling back to the fixed five when
// the backend endpoint is unavailable. Never fails: category chips are
// decoration, not data.
func (c *client) Categories(ctx context.Context) []string {
	resp, err := c.api.Do(ctx, commerce.Request{Method: http.MethodGet, Path: "/products/categories"})
	if err == nil {
		var categories []string
		for _, raw := range resp.Payload.Items() {
			var name string
			if json.Unmarshal(raw, &name) == nil && name != "" {
				categories = append(categories, name)
				continue
			}
			var obj struct {
				Name string `json:"name"`
			}
			if json.Unmarshal(raw, &obj) == nil && obj.Name != "" {
				categories = append(categories, obj.Name)
			}
		}
		if len(categories) > 0 {
			return categories
		}
	} else if c.logg != nil {
		c.logg.Warn(ctx, "products.categories_fallback")
	}

	fallback := make([]string, 0, len(enums.VehicleCategories()))
	for _, category := range enums.VehicleCategories() {
		fallback = append(fallback, string(category))
	}
	return fallback
}

func (c *client) Create(ctx context.Context, product Product) (Product, error) {
	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPost,
		Path:        "/products",
		JSON:        product,
		RequireAuth: true,
	})
	if err != nil {
		return Product{}, err
	}
	items := resp.Payload.Items()
	if len(items) == 0 {
		// Backend acknowledged without echoing the record.
		return product, nil
	}
	created, err := decodeProduct(items[0])
	if err != nil {
		return product, nil
	}
	return created, nil
}

// Update submits a partial JSON replacement. An empty 2xx body counts as
// success; the backend omits bodies on some update paths.
func (c *client) Update(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPut,
		Path:        "/products/" + id,
		Route:       "/products/{productID}",
		JSON:        fields,
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	return c.checkAck(resp, "product update failed")
}

// UpdateMultipart submits an update carrying file uploads. The transport
// only reliably supports POST for multipart bodies, so the real verb rides
// in a `_method` override field.
func (c *client) UpdateMultipart(ctx context.Context, id string, fields map[string]string, files []FileUpload) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("_method", "PUT"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write method override")
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write form field")
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create form file")
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy form file")
		}
	}
	if err := writer.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize multipart body")
	}

	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPost,
		Path:        "/products/" + id,
		Route:       "/products/{productID}",
		RawBody:     &buf,
		ContentType: writer.FormDataContentType(),
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	return c.checkAck(resp, "product update failed")
}

func (c *client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodDelete,
		Path:        "/products/" + id,
		Route:       "/products/{productID}",
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	return c.checkAck(resp, "product delete failed")
}

func (c *client) decodeList(ctx context.Context, resp *commerce.Response) []Product {
	items := resp.Payload.Items()
	products := make([]Product, 0, len(items))
	for _, raw := range items {
		product, err := decodeProduct(raw)
		if err != nil {
			if c.logg != nil {
				c.logg.Warn(ctx, "products.entry_unreadable")
			}
			continue
		}
		products = append(products, product)
	}
	return products
}

func (c *client) checkAck(resp *commerce.Response, fallback string) error {
	payload := resp.Payload
	if payload.Shape == commerce.ShapeUnknown {
		// Unreadable 2xx body; the backend still acted.
		return nil
	}
	if !payload.Success {
		message := payload.Message
		if message == "" {
			message = fallback
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, message)
	}
	return nil
}
