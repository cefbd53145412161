// Package client talks to the inventory and catalog HTTP API:
//
//	GET /stock/{id}    -> {"id": 1, "amount": 3}
//	GET /products/{id} -> {"id": 1, "name": "...", "price": 179.9, "imageUrl": "..."}
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/nikolayk812/cartstate/internal/port"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	currency   currency.Unit
	products   singleflight.Group // collapses concurrent lookups of the same product
}

var (
	_ port.Inventory = (*Client)(nil)
	_ port.Catalog   = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient replaces the default client. Its transport is still wrapped with otelhttp.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCurrency sets the currency of catalog prices, which the API reports as bare numbers.
func WithCurrency(unit currency.Unit) Option {
	return func(c *Client) {
		c.currency = unit
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("baseURL[%s] is not absolute", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		currency:   currency.BRL,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := c.httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c.httpClient = &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   c.httpClient.Timeout,
	}

	return c, nil
}

type stockResponse struct {
	ID     int64 `json:"id"`
	Amount *int  `json:"amount"`
}

type productResponse struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"imageUrl"`
}

func (c *Client) GetStock(ctx context.Context, productID domain.ProductID) (domain.StockRecord, error) {
	var resp stockResponse
	if err := c.getJSON(ctx, "stock", productID, &resp); err != nil {
		return domain.StockRecord{}, fmt.Errorf("c.getJSON: %w", err)
	}

	if resp.Amount == nil {
		return domain.StockRecord{}, fmt.Errorf("stock[%d] has no amount", productID)
	}
	if *resp.Amount < 0 {
		return domain.StockRecord{}, fmt.Errorf("stock[%d] amount[%d] is negative", productID, *resp.Amount)
	}

	return domain.StockRecord{
		ProductID: productID,
		Amount:    *resp.Amount,
	}, nil
}

// GetProduct shares one request among concurrent callers of the same product.
// The shared request is detached from any single caller's cancellation and is
// bounded by the client timeout; each caller still returns when its own ctx is done.
func (c *Client) GetProduct(ctx context.Context, productID domain.ProductID) (domain.Product, error) {
	key := strconv.FormatInt(int64(productID), 10)

	ch := c.products.DoChan(key, func() (any, error) {
		var resp productResponse
		if err := c.getJSON(context.WithoutCancel(ctx), "products", productID, &resp); err != nil {
			return domain.Product{}, fmt.Errorf("c.getJSON: %w", err)
		}

		return c.mapProductResponseToDomain(productID, resp)
	})

	select {
	case <-ctx.Done():
		return domain.Product{}, fmt.Errorf("product[%d]: %w", productID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Product{}, res.Err
		}

		return res.Val.(domain.Product), nil
	}
}

func (c *Client) mapProductResponseToDomain(productID domain.ProductID, resp productResponse) (domain.Product, error) {
	if resp.ID != int64(productID) {
		return domain.Product{}, fmt.Errorf("product[%d] response has id[%d]", productID, resp.ID)
	}
	if resp.Price == nil {
		return domain.Product{}, fmt.Errorf("product[%d] has no price", productID)
	}

	return domain.Product{
		ID:       productID,
		Name:     resp.Name,
		Price:    domain.Money{Amount: *resp.Price, Currency: c.currency},
		ImageURL: resp.ImageURL,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, resource string, productID domain.ProductID, dst any) error {
	endpoint := c.baseURL.JoinPath(resource, strconv.FormatInt(int64(productID), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s[%d]: %w", resource, productID, port.ErrProductNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s[%d]: unexpected status %d: %s",
			resource, productID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	return nil
}
