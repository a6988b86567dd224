package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tripletex-bridge/internal/config"
)

// API request retry limits. Shopify throttles aggressively on the admin API.
const (
	retryLimit       = 10
	retryInitialWait = 4 * time.Second
)

// Window bounds a listing request by creation date. Nil means unbounded.
type Window struct {
	CreatedAtMin *time.Time
	CreatedAtMax *time.Time
}

// Money decodes Shopify's stringified decimal amounts.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse money %q: %w", s, err)
	}
	*m = Money(f)
	return nil
}

type Address struct {
	Address1  string   `json:"address1"`
	City      string   `json:"city"`
	Zip       string   `json:"zip"`
	Country   string   `json:"country"`
	Phone     string   `json:"phone"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Customer struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	TotalSpent       Money     `json:"total_spent"`
	VerifiedEmail    bool      `json:"verified_email"`
	AcceptsMarketing bool      `json:"accepts_marketing"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	DefaultAddress   *Address  `json:"default_address"`
}

type TaxLine struct {
	Title string  `json:"title"`
	Price Money   `json:"price"`
	Rate  float64 `json:"rate"`
}

type MoneySet struct {
	PresentmentMoney struct {
		CurrencyCode string `json:"currency_code"`
	} `json:"presentment_money"`
	ShopMoney struct {
		CurrencyCode string `json:"currency_code"`
	} `json:"shop_money"`
}

type DiscountAllocation struct {
	Amount Money `json:"amount"`
}

type LineItem struct {
	ID                  int64                `json:"id"`
	ProductID           *int64               `json:"product_id"`
	Title               string               `json:"title"`
	VariantTitle        string               `json:"variant_title"`
	SKU                 string               `json:"sku"`
	Price               Money                `json:"price"`
	Quantity            int64                `json:"quantity"`
	Vendor              string               `json:"vendor"`
	Taxable             bool                 `json:"taxable"`
	TaxLines            []TaxLine            `json:"tax_lines"`
	PriceSet            MoneySet             `json:"price_set"`
	DiscountAllocations []DiscountAllocation `json:"discount_allocations"`
}

type ShippingLine struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Price           Money     `json:"price"`
	DiscountedPrice Money     `json:"discounted_price"`
	Title           string    `json:"title"`
	Source          string    `json:"source"`
	PriceSet        MoneySet  `json:"price_set"`
	TaxLines        []TaxLine `json:"tax_lines"`
}

type Order struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Customer          *Customer      `json:"customer"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	TotalPrice        Money          `json:"total_price"`
	TotalLineItems    Money          `json:"total_line_items_price"`
	TotalDiscounts    Money          `json:"total_discounts"`
	TotalTax          Money          `json:"total_tax"`
	TaxesIncluded     bool           `json:"taxes_included"`
	Currency          string         `json:"currency"`
	CreatedAt         time.Time      `json:"created_at"`
	ProcessedAt       *time.Time     `json:"processed_at"`
	ClosedAt          *time.Time     `json:"closed_at"`
	BillingAddress    *Address       `json:"billing_address"`
	LineItems         []LineItem     `json:"line_items"`
	ShippingLines     []ShippingLine `json:"shipping_lines"`
}

type Transaction struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"order_id"`
	Status      string     `json:"status"`
	Kind        string     `json:"kind"`
	Gateway     string     `json:"gateway"`
	Amount      Money      `json:"amount"`
	Currency    string     `json:"currency"`
	ErrorCode   string     `json:"error_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

type RefundLineItem struct {
	ID       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
	Subtotal Money `json:"subtotal"`
	LineItem struct {
		ID int64 `json:"id"`
	} `json:"line_item"`
	SubtotalSet MoneySet `json:"subtotal_set"`
}

type Refund struct {
	ID              int64            `json:"id"`
	Note            string           `json:"note"`
	CreatedAt       time.Time        `json:"created_at"`
	ProcessedAt     *time.Time       `json:"processed_at"`
	Transactions    []Transaction    `json:"transactions"`
	RefundLineItems []RefundLineItem `json:"refund_line_items"`
}

type ShopifyClient interface {
	ListCustomers(ctx context.Context, window Window, pageInfo string) ([]Customer, string, error)
	ListOrders(ctx context.Context, window Window, pageInfo string) ([]Order, string, error)
	ListProducts(ctx context.Context, window Window, pageInfo string) ([]ProductResource, string, error)
	ListTransactions(ctx context.Context, orderID int64) ([]Transaction, error)
	ListRefunds(ctx context.Context, orderID int64) ([]Refund, error)
}

type ProductVariantResource struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Price     Money     `json:"price"`
	Title     string    `json:"title"`
	SKU       string    `json:"sku"`
	Option1   string    `json:"option1"`
	Option2   string    `json:"option2"`
	Option3   string    `json:"option3"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductResource struct {
	ID          int64                    `json:"id"`
	Title       string                   `json:"title"`
	Status      string                   `json:"status"`
	ProductType string                   `json:"product_type"`
	Vendor      string                   `json:"vendor"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Variants    []ProductVariantResource `json:"variants"`
}

type shopifyClientImpl struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	password   string
	pageLimit  int
}

func NewShopifyClient(cfg *config.Shopify) ShopifyClient {
	return &shopifyClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   cfg.BaseURL(),
		apiKey:    cfg.APIKey,
		password:  cfg.Password,
		pageLimit: cfg.PageLimit,
	}
}

// pageInfoPattern extracts the next-page cursor from the Link response header.
var pageInfoPattern = regexp.MustCompile(`page_info=([^>;&]+)[^>]*>; rel="next"`)

func nextPageInfo(header http.Header) string {
	link := header.Get("Link")
	if link == "" {
		return ""
	}
	m := pageInfoPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// get performs an authenticated GET with retry on throttling and transient
// failures, decoding the body into out.
func (c *shopifyClientImpl) get(ctx context.Context, endpoint string, params url.Values, out any) (http.Header, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var header http.Header
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("http new request: %w", err))
		}
		req.SetBasicAuth(c.apiKey, c.password)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http client do: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("request to %s: status %d %s", endpoint, resp.StatusCode, resp.Status)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response from %s: %w", endpoint, err))
		}
		header = resp.Header
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialWait
	if err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, retryLimit), ctx)); err != nil {
		return nil, err
	}
	return header, nil
}

func (c *shopifyClientImpl) listParams(window Window, pageInfo string) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	// A page_info request must not carry any filter parameters.
	if pageInfo != "" {
		params.Set("page_info", pageInfo)
		return params
	}
	params.Set("status", "any")
	if window.CreatedAtMin != nil {
		params.Set("created_at_min", window.CreatedAtMin.Format(time.RFC3339))
	}
	if window.CreatedAtMax != nil {
		params.Set("created_at_max", window.CreatedAtMax.Format(time.RFC3339))
	}
	return params
}

func (c *shopifyClientImpl) ListCustomers(ctx context.Context, window Window, pageInfo string) ([]Customer, string, error) {
	var body struct {
		Customers []Customer `json:"customers"`
	}
	header, err := c.get(ctx, "/customers.json", c.listParams(window, pageInfo), &body)
	if err != nil {
		return nil, "", fmt.Errorf("list customers: %w", err)
	}
	return body.Customers, nextPageInfo(header), nil
}

func (c *shopifyClientImpl) ListOrders(ctx context.Context, window Window, pageInfo string) ([]Order, string, error) {
	var body struct {
		Orders []Order `json:"orders"`
	}
	header, err := c.get(ctx, "/orders.json", c.listParams(window, pageInfo), &body)
	if err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}
	return body.Orders, nextPageInfo(header), nil
}

func (c *shopifyClientImpl) ListProducts(ctx context.Context, window Window, pageInfo string) ([]ProductResource, string, error) {
	var body struct {
		Products []ProductResource `json:"products"`
	}
	params := c.listParams(window, pageInfo)
	params.Del("status")
	header, err := c.get(ctx, "/products.json", params, &body)
	if err != nil {
		return nil, "", fmt.Errorf("list products: %w", err)
	}
	return body.Products, nextPageInfo(header), nil
}

func (c *shopifyClientImpl) ListTransactions(ctx context.Context, orderID int64) ([]Transaction, error) {
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	endpoint := fmt.Sprintf("/orders/%d/transactions.json", orderID)
	if _, err := c.get(ctx, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("list transactions for order %d: %w", orderID, err)
	}
	return body.Transactions, nil
}

func (c *shopifyClientImpl) ListRefunds(ctx context.Context, orderID int64) ([]Refund, error) {
	var body struct {
		Refunds []Refund `json:"refunds"`
	}
	endpoint := fmt.Sprintf("/orders/%d/refunds.json", orderID)
	if _, err := c.get(ctx, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("list refunds for order %d: %w", orderID, err)
	}
	return body.Refunds, nil
}
