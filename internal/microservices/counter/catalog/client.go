// Package catalog resolves item prices against the product catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coffeeshop-counter/internal/common/logger"
	"coffeeshop-counter/internal/config"
	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	lg      *logger.Logger
}

// NewClient builds a resolver for cfg. A nil httpClient gets a traced client
// with cfg.Timeout.
func NewClient(cfg config.CatalogConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		lg:      logger.New("catalog-client"),
	}
}

// ResolvePrices asks the catalog for every distinct code in one request.
// Codes the catalog does not know are simply absent from the result.
func (c *Client) ResolvePrices(ctx context.Context, itemTypes []dao.ItemType) (dao.PriceTable, error) {
	distinct := dedupe(itemTypes)
	if len(distinct) == 0 {
		return dao.PriceTable{}, nil
	}

	ctx, span := otel.Tracer("counter/catalog").Start(ctx, "catalog.ResolvePrices")
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.item_types", len(distinct)))

	endpoint := c.baseURL + "/items-by-types/" + joinCodes(distinct)
	c.lg.DebugContext(ctx, "catalog_request", map[string]any{"url": endpoint})

	prices, err := c.fetch(ctx, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	table := make(dao.PriceTable, len(prices))
	for _, p := range prices {
		table[p.ItemType] = p.Price
	}
	return table, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]dao.ItemPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("GET %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var prices []dao.ItemPrice
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&prices); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return prices, nil
}

func dedupe(types []dao.ItemType) []dao.ItemType {
	seen := make(map[dao.ItemType]struct{}, len(types))
	out := make([]dao.ItemType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func joinCodes(types []dao.ItemType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = strconv.Itoa(int(t))
	}
	return strings.Join(parts, ",")
}
