// Package catalog loads the product list and customer reviews shown to the
// shopper. Both sources degrade to an empty list on any failure.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WindowSize is how many products are displayed at once.
const WindowSize = 6

// Sort keys.
const (
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortRatingDesc = "rating-desc"
)

// ErrProductNotFound is returned by Lookup for unknown IDs.
var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID     string
	Title  string
	Price  decimal.Decimal
	Image  string
	Rating *float64
}

// remoteProduct mirrors the fakestoreapi product document.
type remoteProduct struct {
	ID     json.Number     `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Rating *struct {
		Rate *float64 `json:"rate"`
	} `json:"rating"`
}

// Catalog is a loaded product list.
type Catalog struct {
	products []Product
}

func New(products ...Product) *Catalog {
	return &Catalog{products: slices.Clone(products)}
}

// Products returns all products in load order.
func (c *Catalog) Products() []Product {
	return slices.Clone(c.products)
}

// Lookup finds a product by ID.
func (c *Catalog) Lookup(id string) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Search returns products whose title contains query, ignoring case. An
// empty query matches everything.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy of products. Unknown keys keep the input order.
// Products without a rating sort as 0.
func Sort(products []Product, key string) []Product {
	out := slices.Clone(products)
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortRatingDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return compareFloat(ratingOf(b), ratingOf(a)) })
	}
	return out
}

// Window returns at most the first WindowSize products.
func Window(products []Product) []Product {
	if len(products) > WindowSize {
		return slices.Clone(products[:WindowSize])
	}
	return slices.Clone(products)
}

// Live holds the catalog and reviews currently on offer. It starts empty
// and is swapped wholesale once a background load finishes.
type Live struct {
	products atomic.Pointer[Catalog]
	reviews  atomic.Pointer[[]Review]
}

func NewLive(products *Catalog, reviews []Review) *Live {
	l := &Live{}
	if products == nil {
		products = New()
	}
	l.SetCatalog(products)
	l.SetReviews(reviews)
	return l
}

func (l *Live) Catalog() *Catalog { return l.products.Load() }

func (l *Live) SetCatalog(c *Catalog) { l.products.Store(c) }

func (l *Live) Reviews() []Review { return slices.Clone(*l.reviews.Load()) }

func (l *Live) SetReviews(reviews []Review) {
	reviews = slices.Clone(reviews)
	l.reviews.Store(&reviews)
}

// Lookup finds a product in the current catalog.
func (l *Live) Lookup(id string) (Product, error) {
	return l.Catalog().Lookup(id)
}

func ratingOf(p Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Source fetches JSON documents over HTTP.
type Source struct {
	client *http.Client
	logger *zap.Logger
}

func NewSource(client *http.Client, logger *zap.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, logger: logger}
}

// LoadProducts fetches the product list from url. Any failure is logged
// and yields an empty catalog.
func (s *Source) LoadProducts(ctx context.Context, url string) *Catalog {
	var remote []remoteProduct
	if err := s.getJSON(ctx, url, &remote); err != nil {
		s.logger.Warn("catalog unavailable, continuing with no products", zap.String("url", url), zap.Error(err))
		return New()
	}

	products := make([]Product, 0, len(remote))
	for _, r := range remote {
		p := Product{ID: r.ID.String(), Title: r.Title, Price: r.Price, Image: r.Image}
		if r.Rating != nil {
			p.Rating = r.Rating.Rate
		}
		products = append(products, p)
	}
	s.logger.Info("catalog loaded", zap.Int("products", len(products)))
	return New(products...)
}

type Review struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// LoadReviews fetches a {"reviews": [...]} document from url. Any failure
// yields no reviews.
func (s *Source) LoadReviews(ctx context.Context, url string) []Review {
	var doc struct {
		Reviews []Review `json:"reviews"`
	}
	if err := s.getJSON(ctx, url, &doc); err != nil {
		s.logger.Warn("reviews unavailable", zap.String("url", url), zap.Error(err))
		return []Review{}
	}
	if doc.Reviews == nil {
		return []Review{}
	}
	return doc.Reviews
}

// LoadInto fetches products and reviews and publishes each into live as it
// arrives. It is meant to run in its own goroutine.
func (s *Source) LoadInto(ctx context.Context, live *Live, productsURL, reviewsURL string) {
	live.SetCatalog(s.LoadProducts(ctx, productsURL))
	live.SetReviews(s.LoadReviews(ctx, reviewsURL))
}

func (s *Source) getJSON(ctx context.Context, url string, into any) error {
	if url == "" {
		return errors.New("no url configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
