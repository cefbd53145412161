// Package fakeapi serves an in-memory inventory and catalog over HTTP for local
// development and tests. It speaks the same routes the client package calls.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}

// MarshalJSON writes the price as a bare JSON number, the way the API reports it.
func (p Product) MarshalJSON() ([]byte, error) {
	type productJSON struct {
		ID       int64       `json:"id"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		ImageURL string      `json:"imageUrl"`
	}

	return json.Marshal(productJSON{
		ID:       p.ID,
		Name:     p.Name,
		Price:    json.Number(p.Price.String()),
		ImageURL: p.ImageURL,
	})
}

type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type Seed struct {
	Products []Product `json:"products"`
	Stock    []Stock   `json:"stock"`
}

func ReadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("json.Decode: %w", err)
	}

	return seed, nil
}

type Server struct {
	mu          sync.RWMutex
	products    map[int64]Product
	stock       map[int64]int
	unavailable bool

	logger *zap.Logger
	router chi.Router
}

func New(seed Seed, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		products: make(map[int64]Product, len(seed.Products)),
		stock:    make(map[int64]int, len(seed.Stock)),
		logger:   logger,
	}

	for _, p := range seed.Products {
		s.products[p.ID] = p
	}
	for _, st := range seed.Stock {
		s.stock[st.ID] = st.Amount
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.failWhenUnavailable)

	r.Get("/stock/{id}", s.getStock)
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) SetStock(id int64, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock[id] = amount
}

func (s *Server) PutProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
}

// SetUnavailable makes every route answer 503 until called with false.
func (s *Server) SetUnavailable(unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unavailable = unavailable
}

func (s *Server) getStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	amount, found := s.stock[id]
	s.mu.RUnlock()

	if !found {
		respondError(w, http.StatusNotFound, "stock not found")
		return
	}

	respondJSON(w, http.StatusOK, Stock{ID: id, Amount: amount})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	p, found := s.products[id]
	s.mu.RUnlock()

	if !found {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	s.mu.RUnlock()

	respondJSON(w, http.StatusOK, products)
}

func (s *Server) failWhenUnavailable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		unavailable := s.unavailable
		s.mu.RUnlock()

		if unavailable {
			respondError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}

	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
