// Package mockapi serves an in-memory client collection and postal code table
// over HTTP, standing in for the json-server and CEP backends during
// development and tests.
package mockapi

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/tracing"
)

// Address is the postal lookup payload, in the BrasilAPI CEP v1 shape.
type Address struct {
	CEP          string `json:"cep" yaml:"-"`
	Street       string `json:"street" yaml:"street"`
	Neighborhood string `json:"neighborhood,omitempty" yaml:"neighborhood"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
}

// Server holds the collection state.
type Server struct {
	mu          sync.Mutex
	clients     []clients.Client
	postalCodes map[string]Address
	nextID      int
	latency     time.Duration
	tracer      trace.Tracer
}

// Option customizes a Server.
type Option func(*Server)

// WithLatency delays every response, handy for exercising loading states.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithTracer records a server span per request.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// New builds a server from seed data. Numeric seed ids advance the id
// counter so new records never collide.
func New(seed Seed, opts ...Option) *Server {
	s := &Server{
		clients:     slices.Clone(seed.Clients),
		postalCodes: make(map[string]Address, len(seed.PostalCodes)),
		nextID:      1,
		tracer:      noop.NewTracerProvider().Tracer("noop"),
	}
	for code, addr := range seed.PostalCodes {
		addr.CEP = code
		s.postalCodes[code] = addr
	}
	for _, c := range s.clients {
		if n, err := strconv.Atoi(c.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Post("/", s.createClient)
		r.Get("/{id}", s.getClient)
		r.Put("/{id}", s.updateClient)
		r.Delete("/{id}", s.deleteClient)
	})
	r.Get("/cep/{code}", s.lookupPostalCode)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Clients returns a copy of the current collection.
func (s *Server) Clients() []clients.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.clients)
	if out == nil {
		out = []clients.Client{}
	}
	return out
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), tracing.SpanMockAPI,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String(tracing.AttrHTTPMethod, r.Method),
				attribute.String(tracing.AttrURL, r.URL.Path),
			))
		defer span.End()

		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-ctx.Done():
				return
			}
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, ww.Status()))
		log.Info(log.CatMockAPI, "Request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func (s *Server) listClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Clients())
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id := clients.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	idx := s.indexOf(id)
	var c clients.Client
	if idx >= 0 {
		c = s.clients[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	c := in.WithID(clients.ID(strconv.Itoa(s.nextID)))
	s.nextID++
	s.clients = append(s.clients, c)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id := clients.ID(chi.URLParam(r, "id"))
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	c := in.WithID(id)
	if idx >= 0 {
		s.clients[idx] = c
	}
	s.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	id := clients.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx >= 0 {
		s.clients = slices.Delete(s.clients, idx, idx+1)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) lookupPostalCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.Lock()
	addr, ok := s.postalCodes[code]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"name":    "CepPromiseError",
			"message": "Todos os serviços de CEP retornaram erro.",
		})
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// indexOf must be called with mu held.
func (s *Server) indexOf(id clients.ID) int {
	return slices.IndexFunc(s.clients, func(c clients.Client) bool { return c.ID == id })
}

func decodeInput(w http.ResponseWriter, r *http.Request) (clients.Input, bool) {
	var in clients.Input
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, &in)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed client"})
		return in, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorErr(log.CatMockAPI, "Failed to encode response", err)
	}
}
