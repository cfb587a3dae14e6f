// Package httpapi exposes a ListGo engine over HTTP/JSON.
//
// The boundary is deliberately tolerant: unparsable paging parameters fall
// back to defaults and unknown ids pass through (the core drops them), but
// malformed JSON bodies and disallowed origins are rejected before they
// reach the engine.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/codec"
	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
)

// Server wires a ListGo engine to the HTTP API:
//
//	GET  /api/items?page=<int>&limit=<int>&search=<string>
//	GET  /api/selected
//	POST /api/selected
//	POST /api/order
type Server struct {
	engine *listgo.ListGo
	opts   options
}

type options struct {
	logger          *listgo.Logger
	codec           codec.Codec
	allowedOrigins  map[string]struct{}
	limiter         *rate.Limiter
	maxBodyBytes    int64
	defaultPageSize int
	maxPageSize     int
}

// Option configures the Server.
type Option func(*options)

// WithLogger sets the structured logger for request tracing.
func WithLogger(l *listgo.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the codec used for request/response bodies.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithAllowedOrigins sets the origins allowed to make cross-origin calls
// with credentials. Requests without an Origin header (curl, same-origin)
// are always allowed; cross-origin requests from other origins are
// rejected before reaching the engine.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		for _, origin := range origins {
			o.allowedOrigins[origin] = struct{}{}
		}
	}
}

// WithRateLimit bounds the request rate across all endpoints.
// rps is the sustained requests per second, burst the burst size.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxBodyBytes caps the size of request bodies.
// Default: 8 MiB, enough for a full-dataset id array.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithPageSizeBounds sets the default page size used when the limit
// parameter is absent or unparsable, and the maximum a client may request.
func WithPageSizeBounds(def, max int) Option {
	return func(o *options) {
		if def > 0 {
			o.defaultPageSize = def
		}
		if max > 0 {
			o.maxPageSize = max
		}
	}
}

// NewServer creates a Server around the given engine.
func NewServer(engine *listgo.ListGo, optFns ...Option) *Server {
	opts := options{
		logger:          listgo.NoopLogger(),
		codec:           codec.Default,
		allowedOrigins:  make(map[string]struct{}),
		maxBodyBytes:    8 << 20,
		defaultPageSize: 20,
		maxPageSize:     1000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{engine: engine, opts: opts}
}

// Handler returns the routed HTTP handler with logging, CORS and rate
// limiting applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.corsMiddleware, s.rateLimitMiddleware)

	r.Methods(http.MethodGet, http.MethodOptions).Path("/api/items").HandlerFunc(s.handleItems)
	r.Methods(http.MethodGet, http.MethodOptions).Path("/api/selected").HandlerFunc(s.handleGetSelected)
	r.Methods(http.MethodPost, http.MethodOptions).Path("/api/selected").HandlerFunc(s.handleReplaceSelected)
	r.Methods(http.MethodPost, http.MethodOptions).Path("/api/order").HandlerFunc(s.handleReplaceOrder)
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.opts.logger.InfoContext(r.Context(), "handled",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", m.Duration,
			"status", m.Code,
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Same-origin or non-browser client.
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := s.opts.allowedOrigins[origin]; !ok {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.limiter != nil && !s.opts.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 0)
	if page < 0 {
		page = 0
	}
	limit := parseIntDefault(q.Get("limit"), s.opts.defaultPageSize)
	if limit <= 0 {
		limit = s.opts.defaultPageSize
	}
	if limit > s.opts.maxPageSize {
		limit = s.opts.maxPageSize
	}

	result, err := s.engine.Query(r.Context(), page, limit, q.Get("search"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []dataset.Item{}
	}
	s.writeJSON(w, items)
}

func (s *Server) handleGetSelected(w http.ResponseWriter, r *http.Request) {
	ids := s.engine.Selection()
	if ids == nil {
		ids = []core.ItemID{}
	}
	s.writeJSON(w, ids)
}

func (s *Server) handleReplaceSelected(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.readIDs(w, r)
	if !ok {
		return
	}
	if err := s.engine.ReplaceSelection(r.Context(), ids); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReplaceOrder(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.readIDs(w, r)
	if !ok {
		return
	}
	if err := s.engine.ReplaceOrder(r.Context(), ids); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// readIDs decodes a JSON array of ids from the request body.
// On failure it writes the error response and returns ok=false.
func (s *Server) readIDs(w http.ResponseWriter, r *http.Request) ([]core.ItemID, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
		}
		return nil, false
	}

	var ids []core.ItemID
	if err := s.opts.codec.Unmarshal(body, &ids); err != nil {
		http.Error(w, "malformed id array", http.StatusBadRequest)
		return nil, false
	}
	return ids, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := s.opts.codec.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listgo.ErrClosed):
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
	case errors.Is(err, listgo.ErrInvalidPage), errors.Is(err, listgo.ErrInvalidLimit):
		// The boundary clamps paging parameters, so this indicates a bug.
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
