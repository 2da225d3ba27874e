package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/tasks"
)

// DefaultMaxReferences bounds the size of a single resolve request.
const DefaultMaxReferences = 1000

// BatchResolver resolves a set of references as one batch.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, refs []models.RemoteItemReference, prog chan<- tasks.ProgressUpdate) (tasks.BatchResult, error)
}

// CacheController exposes the resolver's cache.
type CacheController interface {
	ClearCache()
	CacheLen() int
}

// RecordFunc persists a completed batch, e.g. to the resolution ledger.
type RecordFunc func(kind string, started, finished time.Time, results map[string]models.ResolvedTrack) (*models.Run, error)

// APIOpts configures an [API].
type APIOpts struct {
	Batch         BatchResolver
	Cache         CacheController
	Record        RecordFunc // optional
	MaxReferences int
	Logger        *log.Logger
}

// API serves the resolution endpoints.
type API struct {
	batch   BatchResolver
	cache   CacheController
	record  RecordFunc
	maxRefs int
	logger  *log.Logger
}

// ResolveRequest is the body of POST /api/resolve.
type ResolveRequest struct {
	References []models.RemoteItemReference `json:"references"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewAPI creates the API handler.
func NewAPI(opts APIOpts) *API {
	if opts.MaxReferences <= 0 {
		opts.MaxReferences = DefaultMaxReferences
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	return &API{
		batch:   opts.Batch,
		cache:   opts.Cache,
		record:  opts.Record,
		maxRefs: opts.MaxReferences,
		logger:  shared.WithLogger(opts.Logger, "component", "api"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (a *API) Routes() []string {
	return []string{"/api/resolve", "/api/cache/clear", "/health"}
}

// ServeHTTP dispatches on path and method.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/resolve":
		a.allow(w, r, http.MethodPost, a.resolve)
	case "/api/cache/clear":
		a.allow(w, r, http.MethodPost, a.clearCache)
	case "/health":
		a.allow(w, r, http.MethodGet, a.health)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (a *API) allow(w http.ResponseWriter, r *http.Request, method string, h http.HandlerFunc) {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h(w, r)
}

func (a *API) resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(req.References) == 0 {
		writeError(w, http.StatusBadRequest, "references must not be empty")
		return
	}
	if len(req.References) > a.maxRefs {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d references per request", a.maxRefs))
		return
	}
	for i, ref := range req.References {
		if !ref.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("references[%d] requires feedGuid and itemGuid", i))
			return
		}
	}

	started := time.Now().UTC()
	result, err := a.batch.ResolveBatch(r.Context(), req.References, nil)
	if err != nil {
		a.logger.Warn("batch interrupted", "error", err, "references", len(req.References))
		writeError(w, http.StatusServiceUnavailable, "resolution interrupted")
		return
	}

	if a.record != nil {
		if _, err := a.record("api", started, time.Now().UTC(), result); err != nil {
			a.logger.Warn("failed to record run", "error", err)
		}
	}

	a.logger.Info("batch resolved", "summary", result.Summary())
	writeJSON(w, http.StatusOK, result)
}

func (a *API) clearCache(w http.ResponseWriter, r *http.Request) {
	cleared := a.cache.CacheLen()
	a.cache.ClearCache()
	a.logger.Info("cache cleared", "feeds", cleared)
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cachedFeeds": a.cache.CacheLen()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
