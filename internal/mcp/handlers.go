// File: internal/mcp/handlers.go
package mcp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/store"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

var json = jsoniter.Config{UseNumber: true, EscapeHTML: true, SortMapKeys: true}.Froze()

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Handlers serves the tool registry over HTTP.
type Handlers struct {
	log      *zap.Logger
	registry *tools.Registry
	journal  store.Journal
}

// NewHandlers creates a new Handlers instance. journal may be store.Nop{}.
func NewHandlers(logger *zap.Logger, registry *tools.Registry, journal store.Journal) *Handlers {
	if journal == nil {
		journal = store.Nop{}
	}
	return &Handlers{
		log:      logger.Named("mcp_handlers"),
		registry: registry,
		journal:  journal,
	}
}

// RegisterRoutes sets up the HTTP API routes.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", h.HandleListTools)
		r.Post("/command", h.HandleCommand)
		r.Get("/history", h.HandleHistory)
	})
}

// HandleHealthCheck is a simple handler to confirm the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleListTools returns the tool surface with parameter declarations.
func (h *Handlers) HandleListTools(w http.ResponseWriter, r *http.Request) {
	h.respondWithSuccess(w, http.StatusOK, h.registry.Tools())
}

// HandleCommand runs one tool. A tool that ran and failed is still a
// completed call, answered with 200 and status "error"; only requests that
// never reached a tool get a 4xx.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err), nil)
		return
	}
	if req.Command == "" {
		h.respondWithError(w, http.StatusBadRequest, "Command is required.", nil)
		return
	}

	h.log.Info("Received command", zap.String("command", req.Command))
	inv := h.registry.Invoke(r.Context(), req.Command, tools.Args(req.Params))

	if inv.Succeeded() {
		h.respondWithSuccess(w, http.StatusOK, inv)
		return
	}
	status := http.StatusOK
	if inv.Rejected {
		status = http.StatusBadRequest
		if _, known := h.registry.Lookup(req.Command); !known {
			status = http.StatusNotFound
		}
	}
	h.respondWithError(w, status, inv.Report, inv)
}

// HandleHistory returns the most recent journal rows, newest first.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit: %q", raw), nil)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to read journal", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Internal error reading the journal.", nil)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	h.respondWithSuccess(w, http.StatusOK, recs)
}

// respondWithError sends a standardized JSON error response.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string, data any) {
	h.respondWithStatus(w, statusCode, CommandResponse{Status: "error", Error: message, Data: data})
}

// respondWithSuccess sends a standardized JSON success response.
func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data any) {
	h.respondWithStatus(w, statusCode, CommandResponse{Status: "success", Data: data})
}

func (h *Handlers) respondWithStatus(w http.ResponseWriter, statusCode int, resp CommandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
