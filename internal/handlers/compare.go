package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/buildkart/api/internal/platform/httpx"
	"github.com/buildkart/api/internal/services"
)

// CompareHandlers exposes the product comparison table endpoint.
type CompareHandlers struct {
	comparison *services.ComparisonService
}

// NewCompareHandlers constructs a new CompareHandlers instance.
func NewCompareHandlers(comparison *services.ComparisonService) *CompareHandlers {
	return &CompareHandlers{comparison: comparison}
}

// Routes registers the /compare endpoint.
func (h *CompareHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.compare)
}

func (h *CompareHandlers) compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.comparison == nil {
		writeServiceUnavailable(ctx, w, "comparison")
		return
	}

	ids := parseIDList(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		httpx.WriteError(ctx, w, httpx.BadRequest("ids query parameter is required"))
		return
	}

	table, err := h.comparison.Compare(ctx, ids)
	if err != nil {
		if errors.Is(err, services.ErrNoProducts) {
			httpx.WriteError(ctx, w, httpx.NotFound("products_not_found", "none of the requested products exist"))
			return
		}
		httpx.WriteError(ctx, w, httpx.Internal())
		return
	}

	writeJSONResponse(w, http.StatusOK, table)
}

func parseIDList(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
