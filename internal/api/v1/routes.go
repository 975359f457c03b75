// Package v1 provides the REST API handlers of the catalog
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-catalog-server/internal/api/common"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
)

// Routes defines the catalog routes with dependency injection
type Routes struct {
	service service.CatalogService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.CatalogService) *Routes {
	return &Routes{service: svc}
}

// Router creates the router of the catalog API
func Router(svc service.CatalogService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/items", routes.listItems)
	r.Post("/repositories/refresh", routes.refreshRepository)

	r.Get("/sources", routes.listSources)
	r.Post("/sources/validate", routes.validateSources)
	r.Post("/sources/validate-one", routes.validateSource)

	r.Post("/cache/cleanup", routes.cleanupCache)
	r.Delete("/cache", routes.clearCache)

	r.Get("/sync/status", routes.syncStatus)

	return r
}

// listItems handles GET /v1/items
//
// Query parameters: type, search, tags (repeated or comma separated),
// sortBy (name, author, lastUpdated), sortOrder (asc, desc) and
// sortSubcomponents (bool).
func (rr *Routes) listItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sortSubcomponents, err := common.QueryBool(r, "sortSubcomponents")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := []service.Option{
		service.WithType(query.Get("type")),
		service.WithSearch(query.Get("search")),
		service.WithTags(common.QueryList(r, "tags")...),
		service.WithSortBy(query.Get("sortBy")),
		service.WithSortOrder(query.Get("sortOrder")),
		service.WithSortSubcomponents(sortSubcomponents),
	}

	result, err := rr.service.ListItems(r.Context(), opts...)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to list items", "error", err)
		common.WriteErrorResponse(w, "Failed to list items", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, result, http.StatusOK)
}

// refreshRepository handles POST /v1/repositories/refresh. A repository that
// could not be fetched is still returned with status 200; its error field
// carries the reason.
func (rr *Routes) refreshRepository(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	repo, err := rr.service.RefreshRepository(r.Context(), req.URL, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to refresh repository", "url", req.URL, "error", err)
		common.WriteErrorResponse(w, "Failed to refresh repository", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, repo, http.StatusOK)
}

// listSources handles GET /v1/sources
func (rr *Routes) listSources(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, SourcesResponse{Sources: rr.service.Sources()}, http.StatusOK)
}

// syncStatus handles GET /v1/sync/status
func (rr *Routes) syncStatus(w http.ResponseWriter, r *http.Request) {
	current, err := rr.service.SyncStatus(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load sync status", "error", err)
		common.WriteErrorResponse(w, "Failed to load sync status", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, current, http.StatusOK)
}

// validateSources handles POST /v1/sources/validate
func (rr *Routes) validateSources(w http.ResponseWriter, r *http.Request) {
	var req ValidateSourcesRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	common.WriteJSONResponse(w, validationResponse(rr.service.ValidateSources(req.Sources)), http.StatusOK)
}

// validateSource handles POST /v1/sources/validate-one
func (rr *Routes) validateSource(w http.ResponseWriter, r *http.Request) {
	var req ValidateSourceRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	errs := rr.service.ValidateSource(req.Source, req.Existing)
	common.WriteJSONResponse(w, validationResponse(errs), http.StatusOK)
}

// cleanupCache handles POST /v1/cache/cleanup
func (rr *Routes) cleanupCache(w http.ResponseWriter, r *http.Request) {
	removed := rr.service.CleanupCache(r.Context())
	slog.InfoContext(r.Context(), "Cache cleaned up", "removed", len(removed))
	w.WriteHeader(http.StatusNoContent)
}

// clearCache handles DELETE /v1/cache
func (rr *Routes) clearCache(w http.ResponseWriter, _ *http.Request) {
	rr.service.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
