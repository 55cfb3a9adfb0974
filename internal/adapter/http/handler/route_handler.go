package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// RouteService defines the behavior needed by RouteHandler.
type RouteService interface {
	CreateRoute(ctx context.Context, input usecase.CreateRouteInput) (*domain.ClearingRoute, error)
	ListRoutes(ctx context.Context) ([]*domain.ClearingRoute, error)
}

// RouteHandler handles clearing route provisioning.
type RouteHandler struct {
	routeUC RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeUC RouteService) *RouteHandler {
	return &RouteHandler{routeUC: routeUC}
}

// Create provisions a clearing route for a purpose.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	route, err := h.routeUC.CreateRoute(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to create route")
		return
	}

	writeJSON(w, http.StatusCreated, dto.RouteFromDomain(route))
}

// List lists all provisioned routes.
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routeUC.ListRoutes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list routes", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RoutesFromDomain(routes))
}
