package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/obligent/obligent/internal/domain"
)

// RouteUseCase provisions clearing routes: the purpose -> obligation
// account bindings every intent clears through.
type RouteUseCase struct {
	routeRepo   RouteRepository
	accountRepo AccountRepository
	auditRepo   AuditRepository
}

// NewRouteUseCase creates a new RouteUseCase.
func NewRouteUseCase(routeRepo RouteRepository, accountRepo AccountRepository, auditRepo AuditRepository) *RouteUseCase {
	return &RouteUseCase{
		routeRepo:   routeRepo,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
	}
}

// CreateRouteInput represents input for provisioning a route.
type CreateRouteInput struct {
	Purpose             string
	ObligationAccountID string
	Direction           string
	Description         string
}

// CreateRoute provisions a clearing route. The obligation account must
// exist, be active, and carry the obligation class.
func (uc *RouteUseCase) CreateRoute(ctx context.Context, input CreateRouteInput) (*domain.ClearingRoute, error) {
	purpose := strings.ToUpper(strings.TrimSpace(input.Purpose))
	if err := domain.ValidatePurpose(purpose); err != nil {
		return nil, err
	}

	direction, err := domain.ParseTransferDirection(input.Direction)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.ObligationAccountID)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	if account.Class != domain.AccountClassObligation {
		return nil, domain.ErrRouteAccountClass
	}

	route := &domain.ClearingRoute{
		Purpose:             purpose,
		ObligationAccountID: account.ID,
		Direction:           direction,
		Description:         strings.TrimSpace(input.Description),
		CreatedAt:           time.Now().UTC(),
	}

	if err := uc.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditRecord{
			Action:     domain.AuditActionRouteCreated,
			Status:     domain.AuditStatusSuccess,
			Detail:     domain.MarshalState(route),
			OccurredAt: time.Now().UTC(),
		})
	}

	return route, nil
}

// ListRoutes lists all provisioned routes.
func (uc *RouteUseCase) ListRoutes(ctx context.Context) ([]*domain.ClearingRoute, error) {
	return uc.routeRepo.List(ctx)
}
