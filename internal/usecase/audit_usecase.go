package usecase

import (
	"context"

	"github.com/obligent/obligent/internal/domain"
)

// AuditUseCase serves the decision-history queries. The trail itself is
// written by the bus recorder and by direct appends; nothing here
// mutates it.
type AuditUseCase struct {
	auditRepo AuditRepository
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(auditRepo AuditRepository) *AuditUseCase {
	return &AuditUseCase{auditRepo: auditRepo}
}

// ListRecords lists audit records matching the filter, newest first.
func (uc *AuditUseCase) ListRecords(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.auditRepo.List(ctx, filter)
}
