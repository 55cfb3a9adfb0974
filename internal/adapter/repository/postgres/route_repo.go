package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
)

const routeColumns = `purpose, obligation_account_id, direction, description, created_at`

// RouteRepository implements usecase.RouteRepository.
type RouteRepository struct {
	pool *pgxpool.Pool
}

// NewRouteRepository creates a new RouteRepository.
func NewRouteRepository(pool *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{pool: pool}
}

// Create provisions a clearing route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.ClearingRoute) error {
	query := `
		INSERT INTO clearing_routes (` + routeColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		route.Purpose,
		route.ObligationAccountID,
		string(route.Direction),
		route.Description,
		timeToPgTimestamptz(route.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrRouteExists
		}

		return err
	}

	return nil
}

// GetByPurpose retrieves the route for a purpose.
func (r *RouteRepository) GetByPurpose(ctx context.Context, purpose string) (*domain.ClearingRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM clearing_routes WHERE purpose = $1`

	route, err := scanRoute(r.pool.QueryRow(ctx, query, purpose))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRouteNotFound
		}

		return nil, err
	}

	return route, nil
}

// List lists all provisioned routes.
func (r *RouteRepository) List(ctx context.Context) ([]*domain.ClearingRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM clearing_routes ORDER BY purpose`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.ClearingRoute

	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}

		routes = append(routes, route)
	}

	return routes, rows.Err()
}

func scanRoute(row pgx.Row) (*domain.ClearingRoute, error) {
	var (
		route     domain.ClearingRoute
		direction string
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&route.Purpose,
		&route.ObligationAccountID,
		&direction,
		&route.Description,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	route.Direction = domain.TransferDirection(direction)
	route.CreatedAt = createdAt.Time

	return &route, nil
}
