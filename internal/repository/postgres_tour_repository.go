package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresTourRepository implements TourRepository using PostgreSQL
type PostgresTourRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTourRepository creates a new PostgresTourRepository
func NewPostgresTourRepository(pool *pgxpool.Pool) *PostgresTourRepository {
	return &PostgresTourRepository{pool: pool}
}

const tourColumns = `
	id, destination, title, start_date, duration_days,
	total_seats, available_seats, price_cents, currency,
	created_at, updated_at
`

// GetByID retrieves a tour package by ID
func (r *PostgresTourRepository) GetByID(ctx context.Context, id string) (*domain.TourPackage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.tour.get_by_id")
	defer span.End()
	span.SetAttributes(attribute.String("tour_package_id", id))

	tour := &domain.TourPackage{}
	err := r.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tour_packages WHERE id = $1`, id).Scan(
		&tour.ID,
		&tour.Destination,
		&tour.Title,
		&tour.StartDate,
		&tour.DurationDays,
		&tour.TotalSeats,
		&tour.AvailableSeats,
		&tour.PriceCents,
		&tour.Currency,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTourNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get tour package: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tour, nil
}

// List returns all tour packages ordered by start date
func (r *PostgresTourRepository) List(ctx context.Context) ([]*domain.TourPackage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.tour.list")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT `+tourColumns+` FROM tour_packages ORDER BY start_date`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list tour packages: %w", err)
	}
	defer rows.Close()

	var tours []*domain.TourPackage
	for rows.Next() {
		tour := &domain.TourPackage{}
		if err := rows.Scan(
			&tour.ID,
			&tour.Destination,
			&tour.Title,
			&tour.StartDate,
			&tour.DurationDays,
			&tour.TotalSeats,
			&tour.AvailableSeats,
			&tour.PriceCents,
			&tour.Currency,
			&tour.CreatedAt,
			&tour.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tour package: %w", err)
		}
		tours = append(tours, tour)
	}

	span.SetAttributes(attribute.Int("count", len(tours)))
	span.SetStatus(codes.Ok, "")
	return tours, rows.Err()
}

// Create inserts a tour package with AvailableSeats = TotalSeats
func (r *PostgresTourRepository) Create(ctx context.Context, tour *domain.TourPackage) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.tour.create")
	defer span.End()
	span.SetAttributes(attribute.String("tour_package_id", tour.ID))

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tour_packages (
			id, destination, title, start_date, duration_days,
			total_seats, available_seats, price_cents, currency,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`,
		tour.ID,
		tour.Destination,
		tour.Title,
		tour.StartDate,
		tour.DurationDays,
		tour.TotalSeats,
		tour.TotalSeats,
		tour.PriceCents,
		tour.Currency,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create tour package: %w", err)
	}

	tour.AvailableSeats = tour.TotalSeats
	span.SetStatus(codes.Ok, "")
	return nil
}

var _ TourRepository = (*PostgresTourRepository)(nil)
