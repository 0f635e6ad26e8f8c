package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so ledger operations can join a caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresInventoryLedger implements the atomic seat accounting primitives.
// All three operations are single conditional statements: the database is
// the serialization point, never an application-level read-then-write.
type PostgresInventoryLedger struct{}

// NewPostgresInventoryLedger creates the ledger
func NewPostgresInventoryLedger() *PostgresInventoryLedger {
	return &PostgresInventoryLedger{}
}

// Reserve decrements available_seats by seatCount if enough remain and
// records a HELD reservation row for the booking. Zero rows affected on the
// decrement means the seats were not there: no side effects, the caller's
// transaction can roll back cleanly.
func (l *PostgresInventoryLedger) Reserve(ctx context.Context, q Querier, bookingID, tourID string, seatCount int) error {
	if seatCount <= 0 {
		return domain.ErrNoPassengers
	}

	tag, err := q.Exec(ctx, `
		UPDATE tour_packages
		SET available_seats = available_seats - $2, updated_at = now()
		WHERE id = $1 AND available_seats >= $2
	`, tourID, seatCount)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tour_packages WHERE id = $1)`, tourID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check tour package: %w", err)
		}
		if !exists {
			return domain.ErrTourNotFound
		}
		return domain.ErrInsufficientSeats
	}

	_, err = q.Exec(ctx, `
		INSERT INTO reservations (booking_id, tour_package_id, seat_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`, bookingID, tourID, seatCount, domain.ReservationHeld)
	if err != nil {
		return fmt.Errorf("failed to record reservation: %w", err)
	}
	return nil
}

// Commit marks the reservation permanently consumed. The counter is not
// touched: Reserve already decremented it. Idempotent, a second commit
// matches zero rows and is a no-op.
func (l *PostgresInventoryLedger) Commit(ctx context.Context, q Querier, bookingID string) error {
	_, err := q.Exec(ctx, `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE booking_id = $1 AND status = $3
	`, bookingID, domain.ReservationCommitted, domain.ReservationHeld)
	if err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}
	return nil
}

// Release returns the held seats to availability. The HELD guard makes it
// idempotent and mutually exclusive with Commit: only a reservation that is
// still HELD increments the counter, and only once.
func (l *PostgresInventoryLedger) Release(ctx context.Context, q Querier, bookingID string) error {
	_, err := q.Exec(ctx, `
		WITH released AS (
			UPDATE reservations
			SET status = $2, updated_at = now()
			WHERE booking_id = $1 AND status = $3
			RETURNING tour_package_id, seat_count
		)
		UPDATE tour_packages tp
		SET available_seats = tp.available_seats + released.seat_count, updated_at = now()
		FROM released
		WHERE tp.id = released.tour_package_id
	`, bookingID, domain.ReservationReleased, domain.ReservationHeld)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}
