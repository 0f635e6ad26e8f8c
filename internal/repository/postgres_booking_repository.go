package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	pool   *pgxpool.Pool
	ledger *PostgresInventoryLedger
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		pool:   pool,
		ledger: NewPostgresInventoryLedger(),
	}
}

// CreateWithReservation reserves seats and inserts the booking, passengers
// and reservation ledger row in one transaction
func (r *PostgresBookingRepository) CreateWithReservation(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create_with_reservation")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("tour_package_id", booking.TourPackageID),
		attribute.Int("seat_count", booking.SeatCount()),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Booking row first: the reservation ledger row references it
	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, user_id, tour_package_id, status, payment_status,
			total_amount_cents, currency, contact_name, contact_email,
			contact_phone, pan, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		booking.ID,
		booking.UserID,
		booking.TourPackageID,
		booking.Status.String(),
		booking.PaymentStatus.String(),
		booking.TotalAmountCents,
		booking.Currency,
		booking.ContactName,
		booking.ContactEmail,
		booking.ContactPhone,
		nullString(booking.PAN),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for _, p := range booking.Passengers {
		_, err = tx.Exec(ctx, `
			INSERT INTO passengers (id, booking_id, full_name, age, gender, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, booking.ID, p.FullName, p.Age, p.Gender, p.Position)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to create passenger: %w", err)
		}
	}

	if err := r.ledger.Reserve(ctx, tx, booking.ID, booking.TourPackageID, booking.SeatCount()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a booking and its passengers
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", id))

	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByOrderRef retrieves a booking by its gateway order reference
func (r *PostgresBookingRepository) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_order_ref")
	defer span.End()
	span.SetAttributes(attribute.String("order_ref", orderRef))

	return r.getOne(ctx, `WHERE gateway_order_ref = $1`, orderRef)
}

func (r *PostgresBookingRepository) getOne(ctx context.Context, where string, arg any) (*domain.Booking, error) {
	query := `
		SELECT
			id, user_id, tour_package_id, status, payment_status,
			gateway_order_ref, total_amount_cents, currency,
			contact_name, contact_email, contact_phone, pan, status_reason,
			created_at, updated_at, confirmed_at, cancelled_at
		FROM bookings ` + where

	booking := &domain.Booking{}
	var (
		status       string
		payStatus    string
		orderRef     *string
		pan          *string
		statusReason *string
	)

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.TourPackageID,
		&status,
		&payStatus,
		&orderRef,
		&booking.TotalAmountCents,
		&booking.Currency,
		&booking.ContactName,
		&booking.ContactEmail,
		&booking.ContactPhone,
		&pan,
		&statusReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	booking.Status = domain.BookingStatus(status)
	booking.PaymentStatus = domain.PaymentStatus(payStatus)
	if orderRef != nil {
		booking.GatewayOrderRef = *orderRef
	}
	if pan != nil {
		booking.PAN = *pan
	}
	if statusReason != nil {
		booking.StatusReason = *statusReason
	}

	if err := r.loadPassengers(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *PostgresBookingRepository) loadPassengers(ctx context.Context, booking *domain.Booking) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, full_name, age, gender, position
		FROM passengers
		WHERE booking_id = $1
		ORDER BY position
	`, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to load passengers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FullName, &p.Age, &p.Gender, &p.Position); err != nil {
			return fmt.Errorf("failed to scan passenger: %w", err)
		}
		booking.Passengers = append(booking.Passengers, p)
	}
	return rows.Err()
}

// AttachGatewayReference binds the gateway order reference exactly once
func (r *PostgresBookingRepository) AttachGatewayReference(ctx context.Context, id, orderRef string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.attach_gateway_ref")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", id))

	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET gateway_order_ref = $2, updated_at = now()
		WHERE id = $1 AND gateway_order_ref IS NULL
	`, id, orderRef)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to attach gateway reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking: %w", err)
		}
		if !exists {
			return domain.ErrBookingNotFound
		}
		span.SetStatus(codes.Error, "order ref already attached")
		return domain.ErrOrderRefAttached
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkPaid confirms the booking and commits its reservation in one
// transaction. The conditional UPDATE on current state means the first
// writer wins and every other caller observes a terminal state.
func (r *PostgresBookingRepository) MarkPaid(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.mark_paid")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", id))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, payment_status = $3, confirmed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $4 AND payment_status = $5
	`, id,
		domain.BookingStatusConfirmed, domain.PaymentStatusPaid,
		domain.BookingStatusPending, domain.PaymentStatusUnpaid,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.classifyFinalizeConflict(ctx, tx, id, span)
	}

	if err := r.ledger.Commit(ctx, tx, id); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkFailed fails the booking and releases its held seats
func (r *PostgresBookingRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.finalizeWithRelease(ctx, "repo.postgres.booking.mark_failed", id, domain.BookingStatusFailed, domain.PaymentStatusFailed, reason)
}

// Expire cancels a booking whose hold lapsed and releases its seats
func (r *PostgresBookingRepository) Expire(ctx context.Context, id string) error {
	return r.finalizeWithRelease(ctx, "repo.postgres.booking.expire", id, domain.BookingStatusCancelled, domain.PaymentStatusUnpaid, "reservation hold expired")
}

func (r *PostgresBookingRepository) finalizeWithRelease(ctx context.Context, spanName, id string, status domain.BookingStatus, payStatus domain.PaymentStatus, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", id))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, payment_status = $3, status_reason = $4, cancelled_at = now(), updated_at = now()
		WHERE id = $1 AND status = $5
	`, id, status, payStatus, reason, domain.BookingStatusPending)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to finalize booking: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.classifyFinalizeConflict(ctx, tx, id, span)
	}

	if err := r.ledger.Release(ctx, tx, id); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// classifyFinalizeConflict turns a zero-row conditional update into the
// precise domain error the caller needs to decide between "duplicate
// delivery" and "lost the race to the other terminal"
func (r *PostgresBookingRepository) classifyFinalizeConflict(ctx context.Context, q Querier, id string, span interface{ SetStatus(codes.Code, string) }) error {
	var status, payStatus string
	err := q.QueryRow(ctx, `SELECT status, payment_status FROM bookings WHERE id = $1`, id).Scan(&status, &payStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrBookingNotFound
		}
		return fmt.Errorf("failed to inspect booking state: %w", err)
	}

	if domain.PaymentStatus(payStatus) == domain.PaymentStatusPaid {
		span.SetStatus(codes.Ok, "already paid")
		return domain.ErrAlreadyPaid
	}
	span.SetStatus(codes.Ok, "already finalized")
	return domain.ErrBookingFinalized
}

// GetExpired returns PENDING bookings created before the cutoff
func (r *PostgresBookingRepository) GetExpired(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_expired")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, tour_package_id, total_amount_cents, currency, contact_email, created_at
		FROM bookings
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`, domain.BookingStatusPending, olderThan, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query expired bookings: %w", err)
	}
	defer rows.Close()

	var expired []*domain.Booking
	for rows.Next() {
		b := &domain.Booking{Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusUnpaid}
		if err := rows.Scan(&b.ID, &b.UserID, &b.TourPackageID, &b.TotalAmountCents, &b.Currency, &b.ContactEmail, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expired booking: %w", err)
		}
		expired = append(expired, b)
	}

	span.SetAttributes(attribute.Int("count", len(expired)))
	span.SetStatus(codes.Ok, "")
	return expired, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ BookingRepository = (*PostgresBookingRepository)(nil)
