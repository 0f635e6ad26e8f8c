package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// BookingServiceConfig tunes booking creation behavior
type BookingServiceConfig struct {
	HoldTTL           time.Duration
	MaxPassengers     int
	PANThresholdCents int64
}

// BookingService creates bookings: seats are reserved at creation time, a
// gateway order is opened, and confirmation only happens later through the
// payment webhook.
type BookingService struct {
	bookings repository.BookingRepository
	tours    repository.TourRepository
	gateway  gateway.PaymentGateway
	metrics  *metrics.Metrics
	cfg      BookingServiceConfig
	log      *logger.Logger
}

// NewBookingService creates a booking service
func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	gw gateway.PaymentGateway,
	m *metrics.Metrics,
	cfg BookingServiceConfig,
) *BookingService {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 30 * time.Minute
	}
	if cfg.MaxPassengers <= 0 {
		cfg.MaxPassengers = 9
	}
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		gateway:  gw,
		metrics:  m,
		cfg:      cfg,
		log:      logger.Get().With(zap.String("component", "booking_service")),
	}
}

// CreateBooking validates the request, reserves seats, opens a gateway
// payment order and returns the pending booking. If the gateway order cannot
// be created the booking is failed immediately and its seats released, so no
// hold survives without a payable order behind it.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create")
	defer span.End()
	start := time.Now()

	span.SetAttributes(
		attribute.String("tour_package_id", req.TourPackageID),
		attribute.Int("passenger_count", len(req.Passengers)),
	)

	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	tour, err := s.tours.GetByID(ctx, req.TourPackageID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	totalCents := tour.PriceCents * int64(len(req.Passengers))
	if err := s.validate(req, totalCents); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:               uuid.NewString(),
		UserID:           userID,
		TourPackageID:    tour.ID,
		Status:           domain.BookingStatusPending,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		TotalAmountCents: totalCents,
		Currency:         tour.Currency,
		ContactName:      strings.TrimSpace(req.Contact.Name),
		ContactEmail:     strings.TrimSpace(req.Contact.Email),
		ContactPhone:     strings.TrimSpace(req.Contact.Phone),
		PAN:              strings.ToUpper(strings.TrimSpace(req.Contact.PAN)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, p := range req.Passengers {
		booking.Passengers = append(booking.Passengers, domain.Passenger{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			FullName:  strings.TrimSpace(p.FullName),
			Age:       p.Age,
			Gender:    p.Gender,
			Position:  i + 1,
		})
	}

	if err := s.bookings.CreateWithReservation(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrInsufficientSeats) {
			s.metrics.SeatsSoldOut.Inc(ctx, attribute.String("tour_package_id", tour.ID))
			s.log.Info("booking rejected, sold out",
				zap.String("tour_package_id", tour.ID),
				zap.Int("requested_seats", booking.SeatCount()),
			)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		BookingID:   booking.ID,
		AmountCents: booking.TotalAmountCents,
		Currency:    booking.Currency,
		Description: fmt.Sprintf("%s (%d seats)", tour.Title, booking.SeatCount()),
	})
	if err != nil {
		s.metrics.GatewayOrderErrors.Inc(ctx)
		s.log.Error("gateway order failed, releasing hold",
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
		if failErr := s.bookings.MarkFailed(ctx, booking.ID, "gateway order creation failed"); failErr != nil {
			// The sweeper will release this hold once the TTL lapses
			s.log.Error("failed to release hold after gateway error",
				zap.String("booking_id", booking.ID),
				zap.Error(failErr),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.bookings.AttachGatewayReference(ctx, booking.ID, order.OrderRef); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to attach order reference: %w", err)
	}

	s.metrics.BookingsCreated.Inc(ctx, attribute.String("tour_package_id", tour.ID))
	s.metrics.BookingLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("order_ref", order.OrderRef),
		zap.Int("seats", booking.SeatCount()),
		zap.Int64("amount_cents", booking.TotalAmountCents),
	)

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.CreateBookingResponse{
		BookingID:   booking.ID,
		OrderRef:    order.OrderRef,
		AmountCents: booking.TotalAmountCents,
		Currency:    booking.Currency,
		Status:      booking.Status.String(),
		ExpiresAt:   now.Add(s.cfg.HoldTTL),
	}, nil
}

// GetBooking returns a booking owned by userID
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// Ownership check hides other users' bookings rather than revealing
	// their existence
	if booking.UserID != userID {
		return nil, domain.ErrBookingNotFound
	}
	return booking, nil
}

func (s *BookingService) validate(req *dto.CreateBookingRequest, totalCents int64) error {
	if len(req.Passengers) == 0 {
		return domain.ErrNoPassengers
	}
	if len(req.Passengers) > s.cfg.MaxPassengers {
		return domain.ErrTooManyPassengers
	}
	for _, p := range req.Passengers {
		if strings.TrimSpace(p.FullName) == "" || p.Age <= 0 || p.Age > 120 {
			return domain.ErrInvalidPassenger
		}
	}

	if strings.TrimSpace(req.Contact.Name) == "" {
		return domain.ErrInvalidContact
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Contact.Email)); err != nil {
		return domain.ErrInvalidContact
	}
	if !phonePattern.MatchString(strings.TrimSpace(req.Contact.Phone)) {
		return domain.ErrInvalidContact
	}

	pan := strings.ToUpper(strings.TrimSpace(req.Contact.PAN))
	if s.cfg.PANThresholdCents > 0 && totalCents >= s.cfg.PANThresholdCents && pan == "" {
		return domain.ErrPANRequired
	}
	if pan != "" && !panPattern.MatchString(pan) {
		return domain.ErrInvalidPAN
	}
	return nil
}
