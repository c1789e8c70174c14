package parking

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedService traces and measures every Service operation and holds
// the lock that serializes callers.
type InstrumentedService struct {
	mu        sync.Mutex
	service   *Service
	telemetry *TelemetryProvider

	// Metrics
	bookings          metric.Int64Counter
	releases          metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSpotsGauge   metric.Int64UpDownCounter
	fees              metric.Int64Counter
	chargingSessions  metric.Int64Counter
}

func NewInstrumentedService(service *Service, telemetry *TelemetryProvider) (*InstrumentedService, error) {
	meter := telemetry.Meter()

	bookings, err := meter.Int64Counter("bookings_total",
		metric.WithDescription("Total number of booking attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	releases, err := meter.Int64Counter("releases_total",
		metric.WithDescription("Total number of release attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSpotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_spots",
		metric.WithDescription("Total number of parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	fees, err := meter.Int64Counter("parking_fees_total",
		metric.WithDescription("Parking fees collected"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	chargingSessions, err := meter.Int64Counter("charging_sessions_total",
		metric.WithDescription("Total number of charging requests"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	is := &InstrumentedService{
		service:           service,
		telemetry:         telemetry,
		bookings:          bookings,
		releases:          releases,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSpotsGauge:   totalSpotsGauge,
		fees:              fees,
		chargingSessions:  chargingSessions,
	}

	totalSpotsGauge.Add(context.Background(), int64(service.TotalSpots()))
	if occupied := service.OccupiedSpots(); occupied > 0 {
		occupancyGauge.Add(context.Background(), int64(occupied))
	}

	return is, nil
}

// finish records the outcome of an operation on its span and in the
// duration histogram.
func (is *InstrumentedService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) []attribute.KeyValue {
	labels := []attribute.KeyValue{attribute.String("operation", operation)}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
	}
	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
	return labels
}

func (is *InstrumentedService) ParkAtGate(ctx context.Context, vehicle *Vehicle, gateID string) (*Booking, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.park_at_gate",
		trace.WithAttributes(attribute.String("gate.id", gateID)),
		trace.WithAttributes(vehicleAttributes(vehicle)...))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	span.AddEvent("finding_nearest_spot")
	booking, err := is.service.ParkAtGate(ctx, vehicle, gateID)
	is.recordBooking(ctx, span, "park_at_gate", start, vehicle, booking, err)
	return booking, err
}

func (is *InstrumentedService) BookSpot(ctx context.Context, vehicle *Vehicle, spot *ParkingSpot) (*Booking, error) {
	attrs := vehicleAttributes(vehicle)
	if spot != nil {
		attrs = append(attrs, attribute.String("spot.id", spot.ID))
	}
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.book_spot", trace.WithAttributes(attrs...))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	booking, err := is.service.BookSpot(ctx, vehicle, spot)
	is.recordBooking(ctx, span, "book_spot", start, vehicle, booking, err)
	return booking, err
}

func vehicleAttributes(vehicle *Vehicle) []attribute.KeyValue {
	if vehicle == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("vehicle.registration_number", vehicle.RegistrationNumber()),
		attribute.String("vehicle.type", vehicle.Type().String()),
	}
}

func (is *InstrumentedService) recordBooking(ctx context.Context, span trace.Span, operation string, start time.Time, vehicle *Vehicle, booking *Booking, err error) {
	labels := is.finish(ctx, span, operation, start, err)
	if vehicle != nil {
		labels = append(labels, attribute.String("vehicle_type", vehicle.Type().String()))
	}
	is.bookings.Add(ctx, 1, metric.WithAttributes(labels...))
	if err != nil {
		return
	}

	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.String("spot.id", booking.Spot.ID),
		attribute.Int("spot.floor", booking.Spot.FloorNumber),
	)
	span.AddEvent("spot_allocated", trace.WithAttributes(
		attribute.String("spot_id", booking.Spot.ID),
	))
	is.occupancyGauge.Add(ctx, 1)
}

func (is *InstrumentedService) ReleaseSpot(ctx context.Context, bookingID string, method PaymentMethod) (*Booking, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.release_spot",
		trace.WithAttributes(
			attribute.String("booking.id", bookingID),
			attribute.String("payment.method", method.String()),
		))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	span.AddEvent("releasing_spot")
	occupied := is.service.OccupiedSpots()
	booking, err := is.service.ReleaseSpot(ctx, bookingID, method)

	labels := is.finish(ctx, span, "release_spot", start, err)
	is.releases.Add(ctx, 1, metric.WithAttributes(labels...))
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("spot.id", booking.Spot.ID),
		attribute.Int64("payment.amount", booking.Payment.Amount),
	)
	span.AddEvent("spot_released")
	if freed := occupied - is.service.OccupiedSpots(); freed > 0 {
		is.occupancyGauge.Add(ctx, -int64(freed))
	}
	is.fees.Add(ctx, booking.Payment.Amount, metric.WithAttributes(
		attribute.String("vehicle_type", booking.Vehicle.Type().String()),
		attribute.String("payment_method", method.String()),
	))
	return booking, nil
}

func (is *InstrumentedService) RequestCharging(ctx context.Context, bookingID string, kwh float64) (*ChargingSession, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.request_charging",
		trace.WithAttributes(
			attribute.String("booking.id", bookingID),
			attribute.Float64("charging.kwh", kwh),
		))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	session, err := is.service.RequestCharging(ctx, bookingID, kwh)

	labels := is.finish(ctx, span, "request_charging", start, err)
	is.chargingSessions.Add(ctx, 1, metric.WithAttributes(labels...))
	if err == nil {
		span.SetAttributes(attribute.Int64("charging.cost", session.Cost))
	}
	return session, err
}

func (is *InstrumentedService) FindNearestAvailable(ctx context.Context, floor int, vehicleType VehicleType) *ParkingSpot {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.find_nearest_available",
		trace.WithAttributes(
			attribute.Int("floor", floor),
			attribute.String("vehicle.type", vehicleType.String()),
		))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	spot := is.service.FindNearestAvailable(floor, vehicleType)
	is.finish(ctx, span, "find_nearest_available", start, nil)
	if spot == nil {
		span.AddEvent("no_spot_available")
	} else {
		span.SetAttributes(attribute.String("spot.id", spot.ID))
	}
	return spot
}

func (is *InstrumentedService) Booking(ctx context.Context, id string) (*Booking, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.get_booking",
		trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	booking, err := is.service.Booking(id)
	is.finish(ctx, span, "get_booking", start, err)
	return booking, err
}

func (is *InstrumentedService) ParkedVehicles(ctx context.Context) []*Booking {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.parked_vehicles")
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	parked := is.service.ParkedVehicles()
	span.SetAttributes(attribute.Int("parked_count", len(parked)))
	is.finish(ctx, span, "parked_vehicles", start, nil)
	return parked
}

func (is *InstrumentedService) History(ctx context.Context) []*Booking {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.history")
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	history := is.service.History()
	span.SetAttributes(attribute.Int("booking_count", len(history)))
	is.finish(ctx, span, "history", start, nil)
	return history
}

func (is *InstrumentedService) Bookings(ctx context.Context) []*Booking {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.bookings")
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	bookings := is.service.Bookings()
	span.SetAttributes(attribute.Int("booking_count", len(bookings)))
	is.finish(ctx, span, "bookings", start, nil)
	return bookings
}

func (is *InstrumentedService) AvailabilitySummary(ctx context.Context) []FloorAvailability {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.availability_summary")
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	summary := is.service.AvailabilitySummary()
	span.SetAttributes(
		attribute.Int("occupied_spots", is.service.OccupiedSpots()),
		attribute.Int("total_spots", is.service.TotalSpots()),
	)
	is.finish(ctx, span, "availability_summary", start, nil)
	return summary
}

func (is *InstrumentedService) Subscribe(ctx context.Context, registrationNumber string, vehicleType VehicleType) (SubscribeResult, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.subscribe",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", registrationNumber),
			attribute.String("vehicle.type", vehicleType.String()),
		))
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	result, err := is.service.Subscribe(ctx, registrationNumber, vehicleType)
	is.finish(ctx, span, "subscribe", start, err)
	if err == nil {
		span.SetAttributes(attribute.String("subscription.result", result.String()))
	}
	return result, err
}

func (is *InstrumentedService) IsSubscribed(registrationNumber string) bool {
	is.mu.Lock()
	defer is.mu.Unlock()
	return is.service.IsSubscribed(registrationNumber)
}

func (is *InstrumentedService) Subscriptions(ctx context.Context) map[string]VehicleType {
	ctx, span := is.telemetry.Tracer().Start(ctx, "parking_lot.subscriptions")
	defer span.End()

	is.mu.Lock()
	defer is.mu.Unlock()

	start := time.Now()
	subs := is.service.Subscriptions()
	is.finish(ctx, span, "subscriptions", start, nil)
	return subs
}

// Gates and the spot total are fixed once the lot is built.

func (is *InstrumentedService) Gates() []Gate {
	return is.service.Gates()
}

func (is *InstrumentedService) EntryGates() []Gate {
	return is.service.EntryGates()
}

func (is *InstrumentedService) TotalSpots() int {
	return is.service.TotalSpots()
}

func (is *InstrumentedService) OccupiedSpots() int {
	is.mu.Lock()
	defer is.mu.Unlock()
	return is.service.OccupiedSpots()
}
