package parking

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"parking-lot/internal/logging"
)

// Service runs the booking lifecycle over a lot. It is not safe for
// concurrent use; InstrumentedService serializes callers.
type Service struct {
	lot           *Lot
	bookings      *BookingLedger
	subscriptions *SubscriptionLedger
	fees          *FeeEngine
	charging      *ChargingEngine
	chargingSlots *ChargingSlots

	ids *snowflake.Node
	now func() time.Time

	nodeID           int64
	chargingCapacity map[VehicleType]int
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithNodeID sets the snowflake node booking IDs are generated from.
func WithNodeID(id int64) ServiceOption {
	return func(s *Service) {
		s.nodeID = id
	}
}

func WithChargingCapacity(capacity map[VehicleType]int) ServiceOption {
	return func(s *Service) {
		s.chargingCapacity = capacity
	}
}

type FloorAvailability struct {
	Number   int                `json:"floor"`
	Name     string             `json:"name"`
	Capacity int                `json:"capacity"`
	Occupied int                `json:"occupied"`
	Types    []TypeAvailability `json:"available"`
}

func NewService(lot *Lot, opts ...ServiceOption) (*Service, error) {
	subscriptions := NewSubscriptionLedger()
	s := &Service{
		lot:              lot,
		bookings:         NewBookingLedger(),
		subscriptions:    subscriptions,
		fees:             NewFeeEngine(subscriptions),
		charging:         NewChargingEngine(),
		now:              time.Now,
		nodeID:           1,
		chargingCapacity: DefaultChargingCapacity(),
	}
	for _, opt := range opts {
		opt(s)
	}

	node, err := snowflake.NewNode(s.nodeID)
	if err != nil {
		return nil, fmt.Errorf("booking id node: %w", err)
	}
	s.ids = node
	s.chargingSlots = NewChargingSlots(s.chargingCapacity)
	return s, nil
}

// BookSpot parks vehicle in spot. The spot is matched by ID against the
// floor it claims to be on.
func (s *Service) BookSpot(ctx context.Context, vehicle *Vehicle, spot *ParkingSpot) (*Booking, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: no vehicle", ErrValidation)
	}
	if spot == nil {
		return nil, ErrNoSpotProvided
	}
	floor, ok := s.lot.Floor(spot.FloorNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFloor, spot.FloorNumber)
	}
	owned, ok := floor.Spot(spot.ID)
	if !ok || !floor.Allocate(owned) {
		return nil, fmt.Errorf("%w: %s", ErrSpotUnavailable, spot.ID)
	}

	booking := &Booking{
		ID:        s.ids.Generate().Base58(),
		Vehicle:   vehicle,
		Spot:      owned,
		StartTime: s.now(),
	}
	if err := s.bookings.Add(booking); err != nil {
		floor.Release(owned)
		return nil, err
	}

	ctx = logging.WithRegistration(logging.WithBooking(ctx, booking.ID), vehicle.RegistrationNumber())
	logging.Info(ctx, "spot booked",
		"spot_id", owned.ID,
		"floor", owned.FloorNumber)
	return booking.clone(), nil
}

// ReleaseSpot frees the booked spot, charges for the stay and completes the
// booking. Nothing changes when it returns an error.
func (s *Service) ReleaseSpot(ctx context.Context, bookingID string, method PaymentMethod) (*Booking, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooking, bookingID)
	}
	if !booking.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReleased, bookingID)
	}
	ctx = logging.WithBooking(ctx, booking.ID)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPaymentMethod, int(method))
	}

	end := s.now()
	hours := BillableHours(booking.StartTime, end)
	registration := booking.Vehicle.RegistrationNumber()
	planID := ""
	if s.subscriptions.IsSubscribed(registration) {
		planID = registration
	}
	fee, err := s.fees.CalculateFee(booking.Vehicle.Type(), hours, planID)
	if err != nil {
		return nil, err
	}

	if floor, ok := s.lot.Floor(booking.Spot.FloorNumber); !ok || !floor.Release(booking.Spot) {
		logging.Warn(ctx, "booked spot was not occupied on release",
			"spot_id", booking.Spot.ID)
	}
	if booking.Charging != nil {
		s.chargingSlots.Release(booking.Vehicle.Type())
	}
	booking.complete(end, &Payment{
		ID:        uuid.NewString(),
		Amount:    fee,
		Timestamp: end,
		Method:    method,
	})

	logging.Info(ctx, "spot released",
		"spot_id", booking.Spot.ID,
		"hours", hours,
		"fee", fee,
		"subscribed", planID != "",
		"payment_method", method.String())
	return booking.clone(), nil
}

// ParkAtGate books the spot nearest to an entry gate's floor.
func (s *Service) ParkAtGate(ctx context.Context, vehicle *Vehicle, gateID string) (*Booking, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: no vehicle", ErrValidation)
	}
	gate, ok := s.lot.Gate(gateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGate, gateID)
	}
	if gate.Direction != Entry {
		return nil, fmt.Errorf("%w: %s", ErrNotEntryGate, gateID)
	}

	spot := s.lot.FindNearestAvailable(gate.FloorNumber, vehicle.Type())
	if spot == nil {
		return nil, fmt.Errorf("%w: %s near floor %d", ErrNoSpotAvailable, vehicle.Type(), gate.FloorNumber)
	}
	return s.BookSpot(ctx, vehicle, spot)
}

// FindNearestAvailable returns a copy of the spot ParkAtGate would pick from
// floor, or nil.
func (s *Service) FindNearestAvailable(floor int, vehicleType VehicleType) *ParkingSpot {
	spot := s.lot.FindNearestAvailable(floor, vehicleType)
	if spot == nil {
		return nil
	}
	found := *spot
	return &found
}

// RequestCharging starts a charging session for an active booking, taking a
// slot from the vehicle type's charging pool until the booking is released.
func (s *Service) RequestCharging(ctx context.Context, bookingID string, kwh float64) (*ChargingSession, error) {
	booking, ok := s.bookings.Get(bookingID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooking, bookingID)
	}
	if !booking.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReleased, bookingID)
	}
	if kwh < 0 || math.IsNaN(kwh) || math.IsInf(kwh, 0) {
		return nil, fmt.Errorf("%w: kwh %v", ErrValidation, kwh)
	}
	if booking.Charging != nil {
		return nil, fmt.Errorf("%w: %s", ErrChargingInProgress, bookingID)
	}
	ctx = logging.WithBooking(ctx, booking.ID)

	vehicleType := booking.Vehicle.Type()
	if err := s.chargingSlots.Allocate(vehicleType); err != nil {
		return nil, err
	}
	cost := s.charging.CalculateChargingCost(ctx, vehicleType, kwh)
	booking.Charging = &ChargingSession{
		KWh:       kwh,
		Cost:      ChargeAmount(cost),
		StartedAt: s.now(),
	}

	logging.Info(ctx, "charging started",
		"kwh", kwh,
		"cost", booking.Charging.Cost)
	session := *booking.Charging
	return &session, nil
}

func (s *Service) Booking(id string) (*Booking, error) {
	booking, ok := s.bookings.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooking, id)
	}
	return booking.clone(), nil
}

// ParkedVehicles lists the active bookings in the order they were made.
func (s *Service) ParkedVehicles() []*Booking {
	var out []*Booking
	for _, b := range s.bookings.All() {
		if b.IsActive() {
			out = append(out, b.clone())
		}
	}
	return out
}

// History lists the completed bookings in the order they were made.
func (s *Service) History() []*Booking {
	var out []*Booking
	for _, b := range s.bookings.All() {
		if !b.IsActive() {
			out = append(out, b.clone())
		}
	}
	return out
}

// Bookings lists every booking, active or completed, in the order they were made.
func (s *Service) Bookings() []*Booking {
	all := s.bookings.All()
	out := make([]*Booking, 0, len(all))
	for _, b := range all {
		out = append(out, b.clone())
	}
	return out
}

func (s *Service) AvailabilitySummary() []FloorAvailability {
	floors := s.lot.Floors()
	out := make([]FloorAvailability, 0, len(floors))
	for _, f := range floors {
		out = append(out, FloorAvailability{
			Number:   f.Number(),
			Name:     f.Name(),
			Capacity: f.Capacity(),
			Occupied: f.OccupiedCount(),
			Types:    f.Availability(),
		})
	}
	return out
}

func (s *Service) Subscribe(ctx context.Context, registrationNumber string, vehicleType VehicleType) (SubscribeResult, error) {
	result, err := s.subscriptions.Subscribe(registrationNumber, vehicleType)
	if err != nil {
		logging.Warn(ctx, "subscription rejected",
			"registration", registrationNumber,
			"error", err.Error())
		return 0, err
	}
	logging.Info(ctx, "subscription "+result.String(),
		"registration", registrationNumber,
		"vehicle_type", vehicleType.String())
	return result, nil
}

func (s *Service) IsSubscribed(registrationNumber string) bool {
	return s.subscriptions.IsSubscribed(registrationNumber)
}

func (s *Service) Subscriptions() map[string]VehicleType {
	return s.subscriptions.All()
}

func (s *Service) Gates() []Gate {
	return s.lot.Gates()
}

func (s *Service) EntryGates() []Gate {
	return s.lot.EntryGates()
}

func (s *Service) TotalSpots() int {
	return s.lot.TotalSpots()
}

func (s *Service) OccupiedSpots() int {
	return s.lot.OccupiedSpots()
}

func (s *Service) ChargingSlotsAvailable(vehicleType VehicleType) int {
	return s.chargingSlots.Available(vehicleType)
}
