package parking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	lot, err := BuildLot(context.Background(), DefaultLayout())
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewService(lot, WithClock(clock.Now), WithNodeID(7))
	require.NoError(t, err)
	return svc, clock
}

func mustVehicle(t *testing.T, reg string, vt VehicleType) *Vehicle {
	t.Helper()
	v, err := NewVehicle(reg, vt)
	require.NoError(t, err)
	return v
}

func TestNewServiceRejectsBadNodeID(t *testing.T) {
	_, err := NewService(NewLot(), WithNodeID(5000))
	assert.Error(t, err)
}

func TestBookSpot(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	spot := svc.FindNearestAvailable(1, Car)
	require.NotNil(t, spot)
	assert.Equal(t, "F1-CAR-1", spot.ID)

	booking, err := svc.BookSpot(ctx, mustVehicle(t, "TN 01 AB 1234", Car), spot)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, clock.now, booking.StartTime)
	assert.Equal(t, BookingActive, booking.Status())
	assert.True(t, booking.Spot.IsOccupied())
	assert.Equal(t, 1, svc.OccupiedSpots())

	next := svc.FindNearestAvailable(1, Car)
	require.NotNil(t, next)
	assert.Equal(t, "F1-CAR-2", next.ID)
}

func TestBookSpotNoSpot(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BookSpot(context.Background(), mustVehicle(t, "TN 01 AB 1234", Car), nil)
	assert.ErrorIs(t, err, ErrNoSpotProvided)
}

func TestBookSpotUnknownFloorLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	before := svc.AvailabilitySummary()

	_, err := svc.BookSpot(context.Background(), mustVehicle(t, "TN 01 AB 1234", Car), NewSpot("F9-CAR-1", Car, 9))
	assert.ErrorIs(t, err, ErrUnknownFloor)

	assert.Equal(t, before, svc.AvailabilitySummary())
	assert.Empty(t, svc.Bookings())
	assert.Equal(t, 0, svc.OccupiedSpots())
}

func TestBookSpotTwiceIsUnavailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	spot := svc.FindNearestAvailable(0, TwoWheeler)
	require.NotNil(t, spot)
	_, err := svc.BookSpot(ctx, mustVehicle(t, "TN 01 AB 1234", TwoWheeler), spot)
	require.NoError(t, err)

	_, err = svc.BookSpot(ctx, mustVehicle(t, "TN 02 CD 5678", TwoWheeler), spot)
	assert.ErrorIs(t, err, ErrSpotUnavailable)
	assert.Len(t, svc.Bookings(), 1)
}

func TestBookSpotUnknownSpotOnKnownFloor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BookSpot(context.Background(), mustVehicle(t, "TN 01 AB 1234", Car), NewSpot("GF-CAR-99", Car, 0))
	assert.ErrorIs(t, err, ErrSpotUnavailable)
}

func TestReleaseSpotRoundsHoursUp(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)
	released, err := svc.ReleaseSpot(ctx, booking.ID, Card)
	require.NoError(t, err)

	assert.Equal(t, BookingCompleted, released.Status())
	require.NotNil(t, released.Payment)
	assert.Equal(t, int64(60), released.Payment.Amount, "2 hours at 30")
	assert.Equal(t, Card, released.Payment.Method)
	assert.Equal(t, clock.now, released.Payment.Timestamp)
	assert.NotEmpty(t, released.Payment.ID)
	require.NotNil(t, released.EndTime)
	assert.Equal(t, clock.now, *released.EndTime)
	assert.False(t, released.Spot.IsOccupied())
}

func TestReleaseSpotMinimumOneHour(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", TwoWheeler), "E1")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	released, err := svc.ReleaseSpot(ctx, booking.ID, Cash)
	require.NoError(t, err)
	assert.Equal(t, int64(15), released.Payment.Amount)
}

func TestReleaseSpotAppliesSubscriberDiscount(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	res, err := svc.Subscribe(ctx, "TN 01 AB 1234", Car)
	require.NoError(t, err)
	assert.Equal(t, Subscribed, res)

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E2")
	require.NoError(t, err)

	clock.Advance(2*time.Hour + 30*time.Minute)
	released, err := svc.ReleaseSpot(ctx, booking.ID, UPI)
	require.NoError(t, err)
	assert.Equal(t, int64(72), released.Payment.Amount)
}

func TestReleaseSpotUnknownBookingMutatesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	before := svc.AvailabilitySummary()
	bookings := svc.Bookings()

	_, err = svc.ReleaseSpot(ctx, "missing", Cash)
	assert.ErrorIs(t, err, ErrUnknownBooking)

	assert.Equal(t, before, svc.AvailabilitySummary())
	assert.Equal(t, bookings, svc.Bookings())
}

func TestReleaseSpotTwice(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	first, err := svc.ReleaseSpot(ctx, booking.ID, Wallet)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = svc.ReleaseSpot(ctx, booking.ID, Cash)
	assert.ErrorIs(t, err, ErrAlreadyReleased)

	stored, err := svc.Booking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Payment, stored.Payment)
	assert.Equal(t, *first.EndTime, *stored.EndTime)
}

func TestReleaseSpotInvalidPaymentMethod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)

	_, err = svc.ReleaseSpot(ctx, booking.ID, PaymentMethod(0))
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	assert.Equal(t, 1, svc.OccupiedSpots())
}

func TestReleasedSpotIsRequeuedAtTail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	assert.Equal(t, "GF-CAR-1", booking.Spot.ID)

	_, err = svc.ReleaseSpot(ctx, booking.ID, Cash)
	require.NoError(t, err)

	next := svc.FindNearestAvailable(0, Car)
	require.NotNil(t, next)
	assert.Equal(t, "GF-CAR-2", next.ID)
}

func TestParkAtGateErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	car := mustVehicle(t, "TN 01 AB 1234", Car)

	_, err := svc.ParkAtGate(ctx, car, "Z9")
	assert.ErrorIs(t, err, ErrUnknownGate)

	_, err = svc.ParkAtGate(ctx, car, "X1")
	assert.ErrorIs(t, err, ErrNotEntryGate)

	_, err = svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Van), "E1")
	assert.ErrorIs(t, err, ErrNoSpotAvailable)
}

func TestParkAtGateEscalatesUpward(t *testing.T) {
	svc, _ := newTestService(t)

	booking, err := svc.ParkAtGate(context.Background(), mustVehicle(t, "TN 01 AB 1234", ElectricBike), "E1")
	require.NoError(t, err)
	assert.Equal(t, 1, booking.Spot.FloorNumber)
	assert.Equal(t, "F1-EBIKE-1", booking.Spot.ID)
}

func TestParkedVehiclesAndHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	second, err := svc.ParkAtGate(ctx, mustVehicle(t, "KA 05 CD 4321", TwoWheeler), "E1")
	require.NoError(t, err)
	_, err = svc.ReleaseSpot(ctx, first.ID, Cash)
	require.NoError(t, err)

	parked := svc.ParkedVehicles()
	require.Len(t, parked, 1)
	assert.Equal(t, second.ID, parked[0].ID)

	history := svc.History()
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, BookingCompleted, history[0].Status())

	all := svc.Bookings()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, BookingActive, all[1].Status())
}

func TestReturnedBookingsAreCopies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	booking.Spot.FloorNumber = 42
	booking.StartTime = time.Time{}

	stored, err := svc.Booking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Spot.FloorNumber)
	assert.False(t, stored.StartTime.IsZero())
}

func TestBookingUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Booking("nope")
	assert.ErrorIs(t, err, ErrUnknownBooking)
}

func TestAvailabilitySummary(t *testing.T) {
	svc, _ := newTestService(t)

	summary := svc.AvailabilitySummary()
	require.Len(t, summary, 3)
	assert.Equal(t, 0, summary[0].Number)
	assert.Equal(t, "Ground Floor", summary[0].Name)
	assert.Equal(t, 30, summary[0].Capacity)
	assert.Equal(t, []TypeAvailability{
		{Type: TwoWheeler, Available: 10, NextSpotID: "GF-BIKE-1"},
		{Type: Car, Available: 15, NextSpotID: "GF-CAR-1"},
		{Type: ElectricCar, Available: 5, NextSpotID: "GF-ECAR-1"},
	}, summary[0].Types)
	assert.Equal(t, 93, svc.TotalSpots())
}

func TestRequestCharging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	booking, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 EV 0001", ElectricCar), "E1")
	require.NoError(t, err)

	session, err := svc.RequestCharging(ctx, booking.ID, 4.25)
	require.NoError(t, err)
	assert.Equal(t, int64(43), session.Cost)
	assert.Equal(t, 49, svc.ChargingSlotsAvailable(ElectricCar))

	_, err = svc.RequestCharging(ctx, booking.ID, 1)
	assert.ErrorIs(t, err, ErrChargingInProgress)

	_, err = svc.ReleaseSpot(ctx, booking.ID, Card)
	require.NoError(t, err)
	assert.Equal(t, 50, svc.ChargingSlotsAvailable(ElectricCar))

	_, err = svc.RequestCharging(ctx, booking.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyReleased)
}

func TestRequestChargingErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestCharging(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrUnknownBooking)

	car, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", Car), "E1")
	require.NoError(t, err)
	_, err = svc.RequestCharging(ctx, car.ID, 1)
	assert.ErrorIs(t, err, ErrNoChargingSlot)

	_, err = svc.RequestCharging(ctx, car.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestChargingPoolExhausted(t *testing.T) {
	lot, err := BuildLot(context.Background(), DefaultLayout())
	require.NoError(t, err)
	svc, err := NewService(lot, WithChargingCapacity(map[VehicleType]int{ElectricCar: 1}))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 EV 0001", ElectricCar), "E1")
	require.NoError(t, err)
	second, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 EV 0002", ElectricCar), "E1")
	require.NoError(t, err)

	_, err = svc.RequestCharging(ctx, first.ID, 2)
	require.NoError(t, err)
	_, err = svc.RequestCharging(ctx, second.ID, 2)
	assert.ErrorIs(t, err, ErrNoChargingSlot)
}

func TestSubscribeThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "bad", Car)
	assert.ErrorIs(t, err, ErrValidation)

	res, err := svc.Subscribe(ctx, "TN 01 AB 1234", Car)
	require.NoError(t, err)
	assert.Equal(t, Subscribed, res)

	res, err = svc.Subscribe(ctx, "TN 01 AB 1234", Car)
	require.NoError(t, err)
	assert.Equal(t, AlreadySubscribed, res)

	assert.True(t, svc.IsSubscribed("TN 01 AB 1234"))
	assert.Equal(t, map[string]VehicleType{"TN 01 AB 1234": Car}, svc.Subscriptions())
}

func TestBookingIDsAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		b, err := svc.ParkAtGate(ctx, mustVehicle(t, "TN 01 AB 1234", TwoWheeler), "E1")
		require.NoError(t, err)
		assert.False(t, seen[b.ID], b.ID)
		seen[b.ID] = true
	}
}
