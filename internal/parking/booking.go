package parking

import (
	"fmt"
	"strings"
	"time"
)

type PaymentMethod int

const (
	Cash PaymentMethod = iota + 1
	Card
	UPI
	Wallet
)

var paymentMethodNames = map[PaymentMethod]string{
	Cash:   "CASH",
	Card:   "CARD",
	UPI:    "UPI",
	Wallet: "WALLET",
}

func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Cash, Card, UPI, Wallet}
}

func (m PaymentMethod) String() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PaymentMethod(%d)", int(m))
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethodNames[m]
	return ok
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPaymentMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range paymentMethodNames {
		if name == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

type Payment struct {
	ID        string        `json:"id"`
	Amount    int64         `json:"amount"`
	Timestamp time.Time     `json:"timestamp"`
	Method    PaymentMethod `json:"method"`
}

type ChargingSession struct {
	KWh       float64   `json:"kwh"`
	Cost      int64     `json:"cost"`
	StartedAt time.Time `json:"started_at"`
}

type BookingStatus string

const (
	BookingActive    BookingStatus = "ACTIVE"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Booking records one vehicle occupying one spot. It is created ACTIVE and
// completed exactly once, when EndTime and Payment are set together.
type Booking struct {
	ID        string
	Vehicle   *Vehicle
	Spot      *ParkingSpot
	StartTime time.Time
	EndTime   *time.Time
	Payment   *Payment
	Charging  *ChargingSession
}

func (b *Booking) Status() BookingStatus {
	if b.EndTime != nil {
		return BookingCompleted
	}
	return BookingActive
}

func (b *Booking) IsActive() bool {
	return b.EndTime == nil
}

func (b *Booking) complete(end time.Time, payment *Payment) {
	b.EndTime = &end
	b.Payment = payment
}

// clone copies everything the booking points to except the immutable vehicle.
func (b *Booking) clone() *Booking {
	out := *b
	if b.Spot != nil {
		spot := *b.Spot
		out.Spot = &spot
	}
	if b.EndTime != nil {
		end := *b.EndTime
		out.EndTime = &end
	}
	if b.Payment != nil {
		payment := *b.Payment
		out.Payment = &payment
	}
	if b.Charging != nil {
		session := *b.Charging
		out.Charging = &session
	}
	return &out
}

// BookingLedger keeps every booking ever made, in the order they were added.
type BookingLedger struct {
	bookings map[string]*Booking
	order    []string
}

func NewBookingLedger() *BookingLedger {
	return &BookingLedger{
		bookings: make(map[string]*Booking),
	}
}

func (l *BookingLedger) Add(booking *Booking) error {
	if _, exists := l.bookings[booking.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBooking, booking.ID)
	}
	l.bookings[booking.ID] = booking
	l.order = append(l.order, booking.ID)
	return nil
}

func (l *BookingLedger) Get(id string) (*Booking, bool) {
	b, ok := l.bookings[id]
	return b, ok
}

func (l *BookingLedger) All() []*Booking {
	out := make([]*Booking, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.bookings[id])
	}
	return out
}

func (l *BookingLedger) Len() int {
	return len(l.order)
}
