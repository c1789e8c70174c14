package parking

import "fmt"

type SubscribeResult int

const (
	Subscribed SubscribeResult = iota + 1
	AlreadySubscribed
)

func (r SubscribeResult) String() string {
	switch r {
	case Subscribed:
		return "subscribed"
	case AlreadySubscribed:
		return "already subscribed"
	default:
		return "unknown"
	}
}

type Plan struct {
	Name       string `json:"name"`
	MonthlyFee int64  `json:"monthly_fee"`
	Benefits   string `json:"benefits"`
}

// Plans is the catalog shown to customers. Every subscribed vehicle gets the
// parking discount regardless of plan.
func Plans() []Plan {
	return []Plan{
		{Name: "Basic", MonthlyFee: 100, Benefits: "standard parking"},
		{Name: "Premium", MonthlyFee: 250, Benefits: "priority parking, EV charging included, 20% discount on parking fees"},
	}
}

// SubscriptionLedger maps subscribed registration numbers to their vehicle
// type. One plan per registration.
type SubscriptionLedger struct {
	vehicles map[string]VehicleType
}

func NewSubscriptionLedger() *SubscriptionLedger {
	return &SubscriptionLedger{
		vehicles: make(map[string]VehicleType),
	}
}

func (l *SubscriptionLedger) Subscribe(registrationNumber string, vehicleType VehicleType) (SubscribeResult, error) {
	if !IsValidRegistrationNumber(registrationNumber) {
		return 0, fmt.Errorf("%w: registration number %q", ErrValidation, registrationNumber)
	}
	if !vehicleType.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVehicleType, int(vehicleType))
	}
	if _, ok := l.vehicles[registrationNumber]; ok {
		return AlreadySubscribed, nil
	}
	l.vehicles[registrationNumber] = vehicleType
	return Subscribed, nil
}

func (l *SubscriptionLedger) IsSubscribed(registrationNumber string) bool {
	_, ok := l.vehicles[registrationNumber]
	return ok
}

func (l *SubscriptionLedger) VehicleTypeFor(registrationNumber string) (VehicleType, bool) {
	vt, ok := l.vehicles[registrationNumber]
	return vt, ok
}

func (l *SubscriptionLedger) All() map[string]VehicleType {
	out := make(map[string]VehicleType, len(l.vehicles))
	for reg, vt := range l.vehicles {
		out[reg] = vt
	}
	return out
}
