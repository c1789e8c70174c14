package parking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Per-hour parking rates in whole currency units.
var hourlyRates = map[VehicleType]int64{
	Bicycle:      10,
	TwoWheeler:   15,
	ThreeWheeler: 20,
	Car:          30,
	Van:          35,
	MiniTruck:    35,
	ElectricBike: 15,
	ElectricCar:  30,
}

var subscriberRate = decimal.RequireFromString("0.8")

type SubscriptionChecker interface {
	IsSubscribed(registrationNumber string) bool
}

type FeeEngine struct {
	subscriptions SubscriptionChecker
}

func NewFeeEngine(subscriptions SubscriptionChecker) *FeeEngine {
	return &FeeEngine{subscriptions: subscriptions}
}

func HourlyRate(vehicleType VehicleType) (int64, error) {
	rate, ok := hourlyRates[vehicleType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedVehicleType, vehicleType)
	}
	return rate, nil
}

// CalculateFee charges rate*hours. When planID names a currently subscribed
// registration the fee is 80% of that, truncated. An empty planID means no
// plan. hours is used as given; callers clamp it with BillableHours.
func (e *FeeEngine) CalculateFee(vehicleType VehicleType, hours int, planID string) (int64, error) {
	rate, err := HourlyRate(vehicleType)
	if err != nil {
		return 0, err
	}
	if hours < 0 {
		return 0, fmt.Errorf("%w: negative duration %d", ErrValidation, hours)
	}

	fee := decimal.NewFromInt(rate).Mul(decimal.NewFromInt(int64(hours)))
	if planID != "" && e.subscriptions != nil && e.subscriptions.IsSubscribed(planID) {
		fee = fee.Mul(subscriberRate).Truncate(0)
	}
	return fee.IntPart(), nil
}

// BillableHours rounds the whole minutes between start and end up to hours,
// with a one hour minimum.
func BillableHours(start, end time.Time) int {
	minutes := int64(end.Sub(start) / time.Minute)
	hours := (minutes + 59) / 60
	if hours < 1 {
		return 1
	}
	return int(hours)
}
