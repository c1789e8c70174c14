package parking

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"parking-lot/internal/logging"
)

// Charging rates per kWh.
var chargingRates = map[VehicleType]int64{
	ElectricBike: 5,
	ElectricCar:  10,
}

type ChargingEngine struct{}

func NewChargingEngine() *ChargingEngine {
	return &ChargingEngine{}
}

// CalculateChargingCost returns the unrounded cost of kwh for vehicleType.
// Non-electric types cost nothing and log a warning. Round with ChargeAmount
// before presenting or charging.
func (e *ChargingEngine) CalculateChargingCost(ctx context.Context, vehicleType VehicleType, kwh float64) decimal.Decimal {
	rate, ok := chargingRates[vehicleType]
	if !ok {
		logging.Warn(ctx, "charging cost requested for non-electric vehicle type",
			"vehicle_type", vehicleType.String())
		return decimal.Zero
	}
	return decimal.NewFromInt(rate).Mul(decimal.NewFromFloat(kwh))
}

func ChargeAmount(cost decimal.Decimal) int64 {
	return cost.Ceil().IntPart()
}

func DefaultChargingCapacity() map[VehicleType]int {
	return map[VehicleType]int{
		ElectricBike: 100,
		ElectricCar:  50,
	}
}

// ChargingSlots caps the number of simultaneous charging sessions per
// vehicle type. Types without a pool never get a slot.
type ChargingSlots struct {
	capacity  map[VehicleType]int
	available map[VehicleType]int
}

func NewChargingSlots(capacity map[VehicleType]int) *ChargingSlots {
	s := &ChargingSlots{
		capacity:  make(map[VehicleType]int, len(capacity)),
		available: make(map[VehicleType]int, len(capacity)),
	}
	for vt, n := range capacity {
		if n < 0 {
			n = 0
		}
		s.capacity[vt] = n
		s.available[vt] = n
	}
	return s
}

func (s *ChargingSlots) HasAvailable(vehicleType VehicleType) bool {
	return s.available[vehicleType] > 0
}

func (s *ChargingSlots) Allocate(vehicleType VehicleType) error {
	if !s.HasAvailable(vehicleType) {
		return fmt.Errorf("%w: %s", ErrNoChargingSlot, vehicleType)
	}
	s.available[vehicleType]--
	return nil
}

func (s *ChargingSlots) Release(vehicleType VehicleType) {
	if s.available[vehicleType] < s.capacity[vehicleType] {
		s.available[vehicleType]++
	}
}

func (s *ChargingSlots) Available(vehicleType VehicleType) int {
	return s.available[vehicleType]
}
