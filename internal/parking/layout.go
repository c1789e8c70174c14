package parking

import (
	"context"
	"fmt"

	"parking-lot/internal/logging"
)

type Layout struct {
	Floors []FloorPlan `mapstructure:"floors"`
	Gates  []GatePlan  `mapstructure:"gates"`
}

type FloorPlan struct {
	Number int         `mapstructure:"number"`
	Name   string      `mapstructure:"name"`
	Spots  []SpotGroup `mapstructure:"spots"`
}

// SpotGroup expands to Count spots with IDs Prefix+"1" .. Prefix+Count.
type SpotGroup struct {
	Type   string `mapstructure:"type"`
	Count  int    `mapstructure:"count"`
	Prefix string `mapstructure:"prefix"`
}

type GatePlan struct {
	ID        string `mapstructure:"id"`
	Floor     int    `mapstructure:"floor"`
	Direction string `mapstructure:"direction"`
	Location  string `mapstructure:"location"`
}

func DefaultLayout() Layout {
	return Layout{
		Floors: []FloorPlan{
			{Number: 0, Name: "Ground Floor", Spots: []SpotGroup{
				{Type: "TWO_WHEELER", Count: 10, Prefix: "GF-BIKE-"},
				{Type: "CAR", Count: 15, Prefix: "GF-CAR-"},
				{Type: "ELECTRIC_CAR", Count: 5, Prefix: "GF-ECAR-"},
			}},
			{Number: 1, Name: "First Floor", Spots: []SpotGroup{
				{Type: "CAR", Count: 20, Prefix: "F1-CAR-"},
				{Type: "ELECTRIC_BIKE", Count: 8, Prefix: "F1-EBIKE-"},
			}},
			{Number: 2, Name: "Second Floor", Spots: []SpotGroup{
				{Type: "CAR", Count: 25, Prefix: "F2-CAR-"},
				{Type: "TWO_WHEELER", Count: 10, Prefix: "F2-BIKE-"},
			}},
		},
		Gates: []GatePlan{
			{ID: "E1", Floor: 0, Direction: "ENTRY", Location: "Main Entry - Ground Floor"},
			{ID: "E2", Floor: 1, Direction: "ENTRY", Location: "Entry - First Floor"},
			{ID: "X1", Floor: 0, Direction: "EXIT", Location: "Main Exit - Ground Floor"},
			{ID: "X2", Floor: 2, Direction: "EXIT", Location: "Exit - Second Floor"},
		},
	}
}

// BuildLot creates the floors, spots and gates described by layout.
func BuildLot(ctx context.Context, layout Layout) (*Lot, error) {
	lot := NewLot()

	for _, plan := range layout.Floors {
		floor := NewFloor(plan.Number, plan.Name)
		for _, group := range plan.Spots {
			vt, err := ParseVehicleType(group.Type)
			if err != nil {
				return nil, fmt.Errorf("floor %d: %w", plan.Number, err)
			}
			if group.Count < 0 {
				return nil, fmt.Errorf("%w: floor %d has negative %s count", ErrValidation, plan.Number, vt)
			}
			for i := 1; i <= group.Count; i++ {
				if err := floor.AddSpot(NewSpot(fmt.Sprintf("%s%d", group.Prefix, i), vt, plan.Number)); err != nil {
					return nil, err
				}
			}
		}
		if err := lot.AddFloor(floor); err != nil {
			return nil, err
		}
	}
	logging.Info(ctx, "parking floors and spots initialized",
		"floors", len(layout.Floors), "spots", lot.TotalSpots())

	for _, plan := range layout.Gates {
		direction, err := ParseGateDirection(plan.Direction)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", plan.ID, err)
		}
		gate := Gate{
			ID:          plan.ID,
			FloorNumber: plan.Floor,
			Direction:   direction,
			Location:    plan.Location,
		}
		if err := lot.AddGate(gate); err != nil {
			return nil, err
		}
	}
	logging.Info(ctx, "parking gates initialized", "gates", len(layout.Gates))

	return lot, nil
}
