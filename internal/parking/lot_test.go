package parking

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func buildLot(t *testing.T, floors map[int][]SpotGroup) *Lot {
	t.Helper()
	layout := Layout{}
	for number, groups := range floors {
		layout.Floors = append(layout.Floors, FloorPlan{
			Number: number,
			Name:   "Floor",
			Spots:  groups,
		})
	}
	lot, err := BuildLot(context.Background(), layout)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	return lot
}

func TestBuildDefaultLot(t *testing.T) {
	lot, err := BuildLot(context.Background(), DefaultLayout())
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}

	if lot.TotalSpots() != 93 {
		t.Errorf("Expected 93 spots, got %d", lot.TotalSpots())
	}

	if !reflect.DeepEqual(lot.FloorNumbers(), []int{0, 1, 2}) {
		t.Errorf("Unexpected floors %v", lot.FloorNumbers())
	}

	entries := lot.EntryGates()
	if len(entries) != 2 || entries[0].ID != "E1" || entries[1].ID != "E2" {
		t.Errorf("Unexpected entry gates %+v", entries)
	}

	if len(lot.Gates()) != 4 {
		t.Errorf("Expected 4 gates, got %d", len(lot.Gates()))
	}

	gate, ok := lot.Gate("X2")
	if !ok || gate.FloorNumber != 2 || gate.Direction != Exit {
		t.Errorf("Unexpected gate %+v", gate)
	}
}

func TestSearchOrder(t *testing.T) {
	lot := buildLot(t, map[int][]SpotGroup{
		-1: nil, 0: nil, 1: nil, 3: nil, 4: nil,
	})

	cases := map[int][]int{
		1:  {1, 3, 4, 0, -1},
		-1: {-1, 0, 1, 3, 4},
		4:  {4, 3, 1, 0, -1},
		2:  {3, 4, 1, 0, -1},
		9:  {4, 3, 1, 0, -1},
	}
	for requested, want := range cases {
		if got := lot.SearchOrder(requested); !reflect.DeepEqual(got, want) {
			t.Errorf("SearchOrder(%d) = %v, want %v", requested, got, want)
		}
	}
}

func TestFindNearestAvailableExactFloor(t *testing.T) {
	lot := buildLot(t, map[int][]SpotGroup{
		0: {{Type: "CAR", Count: 2, Prefix: "F0-CAR-"}},
		1: {{Type: "CAR", Count: 2, Prefix: "F1-CAR-"}},
		2: {{Type: "CAR", Count: 2, Prefix: "F2-CAR-"}},
	})

	spot := lot.FindNearestAvailable(1, Car)
	if spot == nil || spot.FloorNumber != 1 {
		t.Fatalf("Expected a floor 1 spot, got %+v", spot)
	}
}

func TestFindNearestAvailableEscalatesUpward(t *testing.T) {
	lot := buildLot(t, map[int][]SpotGroup{
		-1: {{Type: "ELECTRIC_BIKE", Count: 1, Prefix: "B1-EBIKE-"}},
		0:  {{Type: "CAR", Count: 1, Prefix: "F0-CAR-"}},
		1:  {{Type: "ELECTRIC_BIKE", Count: 2, Prefix: "F1-EBIKE-"}},
	})

	spot := lot.FindNearestAvailable(0, ElectricBike)
	if spot == nil || spot.FloorNumber != 1 {
		t.Fatalf("Expected a floor 1 spot, got %+v", spot)
	}

	if lot.FindNearestAvailable(0, ElectricBike) != spot {
		t.Error("Expected search to leave the spot in the queue")
	}
}

func TestFindNearestAvailableFallsBackDownward(t *testing.T) {
	lot := buildLot(t, map[int][]SpotGroup{
		0: {{Type: "VAN", Count: 1, Prefix: "F0-VAN-"}},
		1: nil,
		2: nil,
	})

	spot := lot.FindNearestAvailable(2, Van)
	if spot == nil || spot.ID != "F0-VAN-1" {
		t.Fatalf("Expected F0-VAN-1, got %+v", spot)
	}
}

func TestFindNearestAvailableNone(t *testing.T) {
	lot := buildLot(t, map[int][]SpotGroup{
		0: {{Type: "CAR", Count: 1, Prefix: "F0-CAR-"}},
	})

	if spot := lot.FindNearestAvailable(0, MiniTruck); spot != nil {
		t.Errorf("Expected no spot, got %+v", spot)
	}
}

func TestLotRejectsDuplicateSpotAcrossFloors(t *testing.T) {
	layout := Layout{Floors: []FloorPlan{
		{Number: 0, Spots: []SpotGroup{{Type: "CAR", Count: 1, Prefix: "CAR-"}}},
		{Number: 1, Spots: []SpotGroup{{Type: "CAR", Count: 1, Prefix: "CAR-"}}},
	}}

	_, err := BuildLot(context.Background(), layout)
	if !errors.Is(err, ErrDuplicateSpot) {
		t.Errorf("Expected ErrDuplicateSpot, got %v", err)
	}
}

func TestLotRejectsDuplicateFloor(t *testing.T) {
	lot := NewLot()
	if err := lot.AddFloor(NewFloor(0, "A")); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	if err := lot.AddFloor(NewFloor(0, "B")); !errors.Is(err, ErrDuplicateFloor) {
		t.Errorf("Expected ErrDuplicateFloor, got %v", err)
	}
}

func TestLotRejectsGateOnUnknownFloor(t *testing.T) {
	layout := Layout{
		Floors: []FloorPlan{{Number: 0}},
		Gates:  []GatePlan{{ID: "E1", Floor: 5, Direction: "entry"}},
	}

	_, err := BuildLot(context.Background(), layout)
	if !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("Expected ErrUnknownFloor, got %v", err)
	}
}

func TestBuildLotRejectsUnknownSpotType(t *testing.T) {
	layout := Layout{Floors: []FloorPlan{
		{Number: 0, Spots: []SpotGroup{{Type: "SPACESHIP", Count: 1, Prefix: "X-"}}},
	}}

	_, err := BuildLot(context.Background(), layout)
	if !errors.Is(err, ErrUnsupportedVehicleType) {
		t.Errorf("Expected ErrUnsupportedVehicleType, got %v", err)
	}
}
