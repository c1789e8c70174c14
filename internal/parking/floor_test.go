package parking

import (
	"errors"
	"testing"
)

func newTestFloor(t *testing.T) *Floor {
	t.Helper()
	f := NewFloor(1, "First Floor")
	for _, id := range []string{"F1-CAR-1", "F1-CAR-2", "F1-CAR-3"} {
		if err := f.AddSpot(NewSpot(id, Car, 1)); err != nil {
			t.Fatalf("Unexpected error: %s", err.Error())
		}
	}
	if err := f.AddSpot(NewSpot("F1-EBIKE-1", ElectricBike, 1)); err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
	return f
}

func TestFloorAddSpotRejectsWrongFloor(t *testing.T) {
	f := NewFloor(0, "Ground Floor")

	err := f.AddSpot(NewSpot("F2-CAR-1", Car, 2))
	if !errors.Is(err, ErrFloorMismatch) {
		t.Errorf("Expected ErrFloorMismatch, got %v", err)
	}

	if f.Capacity() != 0 {
		t.Errorf("Expected mismatched spot to be ignored, capacity is %d", f.Capacity())
	}
}

func TestFloorAddSpotRejectsDuplicate(t *testing.T) {
	f := newTestFloor(t)

	err := f.AddSpot(NewSpot("F1-CAR-1", Car, 1))
	if !errors.Is(err, ErrDuplicateSpot) {
		t.Errorf("Expected ErrDuplicateSpot, got %v", err)
	}
	if f.AvailableCount(Car) != 3 {
		t.Errorf("Expected 3 car spots, got %d", f.AvailableCount(Car))
	}
}

func TestFloorPeekIsFIFOAndDoesNotRemove(t *testing.T) {
	f := newTestFloor(t)

	first := f.PeekAvailable(Car)
	if first == nil || first.ID != "F1-CAR-1" {
		t.Fatalf("Expected F1-CAR-1 at head, got %v", first)
	}

	again := f.PeekAvailable(Car)
	if again != first {
		t.Error("Expected peek to leave the queue untouched")
	}

	if f.PeekAvailable(Van) != nil {
		t.Error("Expected no van spot on this floor")
	}
}

func TestFloorAllocateReleaseRoundTrip(t *testing.T) {
	f := newTestFloor(t)
	spot := f.PeekAvailable(Car)

	if !f.Allocate(spot) {
		t.Fatal("Expected allocation to succeed")
	}
	if !spot.IsOccupied() {
		t.Error("Expected spot to be occupied")
	}
	if f.AvailableCount(Car) != 2 {
		t.Errorf("Expected 2 available car spots, got %d", f.AvailableCount(Car))
	}
	if _, ok := f.OccupiedSnapshot()[spot.ID]; !ok {
		t.Error("Expected spot in occupied snapshot")
	}

	if !f.Release(spot) {
		t.Fatal("Expected release to succeed")
	}
	if spot.IsOccupied() {
		t.Error("Expected spot to be free after release")
	}
	if f.AvailableCount(Car) != 3 {
		t.Errorf("Expected 3 available car spots, got %d", f.AvailableCount(Car))
	}
	if len(f.OccupiedSnapshot()) != 0 {
		t.Error("Expected empty occupied snapshot")
	}
}

func TestFloorReleaseRequeuesAtTail(t *testing.T) {
	f := newTestFloor(t)
	spot := f.PeekAvailable(Car)
	f.Allocate(spot)
	f.Release(spot)

	if head := f.PeekAvailable(Car); head.ID != "F1-CAR-2" {
		t.Errorf("Expected F1-CAR-2 at head after release, got %s", head.ID)
	}

	avail := f.Availability()
	if len(avail) != 2 || avail[0].Type != Car || avail[0].NextSpotID != "F1-CAR-2" {
		t.Errorf("Unexpected availability %+v", avail)
	}
}

func TestFloorDoubleAllocateFails(t *testing.T) {
	f := newTestFloor(t)
	spot := f.PeekAvailable(Car)

	if !f.Allocate(spot) {
		t.Fatal("Expected first allocation to succeed")
	}
	if f.Allocate(spot) {
		t.Error("Expected second allocation to fail")
	}
	if f.Allocate(NewSpot(spot.ID, Car, 1)) {
		t.Error("Expected allocation of an equal spot to fail")
	}
}

func TestFloorAllocateUnknownSpotFails(t *testing.T) {
	f := newTestFloor(t)

	if f.Allocate(NewSpot("F9-CAR-1", Car, 1)) {
		t.Error("Expected allocation of unknown spot to fail")
	}
	if f.Allocate(nil) {
		t.Error("Expected allocation of nil spot to fail")
	}
	if f.Release(NewSpot("F1-CAR-1", Car, 1)) {
		t.Error("Expected release of a free spot to fail")
	}
}

func TestFloorOccupiedSnapshotIsACopy(t *testing.T) {
	f := newTestFloor(t)
	spot := f.PeekAvailable(Car)
	f.Allocate(spot)

	snapshot := f.OccupiedSnapshot()
	delete(snapshot, spot.ID)
	snapshot["bogus"] = ParkingSpot{ID: "bogus"}

	if f.OccupiedCount() != 1 {
		t.Errorf("Expected snapshot mutation to leave floor unchanged, got %d occupied", f.OccupiedCount())
	}
	if _, ok := f.OccupiedSnapshot()[spot.ID]; !ok {
		t.Error("Expected spot still occupied")
	}
}
