package parking

import "fmt"

// Floor tracks which of its spots are free, per vehicle type. A spot added to
// the floor is always in exactly one place: its type's available queue or the
// occupied map.
type Floor struct {
	number    int
	name      string
	spots     map[string]*ParkingSpot
	available map[VehicleType][]*ParkingSpot
	occupied  map[string]*ParkingSpot
}

type TypeAvailability struct {
	Type       VehicleType `json:"vehicle_type"`
	Available  int         `json:"available"`
	NextSpotID string      `json:"next_spot_id"`
}

func NewFloor(number int, name string) *Floor {
	f := &Floor{
		number:    number,
		name:      name,
		spots:     make(map[string]*ParkingSpot),
		available: make(map[VehicleType][]*ParkingSpot),
		occupied:  make(map[string]*ParkingSpot),
	}
	for _, vt := range VehicleTypes() {
		f.available[vt] = nil
	}
	return f
}

func (f *Floor) Number() int {
	return f.number
}

func (f *Floor) Name() string {
	return f.name
}

// AddSpot puts a new spot at the tail of its type's queue. Only used while the
// lot is being built.
func (f *Floor) AddSpot(spot *ParkingSpot) error {
	if spot.FloorNumber != f.number {
		return fmt.Errorf("%w: spot %s is on floor %d, not floor %d", ErrFloorMismatch, spot.ID, spot.FloorNumber, f.number)
	}
	if !spot.Type.Valid() {
		return fmt.Errorf("%w: spot %s", ErrUnsupportedVehicleType, spot.ID)
	}
	if _, exists := f.spots[spot.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSpot, spot.ID)
	}

	spot.occupied = false
	f.spots[spot.ID] = spot
	f.available[spot.Type] = append(f.available[spot.Type], spot)
	return nil
}

func (f *Floor) Spot(id string) (*ParkingSpot, bool) {
	spot, ok := f.spots[id]
	return spot, ok
}

// PeekAvailable returns the next spot offered for vehicleType without
// reserving it, or nil.
func (f *Floor) PeekAvailable(vehicleType VehicleType) *ParkingSpot {
	queue := f.available[vehicleType]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

// Allocate marks spot occupied. It reports false when the spot is not waiting
// in its type's queue, which covers spots that are taken or unknown here.
func (f *Floor) Allocate(spot *ParkingSpot) bool {
	if spot == nil {
		return false
	}
	if _, taken := f.occupied[spot.ID]; taken {
		return false
	}

	queue := f.available[spot.Type]
	for i, candidate := range queue {
		if candidate.ID != spot.ID {
			continue
		}
		f.available[spot.Type] = append(queue[:i:i], queue[i+1:]...)
		candidate.occupied = true
		f.occupied[candidate.ID] = candidate
		return true
	}
	return false
}

// Release frees an occupied spot and re-queues it at the tail, so freed spots
// are reused round-robin.
func (f *Floor) Release(spot *ParkingSpot) bool {
	if spot == nil {
		return false
	}
	owned, ok := f.occupied[spot.ID]
	if !ok {
		return false
	}

	delete(f.occupied, owned.ID)
	owned.occupied = false
	f.available[owned.Type] = append(f.available[owned.Type], owned)
	return true
}

// OccupiedSnapshot returns copies of the occupied spots keyed by ID.
func (f *Floor) OccupiedSnapshot() map[string]ParkingSpot {
	snapshot := make(map[string]ParkingSpot, len(f.occupied))
	for id, spot := range f.occupied {
		snapshot[id] = *spot
	}
	return snapshot
}

func (f *Floor) AvailableCount(vehicleType VehicleType) int {
	return len(f.available[vehicleType])
}

func (f *Floor) OccupiedCount() int {
	return len(f.occupied)
}

func (f *Floor) Capacity() int {
	return len(f.spots)
}

// Availability lists the vehicle types with at least one free spot, in
// declaration order.
func (f *Floor) Availability() []TypeAvailability {
	var out []TypeAvailability
	for _, vt := range VehicleTypes() {
		queue := f.available[vt]
		if len(queue) == 0 {
			continue
		}
		out = append(out, TypeAvailability{
			Type:       vt,
			Available:  len(queue),
			NextSpotID: queue[0].ID,
		})
	}
	return out
}
