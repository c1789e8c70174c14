package parking

// ParkingSpot is a single typed space. Two spots are the same spot when their
// IDs match; compare with SameAs rather than by pointer.
type ParkingSpot struct {
	ID          string
	Type        VehicleType
	FloorNumber int
	occupied    bool
}

func NewSpot(id string, vehicleType VehicleType, floorNumber int) *ParkingSpot {
	return &ParkingSpot{
		ID:          id,
		Type:        vehicleType,
		FloorNumber: floorNumber,
	}
}

func (s *ParkingSpot) IsOccupied() bool {
	return s.occupied
}

func (s *ParkingSpot) SameAs(other *ParkingSpot) bool {
	return s != nil && other != nil && s.ID == other.ID
}
