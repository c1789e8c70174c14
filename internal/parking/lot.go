package parking

import (
	"fmt"
	"sort"
)

// Lot is the topology of a single facility: its floors and gates.
type Lot struct {
	floors    map[int]*Floor
	spotFloor map[string]int
	gates     []Gate
	gateIndex map[string]int
}

func NewLot() *Lot {
	return &Lot{
		floors:    make(map[int]*Floor),
		spotFloor: make(map[string]int),
		gateIndex: make(map[string]int),
	}
}

// AddFloor registers a floor together with the spots already added to it.
// Spot IDs must be unique across the whole lot.
func (l *Lot) AddFloor(floor *Floor) error {
	if _, exists := l.floors[floor.Number()]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateFloor, floor.Number())
	}
	for id := range floor.spots {
		if other, exists := l.spotFloor[id]; exists {
			return fmt.Errorf("%w: %s already on floor %d", ErrDuplicateSpot, id, other)
		}
	}

	l.floors[floor.Number()] = floor
	for id := range floor.spots {
		l.spotFloor[id] = floor.Number()
	}
	return nil
}

func (l *Lot) AddGate(gate Gate) error {
	if _, exists := l.gateIndex[gate.ID]; exists {
		return fmt.Errorf("%w: gate %s already registered", ErrValidation, gate.ID)
	}
	if _, ok := l.floors[gate.FloorNumber]; !ok {
		return fmt.Errorf("%w: gate %s is on floor %d", ErrUnknownFloor, gate.ID, gate.FloorNumber)
	}
	if gate.Direction != Entry && gate.Direction != Exit {
		return fmt.Errorf("%w: gate %s has no direction", ErrValidation, gate.ID)
	}

	l.gateIndex[gate.ID] = len(l.gates)
	l.gates = append(l.gates, gate)
	return nil
}

func (l *Lot) Floor(number int) (*Floor, bool) {
	f, ok := l.floors[number]
	return f, ok
}

// FloorNumbers returns the registered floor numbers in ascending order.
func (l *Lot) FloorNumbers() []int {
	numbers := make([]int, 0, len(l.floors))
	for n := range l.floors {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func (l *Lot) Floors() []*Floor {
	numbers := l.FloorNumbers()
	floors := make([]*Floor, 0, len(numbers))
	for _, n := range numbers {
		floors = append(floors, l.floors[n])
	}
	return floors
}

// SearchOrder is the order floors are tried when looking for a spot near
// requested: the floor itself, the floors above it going up, then the floors
// below it going down. Only registered floors are listed.
func (l *Lot) SearchOrder(requested int) []int {
	numbers := l.FloorNumbers()
	order := make([]int, 0, len(numbers))

	if _, ok := l.floors[requested]; ok {
		order = append(order, requested)
	}
	for _, n := range numbers {
		if n > requested {
			order = append(order, n)
		}
	}
	for i := len(numbers) - 1; i >= 0; i-- {
		if numbers[i] < requested {
			order = append(order, numbers[i])
		}
	}
	return order
}

// FindNearestAvailable returns the first free spot for vehicleType in
// SearchOrder, or nil when the lot has none. The spot is not reserved.
func (l *Lot) FindNearestAvailable(requested int, vehicleType VehicleType) *ParkingSpot {
	for _, n := range l.SearchOrder(requested) {
		if spot := l.floors[n].PeekAvailable(vehicleType); spot != nil {
			return spot
		}
	}
	return nil
}

func (l *Lot) Gates() []Gate {
	out := make([]Gate, len(l.gates))
	copy(out, l.gates)
	return out
}

func (l *Lot) EntryGates() []Gate {
	var out []Gate
	for _, g := range l.gates {
		if g.Direction == Entry {
			out = append(out, g)
		}
	}
	return out
}

func (l *Lot) Gate(id string) (Gate, bool) {
	i, ok := l.gateIndex[id]
	if !ok {
		return Gate{}, false
	}
	return l.gates[i], true
}

func (l *Lot) TotalSpots() int {
	return len(l.spotFloor)
}

func (l *Lot) OccupiedSpots() int {
	total := 0
	for _, f := range l.floors {
		total += f.OccupiedCount()
	}
	return total
}
