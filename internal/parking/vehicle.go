package parking

import (
	"fmt"
	"regexp"
	"strings"
)

type VehicleType int

// Declaration order is the display order offered to customers.
const (
	TwoWheeler VehicleType = iota + 1
	ThreeWheeler
	Bicycle
	Car
	Van
	MiniTruck
	ElectricBike
	ElectricCar
)

var vehicleTypeNames = map[VehicleType]string{
	TwoWheeler:   "TWO_WHEELER",
	ThreeWheeler: "THREE_WHEELER",
	Bicycle:      "BICYCLE",
	Car:          "CAR",
	Van:          "VAN",
	MiniTruck:    "MINI_TRUCK",
	ElectricBike: "ELECTRIC_BIKE",
	ElectricCar:  "ELECTRIC_CAR",
}

// VehicleTypes returns every vehicle type in declaration order.
func VehicleTypes() []VehicleType {
	return []VehicleType{TwoWheeler, ThreeWheeler, Bicycle, Car, Van, MiniTruck, ElectricBike, ElectricCar}
}

func (t VehicleType) String() string {
	if name, ok := vehicleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("VehicleType(%d)", int(t))
}

func (t VehicleType) Valid() bool {
	_, ok := vehicleTypeNames[t]
	return ok
}

func (t VehicleType) IsElectric() bool {
	return t == ElectricBike || t == ElectricCar
}

func (t VehicleType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVehicleType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *VehicleType) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseVehicleType accepts the upper-snake name in any case, with '-' or ' '
// in place of '_'.
func ParseVehicleType(s string) (VehicleType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for t, name := range vehicleTypeNames {
		if name == norm {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedVehicleType, s)
}

// Registration numbers look like "TN 01 AA 0001".
var registrationPattern = regexp.MustCompile(`^[A-Z]{2} [0-9]{2} [A-Z]{2} [0-9]{4}$`)

func IsValidRegistrationNumber(registrationNumber string) bool {
	return registrationPattern.MatchString(registrationNumber)
}

type Vehicle struct {
	registrationNumber string
	vehicleType        VehicleType
}

func NewVehicle(registrationNumber string, vehicleType VehicleType) (*Vehicle, error) {
	if !IsValidRegistrationNumber(registrationNumber) {
		return nil, fmt.Errorf("%w: registration number %q, expected format 'CC NN CC NNNN' (e.g. 'TN 01 AA 0001')",
			ErrValidation, registrationNumber)
	}
	if !vehicleType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVehicleType, int(vehicleType))
	}
	return &Vehicle{
		registrationNumber: registrationNumber,
		vehicleType:        vehicleType,
	}, nil
}

func (v *Vehicle) RegistrationNumber() string {
	return v.registrationNumber
}

func (v *Vehicle) Type() VehicleType {
	return v.vehicleType
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("%s (%s)", v.registrationNumber, v.vehicleType)
}
