package parking

import "errors"

var (
	ErrValidation             = errors.New("invalid input")
	ErrNoSpotProvided         = errors.New("no parking spot provided for booking")
	ErrUnknownFloor           = errors.New("floor does not exist")
	ErrSpotUnavailable        = errors.New("spot is not available or already occupied")
	ErrUnknownBooking         = errors.New("invalid booking id")
	ErrAlreadyReleased        = errors.New("booking already released")
	ErrUnsupportedVehicleType = errors.New("unsupported vehicle type")
	ErrNoChargingSlot         = errors.New("no charging slots available")
	ErrChargingInProgress     = errors.New("charging already requested for booking")
	ErrInvalidPaymentMethod   = errors.New("unsupported payment method")
	ErrUnknownGate            = errors.New("gate does not exist")
	ErrNotEntryGate           = errors.New("gate is not an entry gate")
	ErrNoSpotAvailable        = errors.New("no available spot for vehicle type")

	ErrFloorMismatch    = errors.New("spot belongs to a different floor")
	ErrDuplicateFloor   = errors.New("floor already registered")
	ErrDuplicateSpot    = errors.New("spot id already registered")
	ErrDuplicateBooking = errors.New("booking id already registered")
)
