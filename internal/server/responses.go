package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-lot/internal/logging"
	"parking-lot/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	TotalSpots    int    `json:"total_spots"`
	OccupiedSpots int    `json:"occupied_spots"`
	Meta          *Meta  `json:"meta,omitempty"`
}

type BookingCreateRequest struct {
	Registration string `json:"registration"`
	VehicleType  string `json:"vehicle_type"`
	GateID       string `json:"gate_id"`
}

type ReleaseRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type ChargingRequest struct {
	KWh *float64 `json:"kwh"`
}

type SubscriptionRequest struct {
	Registration string `json:"registration"`
	VehicleType  string `json:"vehicle_type"`
}

type SpotResponse struct {
	ID          string              `json:"id"`
	VehicleType parking.VehicleType `json:"vehicle_type"`
	Floor       int                 `json:"floor"`
}

type BookingResponse struct {
	ID           string                   `json:"id"`
	Registration string                   `json:"registration"`
	VehicleType  parking.VehicleType      `json:"vehicle_type"`
	Spot         SpotResponse             `json:"spot"`
	Status       parking.BookingStatus    `json:"status"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      *time.Time               `json:"end_time,omitempty"`
	Payment      *parking.Payment         `json:"payment,omitempty"`
	Charging     *parking.ChargingSession `json:"charging,omitempty"`
}

type SubscriptionResponse struct {
	Registration string              `json:"registration"`
	VehicleType  parking.VehicleType `json:"vehicle_type"`
}

func newSpotResponse(spot *parking.ParkingSpot) SpotResponse {
	return SpotResponse{
		ID:          spot.ID,
		VehicleType: spot.Type,
		Floor:       spot.FloorNumber,
	}
}

func newBookingResponse(b *parking.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		Registration: b.Vehicle.RegistrationNumber(),
		VehicleType:  b.Vehicle.Type(),
		Spot:         newSpotResponse(b.Spot),
		Status:       b.Status(),
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Payment:      b.Payment,
		Charging:     b.Charging,
	}
}

func newBookingResponses(bookings []*parking.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingResponse(b))
	}
	return out
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger().Error("failed to encode response", "error", err)
	}
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(ctx, w, http.StatusOK, message, data)
}

func WriteSuccessStatus(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

// WriteDomainError picks the status code for an error returned by the
// parking service.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.Error(ctx, "request failed", "error", err.Error())
		WriteError(ctx, w, status, "Internal server error")
		return
	}
	WriteError(ctx, w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, parking.ErrValidation),
		errors.Is(err, parking.ErrInvalidPaymentMethod),
		errors.Is(err, parking.ErrNoSpotProvided),
		errors.Is(err, parking.ErrNotEntryGate):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrUnknownBooking),
		errors.Is(err, parking.ErrUnknownGate),
		errors.Is(err, parking.ErrUnknownFloor):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrSpotUnavailable),
		errors.Is(err, parking.ErrAlreadyReleased),
		errors.Is(err, parking.ErrNoChargingSlot),
		errors.Is(err, parking.ErrChargingInProgress),
		errors.Is(err, parking.ErrNoSpotAvailable):
		return http.StatusConflict
	case errors.Is(err, parking.ErrUnsupportedVehicleType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
