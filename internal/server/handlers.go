package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-lot/internal/logging"
	"parking-lot/internal/parking"
	"parking-lot/internal/report"
)

type ParkingService interface {
	ParkAtGate(ctx context.Context, vehicle *parking.Vehicle, gateID string) (*parking.Booking, error)
	ReleaseSpot(ctx context.Context, bookingID string, method parking.PaymentMethod) (*parking.Booking, error)
	RequestCharging(ctx context.Context, bookingID string, kwh float64) (*parking.ChargingSession, error)
	FindNearestAvailable(ctx context.Context, floor int, vehicleType parking.VehicleType) *parking.ParkingSpot
	Booking(ctx context.Context, id string) (*parking.Booking, error)
	ParkedVehicles(ctx context.Context) []*parking.Booking
	History(ctx context.Context) []*parking.Booking
	Bookings(ctx context.Context) []*parking.Booking
	AvailabilitySummary(ctx context.Context) []parking.FloorAvailability
	Subscribe(ctx context.Context, registrationNumber string, vehicleType parking.VehicleType) (parking.SubscribeResult, error)
	Subscriptions(ctx context.Context) map[string]parking.VehicleType
	Gates() []parking.Gate
	TotalSpots() int
	OccupiedSpots() int
}

type Handler struct {
	service     ParkingService
	serviceName string
}

func NewHandler(service ParkingService, serviceName string) *Handler {
	return &Handler{
		service:     service,
		serviceName: serviceName,
	}
}

func normalizeRegistration(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Service:       h.serviceName,
		TotalSpots:    h.service.TotalSpots(),
		OccupiedSpots: h.service.OccupiedSpots(),
		Meta:          extractMeta(r.Context()),
	})
}

func (h *Handler) ListVehicleTypes(w http.ResponseWriter, r *http.Request) {
	type vehicleTypeRate struct {
		Type       parking.VehicleType `json:"vehicle_type"`
		HourlyRate int64               `json:"hourly_rate"`
		Electric   bool                `json:"electric"`
	}
	var out []vehicleTypeRate
	for _, vt := range parking.VehicleTypes() {
		rate, _ := parking.HourlyRate(vt)
		out = append(out, vehicleTypeRate{Type: vt, HourlyRate: rate, Electric: vt.IsElectric()})
	}
	WriteSuccess(r.Context(), w, "Vehicle types retrieved successfully", out)
}

func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Payment methods retrieved successfully", parking.PaymentMethods())
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Plans retrieved successfully", parking.Plans())
}

func (h *Handler) ListGates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gates := h.service.Gates()

	if raw := r.URL.Query().Get("direction"); raw != "" {
		direction, err := parking.ParseGateDirection(raw)
		if err != nil {
			WriteDomainError(ctx, w, err)
			return
		}
		filtered := make([]parking.Gate, 0, len(gates))
		for _, g := range gates {
			if g.Direction == direction {
				filtered = append(filtered, g)
			}
		}
		gates = filtered
	}

	WriteSuccess(ctx, w, "Gates retrieved successfully", gates)
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Availability retrieved successfully", h.service.AvailabilitySummary(ctx))
}

func (h *Handler) FindNearestSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	floor, err := strconv.Atoi(query.Get("floor"))
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "floor must be an integer")
		return
	}
	vt, err := parking.ParseVehicleType(query.Get("vehicle_type"))
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	spot := h.service.FindNearestAvailable(ctx, floor, vt)
	if spot == nil {
		WriteError(ctx, w, http.StatusNotFound, fmt.Sprintf("No %s spot available", vt))
		return
	}
	WriteSuccess(ctx, w, "Spot found", newSpotResponse(spot))
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req BookingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Registration == "" || req.VehicleType == "" || req.GateID == "" {
		WriteError(ctx, w, http.StatusBadRequest, "registration, vehicle_type and gate_id are required")
		return
	}

	vt, err := parking.ParseVehicleType(req.VehicleType)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	vehicle, err := parking.NewVehicle(normalizeRegistration(req.Registration), vt)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	booking, err := h.service.ParkAtGate(ctx, vehicle, req.GateID)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	WriteSuccessStatus(ctx, w, http.StatusCreated, "Vehicle parked successfully", newBookingResponse(booking))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithBooking(r.Context(), id)
	booking, err := h.service.Booking(ctx, id)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	WriteSuccess(ctx, w, "Booking retrieved successfully", newBookingResponse(booking))
}

func (h *Handler) ReleaseBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithBooking(r.Context(), id)
	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method, err := parking.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	booking, err := h.service.ReleaseSpot(ctx, id, method)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	WriteSuccess(ctx, w, "Spot released successfully", newBookingResponse(booking))
}

func (h *Handler) RequestCharging(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithBooking(r.Context(), id)
	var req ChargingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.KWh == nil {
		WriteError(ctx, w, http.StatusBadRequest, "kwh is required")
		return
	}

	session, err := h.service.RequestCharging(ctx, id, *req.KWh)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	WriteSuccess(ctx, w, "Charging started", session)
}

func (h *Handler) ListParked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Parked vehicles retrieved successfully", newBookingResponses(h.service.ParkedVehicles(ctx)))
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "History retrieved successfully", newBookingResponses(h.service.History(ctx)))
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := report.WriteHistory(&buf, h.service.Bookings(ctx)); err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="parking-history.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subs := h.service.Subscriptions(ctx)
	out := make([]SubscriptionResponse, 0, len(subs))
	for reg, vt := range subs {
		out = append(out, SubscriptionResponse{Registration: reg, VehicleType: vt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	WriteSuccess(ctx, w, "Subscriptions retrieved successfully", out)
}

func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	vt, err := parking.ParseVehicleType(req.VehicleType)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	reg := normalizeRegistration(req.Registration)

	result, err := h.service.Subscribe(ctx, reg, vt)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	body := SubscriptionResponse{Registration: reg, VehicleType: vt}
	if result == parking.AlreadySubscribed {
		WriteSuccess(ctx, w, "Vehicle already subscribed", body)
		return
	}
	WriteSuccessStatus(ctx, w, http.StatusCreated, "Vehicle subscribed successfully", body)
}
