// Package shell is a line-oriented command interface to the parking lot.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"parking-lot/internal/parking"
	"parking-lot/internal/report"
)

type ParkingService interface {
	ParkAtGate(ctx context.Context, vehicle *parking.Vehicle, gateID string) (*parking.Booking, error)
	ReleaseSpot(ctx context.Context, bookingID string, method parking.PaymentMethod) (*parking.Booking, error)
	RequestCharging(ctx context.Context, bookingID string, kwh float64) (*parking.ChargingSession, error)
	FindNearestAvailable(ctx context.Context, floor int, vehicleType parking.VehicleType) *parking.ParkingSpot
	ParkedVehicles(ctx context.Context) []*parking.Booking
	History(ctx context.Context) []*parking.Booking
	Bookings(ctx context.Context) []*parking.Booking
	AvailabilitySummary(ctx context.Context) []parking.FloorAvailability
	Subscribe(ctx context.Context, registrationNumber string, vehicleType parking.VehicleType) (parking.SubscribeResult, error)
	Subscriptions(ctx context.Context) map[string]parking.VehicleType
	Gates() []parking.Gate
}

var errExit = errors.New("exit")

type Shell struct {
	service ParkingService
	tracer  trace.Tracer
	scanner *bufio.Scanner
	out     io.Writer
}

func New(service ParkingService, tracer trace.Tracer, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		service: service,
		tracer:  tracer,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Run reads commands until input ends, the exit command is given or ctx is
// cancelled.
func (s *Shell) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	s.printf("Parking lot shell. Type 'help' for commands.\n")

	for ctx.Err() == nil && s.scanner.Scan() {
		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := s.tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		err := s.processCommand(cmdCtx, input)
		cmdSpan.End()
		if errors.Is(err, errExit) {
			break
		}
	}

	span.AddEvent("shell_ended")
	return s.scanner.Err()
}

func (s *Shell) processCommand(ctx context.Context, input string) error {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]
	span.SetAttributes(attribute.String("command.name", command))

	var err error
	switch command {
	case "types":
		s.handleTypes()
	case "gates":
		s.handleGates()
	case "nearest":
		err = s.handleNearest(ctx, args)
	case "park":
		err = s.handlePark(ctx, args)
	case "release":
		err = s.handleRelease(ctx, args)
	case "charge":
		err = s.handleCharge(ctx, args)
	case "subscribe":
		err = s.handleSubscribe(ctx, args)
	case "subscriptions":
		s.handleSubscriptions(ctx)
	case "plans":
		s.handlePlans()
	case "parked":
		s.handleParked(ctx)
	case "history":
		s.handleHistory(ctx)
	case "available":
		s.handleAvailable(ctx)
	case "export":
		err = s.handleExport(ctx, args)
	case "help":
		s.handleHelp()
	case "exit", "quit":
		s.printf("Goodbye!\n")
		return errExit
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
		return nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.printf("Error: %s\n", err.Error())
	}
	return nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// registration joins the trailing tokens, since registration numbers contain
// spaces.
func registration(tokens []string) string {
	return strings.ToUpper(strings.Join(tokens, " "))
}

func (s *Shell) handleTypes() {
	for i, vt := range parking.VehicleTypes() {
		rate, _ := parking.HourlyRate(vt)
		s.printf("%d. %s (%d/hour)\n", i+1, vt, rate)
	}
}

func (s *Shell) handleGates() {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Gate\tFloor\tDirection\tLocation")
	for _, g := range s.service.Gates() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", g.ID, g.FloorNumber, g.Direction, g.Location)
	}
	_ = w.Flush()
}

func (s *Shell) handleNearest(ctx context.Context, args []string) error {
	if len(args) != 2 {
		s.printf("Usage: nearest <floor> <vehicle_type>\n")
		return nil
	}
	floor, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: floor %q", parking.ErrValidation, args[0])
	}
	vt, err := parking.ParseVehicleType(args[1])
	if err != nil {
		return err
	}

	spot := s.service.FindNearestAvailable(ctx, floor, vt)
	if spot == nil {
		s.printf("No %s spot available\n", vt)
		return nil
	}
	s.printf("Nearest %s spot: %s on floor %d\n", vt, spot.ID, spot.FloorNumber)
	return nil
}

func (s *Shell) handlePark(ctx context.Context, args []string) error {
	if len(args) < 3 {
		s.printf("Usage: park <gate> <vehicle_type> <registration number>\n")
		return nil
	}
	vt, err := parking.ParseVehicleType(args[1])
	if err != nil {
		return err
	}
	vehicle, err := parking.NewVehicle(registration(args[2:]), vt)
	if err != nil {
		return err
	}

	booking, err := s.service.ParkAtGate(ctx, vehicle, args[0])
	if err != nil {
		return err
	}
	s.printf("Parked %s at %s on floor %d. Booking ID: %s\n",
		vehicle, booking.Spot.ID, booking.Spot.FloorNumber, booking.ID)
	return nil
}

func (s *Shell) handleRelease(ctx context.Context, args []string) error {
	if len(args) != 2 {
		s.printf("Usage: release <booking_id> <payment_method>\n")
		return nil
	}
	method, err := parking.ParsePaymentMethod(args[1])
	if err != nil {
		return err
	}

	booking, err := s.service.ReleaseSpot(ctx, args[0], method)
	if err != nil {
		return err
	}
	s.printf("Released %s. Fee: %d paid by %s\n", booking.Spot.ID, booking.Payment.Amount, booking.Payment.Method)
	if booking.Charging != nil {
		s.printf("Charging: %.2f kWh, cost %d\n", booking.Charging.KWh, booking.Charging.Cost)
	}
	return nil
}

func (s *Shell) handleCharge(ctx context.Context, args []string) error {
	if len(args) != 2 {
		s.printf("Usage: charge <booking_id> <kwh>\n")
		return nil
	}
	kwh, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: kwh %q", parking.ErrValidation, args[1])
	}

	session, err := s.service.RequestCharging(ctx, args[0], kwh)
	if err != nil {
		return err
	}
	s.printf("Charging %.2f kWh. Cost: %d\n", session.KWh, session.Cost)
	return nil
}

func (s *Shell) handleSubscribe(ctx context.Context, args []string) error {
	if len(args) < 2 {
		s.printf("Usage: subscribe <vehicle_type> <registration number>\n")
		return nil
	}
	vt, err := parking.ParseVehicleType(args[0])
	if err != nil {
		return err
	}
	reg := registration(args[1:])

	result, err := s.service.Subscribe(ctx, reg, vt)
	if err != nil {
		return err
	}
	if result == parking.AlreadySubscribed {
		s.printf("%s is already subscribed\n", reg)
		return nil
	}
	s.printf("Subscribed %s (%s)\n", reg, vt)
	return nil
}

func (s *Shell) handleSubscriptions(ctx context.Context) {
	subs := s.service.Subscriptions(ctx)
	if len(subs) == 0 {
		s.printf("No subscriptions\n")
		return
	}
	regs := make([]string, 0, len(subs))
	for reg := range subs {
		regs = append(regs, reg)
	}
	sort.Strings(regs)
	for _, reg := range regs {
		s.printf("%s\t%s\n", reg, subs[reg])
	}
}

func (s *Shell) handlePlans() {
	for _, p := range parking.Plans() {
		s.printf("%s: %d/month - %s\n", p.Name, p.MonthlyFee, p.Benefits)
	}
}

func (s *Shell) handleParked(ctx context.Context) {
	parked := s.service.ParkedVehicles(ctx)
	if len(parked) == 0 {
		s.printf("Parking lot is empty\n")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Booking\tRegistration\tType\tFloor\tSpot\tSince")
	for _, b := range parked {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			b.ID, b.Vehicle.RegistrationNumber(), b.Vehicle.Type(), b.Spot.FloorNumber, b.Spot.ID,
			b.StartTime.Format("15:04:05"))
	}
	_ = w.Flush()
}

func (s *Shell) handleHistory(ctx context.Context) {
	history := s.service.History(ctx)
	if len(history) == 0 {
		s.printf("No completed bookings yet\n")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Booking\tRegistration\tSpot\tStatus\tFee")
	for _, b := range history {
		fee := "-"
		if b.Payment != nil {
			fee = strconv.FormatInt(b.Payment.Amount, 10)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Vehicle.RegistrationNumber(), b.Spot.ID, b.Status(), fee)
	}
	_ = w.Flush()
}

func (s *Shell) handleAvailable(ctx context.Context) {
	for _, f := range s.service.AvailabilitySummary(ctx) {
		s.printf("Floor %d (%s): %d/%d occupied\n", f.Number, f.Name, f.Occupied, f.Capacity)
		for _, t := range f.Types {
			s.printf("  %s: %d available, next %s\n", t.Type, t.Available, t.NextSpotID)
		}
	}
}

func (s *Shell) handleExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		s.printf("Usage: export <file.xlsx>\n")
		return nil
	}
	bookings := s.service.Bookings(ctx)
	if err := report.SaveHistory(args[0], bookings); err != nil {
		return err
	}
	s.printf("Exported %d bookings to %s\n", len(bookings), args[0])
	return nil
}

func (s *Shell) handleHelp() {
	s.printf(`Commands:
  types                                     list vehicle types and rates
  gates                                     list gates
  nearest <floor> <type>                    show the nearest free spot
  park <gate> <type> <registration>         park at an entry gate
  release <booking> <method>                release and pay (CASH, CARD, UPI, WALLET)
  charge <booking> <kwh>                    charge an electric vehicle
  subscribe <type> <registration>           subscribe a vehicle
  subscriptions                             list subscribed vehicles
  plans                                     list subscription plans
  parked                                    list parked vehicles
  history                                   list completed bookings
  available                                 show free spots per floor
  export <file.xlsx>                        export all bookings
  exit                                      leave the shell
`)
}
