// Package report renders booking history as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"parking-lot/internal/parking"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
	timeLayout   = "2006-01-02 15:04:05"
)

var historyHeader = []interface{}{
	"Booking ID",
	"Registration",
	"Vehicle Type",
	"Floor",
	"Spot",
	"Start",
	"End",
	"Status",
	"Fee",
	"Payment Method",
	"Charging kWh",
	"Charging Cost",
}

// WriteHistory writes one row per booking plus a summary sheet to w.
func WriteHistory(w io.Writer, bookings []*parking.Booking) error {
	f, err := historyWorkbook(bookings)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func SaveHistory(path string, bookings []*parking.Booking) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHistory(out, bookings); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func historyWorkbook(bookings []*parking.Booking) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), historySheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("history header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(historySheet, 1, 1, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	var revenue, chargingRevenue int64
	completed := 0
	for i, b := range bookings {
		row := historyRow(b)
		if b.Payment != nil {
			revenue += b.Payment.Amount
			completed++
		}
		if b.Charging != nil {
			chargingRevenue += b.Charging.Cost
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("history row %s: %w", b.ID, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	summary := [][]interface{}{
		{"Bookings", len(bookings)},
		{"Active", len(bookings) - completed},
		{"Completed", completed},
		{"Parking Revenue", revenue},
		{"Charging Revenue", chargingRevenue},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

func historyRow(b *parking.Booking) []interface{} {
	end, fee, method := "", "", ""
	if b.EndTime != nil {
		end = formatTime(*b.EndTime)
	}
	if b.Payment != nil {
		fee = fmt.Sprint(b.Payment.Amount)
		method = b.Payment.Method.String()
	}
	var kwh, cost interface{} = "", ""
	if b.Charging != nil {
		kwh = b.Charging.KWh
		cost = b.Charging.Cost
	}

	return []interface{}{
		b.ID,
		b.Vehicle.RegistrationNumber(),
		b.Vehicle.Type().String(),
		b.Spot.FloorNumber,
		b.Spot.ID,
		formatTime(b.StartTime),
		end,
		string(b.Status()),
		fee,
		method,
		kwh,
		cost,
	}
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}
