package server

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"parking-lot/internal/parking"
)

type AvailabilitySource interface {
	AvailabilitySummary(ctx context.Context) []parking.FloorAvailability
}

// availabilityCollector reads the lot's state on every scrape.
type availabilityCollector struct {
	source    AvailabilitySource
	available *prometheus.Desc
	occupied  *prometheus.Desc
	capacity  *prometheus.Desc
}

func NewAvailabilityCollector(source AvailabilitySource) prometheus.Collector {
	return &availabilityCollector{
		source: source,
		available: prometheus.NewDesc("parking_available_spots",
			"Free spots per floor and vehicle type.",
			[]string{"floor", "vehicle_type"}, nil),
		occupied: prometheus.NewDesc("parking_floor_occupied_spots",
			"Occupied spots per floor.",
			[]string{"floor"}, nil),
		capacity: prometheus.NewDesc("parking_floor_capacity_spots",
			"Total spots per floor.",
			[]string{"floor"}, nil),
	}
}

func (c *availabilityCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.available
	ch <- c.occupied
	ch <- c.capacity
}

func (c *availabilityCollector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.source.AvailabilitySummary(context.Background()) {
		floor := strconv.Itoa(f.Number)
		ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(f.Occupied), floor)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(f.Capacity), floor)
		for _, t := range f.Types {
			ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(t.Available), floor, t.Type.String())
		}
	}
}
