package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"parking-lot/internal/parking"
)

type Config struct {
	App struct {
		Env    string
		NodeID int64 `mapstructure:"node_id"`
	} `mapstructure:"app"`

	HTTP struct {
		Port string
	} `mapstructure:"http"`

	OTel struct {
		Enabled     bool
		ServiceName string `mapstructure:"service_name"`
		Endpoint    string
	} `mapstructure:"otel"`

	Charging struct {
		ElectricBikeSlots int `mapstructure:"electric_bike_slots"`
		ElectricCarSlots  int `mapstructure:"electric_car_slots"`
	} `mapstructure:"charging"`

	Layout parking.Layout `mapstructure:"layout"`
}

// ChargingCapacity returns the charging slot pool sizes keyed by vehicle type.
func (c Config) ChargingCapacity() map[parking.VehicleType]int {
	return map[parking.VehicleType]int{
		parking.ElectricBike: c.Charging.ElectricBikeSlots,
		parking.ElectricCar:  c.Charging.ElectricCarSlots,
	}
}

// Load reads configuration from an optional YAML file at path, a .env file
// in the working directory, and PARKING_* environment variables, in
// increasing order of precedence. A missing layout falls back to
// parking.DefaultLayout.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("app.env", "development")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("http.port", "8080")
	v.SetDefault("otel.enabled", true)
	v.SetDefault("otel.service_name", "parking-lot-service")
	v.SetDefault("otel.endpoint", "http://localhost:4318")
	v.SetDefault("charging.electric_bike_slots", 100)
	v.SetDefault("charging.electric_car_slots", 50)

	v.SetEnvPrefix("PARKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("otel.service_name", "PARKING_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("otel.endpoint", "PARKING_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if len(c.Layout.Floors) == 0 {
		c.Layout = parking.DefaultLayout()
	}
	return c, nil
}
