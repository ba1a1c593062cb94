// Package config loads the arm description: geometry, solver policy, motor bus and streaming
// settings. Values come from defaults, then an optional config file (YAML, TOML or JSON), then
// ROBOWRITER_* environment variables (eg: ROBOWRITER_GEOMETRY_L0, ROBOWRITER_MOTORS_BAUD_RATE).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/motor"
)

const EnvPrefix = "ROBOWRITER"

type Motors struct {
	// IDs are the servo ids for joints 1 to 4.
	IDs        [4]byte
	Controller motor.ControllerOptions
	Transform  motor.Transform
}

type Config struct {
	Geometry      ik.Geometry
	AzimuthPolicy ik.AzimuthPolicy
	Motors        Motors
	Stream        motor.StreamerOptions
}

// SolverOptions returns the ik options selected by the configuration.
func (c *Config) SolverOptions() []ik.Option {
	return []ik.Option{ik.WithAzimuthPolicy(c.AzimuthPolicy)}
}

type limitFile struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type file struct {
	Geometry struct {
		L0     float64     `mapstructure:"l0"`
		L2     float64     `mapstructure:"l2"`
		L3     float64     `mapstructure:"l3"`
		L4     float64     `mapstructure:"l4"`
		L5     float64     `mapstructure:"l5"`
		Theta5 float64     `mapstructure:"theta5"`
		Limits []limitFile `mapstructure:"limits"`
	} `mapstructure:"geometry"`
	Solver struct {
		AzimuthPolicy string `mapstructure:"azimuth-policy"`
	} `mapstructure:"solver"`
	Motors struct {
		IDs             []uint8       `mapstructure:"ids"`
		BaudRate        int           `mapstructure:"baud-rate"`
		ResponseTimeout time.Duration `mapstructure:"response-timeout"`
		Scaling         []float64     `mapstructure:"scaling"`
		Offset          []float64     `mapstructure:"offset"`
	} `mapstructure:"motors"`
	Stream struct {
		Stride   int           `mapstructure:"stride"`
		Period   time.Duration `mapstructure:"period"`
		Readback bool          `mapstructure:"readback"`
	} `mapstructure:"stream"`
}

func setDefaults(v *viper.Viper) {
	g := ik.DefaultGeometry
	v.SetDefault("geometry.l0", g.L0)
	v.SetDefault("geometry.l2", g.L2)
	v.SetDefault("geometry.l3", g.L3)
	v.SetDefault("geometry.l4", g.L4)
	v.SetDefault("geometry.l5", g.L5)
	v.SetDefault("geometry.theta5", g.Theta5)
	limits := make([]map[string]any, len(g.Limits))
	for i, limit := range g.Limits {
		limits[i] = map[string]any{"min": limit.Min, "max": limit.Max}
	}
	v.SetDefault("geometry.limits", limits)

	v.SetDefault("solver.azimuth-policy", ik.AzimuthClamp.String())

	v.SetDefault("motors.ids", []uint8{1, 2, 3, 4})
	v.SetDefault("motors.baud-rate", motor.DefaultControllerOptions.BaudRate)
	v.SetDefault("motors.response-timeout", motor.DefaultControllerOptions.ResponseTimeout)
	v.SetDefault("motors.scaling", motor.DefaultTransform.Scaling[:])
	v.SetDefault("motors.offset", motor.DefaultTransform.Offset[:])

	v.SetDefault("stream.stride", motor.DefaultStreamerOptions.Stride)
	v.SetDefault("stream.period", motor.DefaultStreamerOptions.Period)
	v.SetDefault("stream.readback", motor.DefaultStreamerOptions.Readback)
}

func fourFloats(name string, values []float64) ([4]float64, error) {
	var array [4]float64
	if len(values) != 4 {
		return array, fmt.Errorf("%s: expected 4 values, got %d", name, len(values))
	}
	copy(array[:], values)
	return array, nil
}

//gocyclo:ignore
func (f *file) config() (*Config, error) {
	c := &Config{}

	c.Geometry = ik.Geometry{
		L0:     f.Geometry.L0,
		L2:     f.Geometry.L2,
		L3:     f.Geometry.L3,
		L4:     f.Geometry.L4,
		L5:     f.Geometry.L5,
		Theta5: f.Geometry.Theta5,
	}
	if len(f.Geometry.Limits) != 4 {
		return nil, fmt.Errorf("geometry.limits: expected 4 joints, got %d", len(f.Geometry.Limits))
	}
	for i, limit := range f.Geometry.Limits {
		c.Geometry.Limits[i] = ik.Limit{Min: limit.Min, Max: limit.Max}
	}
	if err := c.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}

	var err error
	c.AzimuthPolicy, err = ik.ParseAzimuthPolicy(f.Solver.AzimuthPolicy)
	if err != nil {
		return nil, fmt.Errorf("solver.azimuth-policy: %w", err)
	}

	if len(f.Motors.IDs) != 4 {
		return nil, fmt.Errorf("motors.ids: expected 4 ids, got %d", len(f.Motors.IDs))
	}
	copy(c.Motors.IDs[:], f.Motors.IDs)
	c.Motors.Controller = motor.ControllerOptions{
		BaudRate:        f.Motors.BaudRate,
		ResponseTimeout: f.Motors.ResponseTimeout,
	}
	if c.Motors.Controller.BaudRate <= 0 {
		return nil, fmt.Errorf("motors.baud-rate: must be positive, got %d", c.Motors.Controller.BaudRate)
	}
	if c.Motors.Controller.ResponseTimeout <= 0 {
		return nil, fmt.Errorf("motors.response-timeout: must be positive, got %s", c.Motors.Controller.ResponseTimeout)
	}
	if c.Motors.Transform.Scaling, err = fourFloats("motors.scaling", f.Motors.Scaling); err != nil {
		return nil, err
	}
	if c.Motors.Transform.Offset, err = fourFloats("motors.offset", f.Motors.Offset); err != nil {
		return nil, err
	}
	if err := c.Motors.Transform.Validate(); err != nil {
		return nil, fmt.Errorf("motors: %w", err)
	}

	c.Stream = motor.StreamerOptions{
		Stride:   f.Stream.Stride,
		Period:   f.Stream.Period,
		Readback: f.Stream.Readback,
	}
	if c.Stream.Stride < 1 {
		return nil, fmt.Errorf("stream.stride: must be at least 1, got %d", c.Stream.Stride)
	}

	return c, nil
}

// Load reads the configuration. path may be empty, in which case only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := f.config()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
