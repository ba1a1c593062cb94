package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fornellas/slogxt/log"

	"github.com/fornellas/robowriter/config"
	"github.com/fornellas/robowriter/ik"
	"github.com/fornellas/robowriter/toolpath"
)

var configPath string
var defaultConfigPath = ""

var azimuthPolicy string
var defaultAzimuthPolicy = ""

// LoadConfig loads --config and applies flag overrides on top of it.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	logger := log.MustLogger(ctx)

	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if azimuthPolicy != "" {
		c.AzimuthPolicy, err = ik.ParseAzimuthPolicy(azimuthPolicy)
		if err != nil {
			return nil, fmt.Errorf("--azimuth-policy: %w", err)
		}
	}

	logger.Debug("Configuration",
		"config", configPath,
		"reach", c.Geometry.Reach(),
		"azimuth-policy", c.AzimuthPolicy,
		"motor-ids", c.Motors.IDs,
	)
	return c, nil
}

func readPointsFile(path string) (points []ik.Point, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	points, err = toolpath.ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// readAnglesFile reads an angular toolpath, as written by convert, checking it against the joint
// limits.
func readAnglesFile(c *config.Config, path string) (solutions []ik.Solution, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	angles, err := toolpath.ReadAngles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	solutions, err = ik.FromAngles(angles, c.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return solutions, nil
}

// solvePointsFile reads a Cartesian toolpath and solves every point.
func solvePointsFile(ctx context.Context, c *config.Config, path string) ([]ik.Point, []ik.Solution, error) {
	points, err := readPointsFile(path)
	if err != nil {
		return nil, nil, err
	}
	solutions, err := ik.Convert(ctx, points, c.Geometry, c.SolverOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return points, solutions, nil
}

func init() {
	RootCmd.PersistentFlags().StringVar(
		&configPath, "config", defaultConfigPath,
		"Arm configuration file (YAML, TOML or JSON); defaults describe the reference arm",
	)
	RootCmd.PersistentFlags().StringVar(
		&azimuthPolicy, "azimuth-policy", defaultAzimuthPolicy,
		"Override the configured base azimuth policy: clamp or reject",
	)

	resetFlagsFns = append(resetFlagsFns, func() {
		configPath = defaultConfigPath
		azimuthPolicy = defaultAzimuthPolicy
	})
}
