package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"campusnav/pkg/api"
	"campusnav/pkg/dataset"
	"campusnav/pkg/directions"
	"campusnav/pkg/floorplan"
	"campusnav/pkg/position"
	"campusnav/pkg/tracking"
)

// Config is the TOML server configuration. Flags override the
// operational fields; calibration only lives here.
type Config struct {
	Addr         string  `toml:"addr"`
	Dataset      string  `toml:"dataset"`
	CORSOrigin   string  `toml:"cors_origin"`
	WalkingSpeed float64 `toml:"walking_speed_ft_per_sec"`

	Calibration floorplan.Calibration `toml:"calibration"`

	Tracking struct {
		Enabled         bool    `toml:"enabled"`
		IntervalSeconds float64 `toml:"interval_seconds"`
		Tolerance       float64 `toml:"tolerance"`
		MinMovement     float64 `toml:"min_movement"`
	} `toml:"tracking"`

	Position struct {
		IPGeolocation bool   `toml:"ip_geolocation"`
		IPGeoURL      string `toml:"ip_geo_url"`
	} `toml:"position"`
}

func loadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:         ":8080",
		Dataset:      "campus.json",
		WalkingSpeed: directions.DefaultWalkingSpeed,
	}
	cfg.Tracking.IntervalSeconds = 3
	cfg.Tracking.Tolerance = 0.05
	cfg.Tracking.MinMovement = 0.01

	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	datasetPath := flag.String("dataset", "", "Path to navigation dataset JSON (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *datasetPath != "" {
		cfg.Dataset = *datasetPath
	}
	if *corsOrigin != "" {
		cfg.CORSOrigin = *corsOrigin
	}

	start := time.Now()

	// Load the navigation dataset.
	log.Printf("Loading dataset from %s...", cfg.Dataset)
	g, err := dataset.Load(cfg.Dataset, cfg.Calibration)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Loaded: %d waypoints, %d rooms, %d paths",
		g.NumWaypoints(), g.NumRooms(), g.NumPaths())

	gen := directions.New(cfg.Calibration, cfg.WalkingSpeed)

	// Positioning chain. Without calibration no geographic provider can
	// map into image space, so positioning stays off.
	var provider position.Provider
	if cfg.Position.IPGeolocation && cfg.Calibration.Calibrated() {
		ipgeo := position.NewIPGeoProvider(cfg.Position.IPGeoURL, cfg.Calibration)
		provider = position.NewHybrid(ipgeo)
	}

	handlers := api.NewHandlers(g, gen, cfg.Calibration, provider, nil, nil)

	if cfg.Tracking.Enabled && provider != nil {
		hub := api.NewTrackHub()
		tracker := tracking.New(provider, tracking.Config{
			Interval:    time.Duration(cfg.Tracking.IntervalSeconds * float64(time.Second)),
			Tolerance:   cfg.Tracking.Tolerance,
			MinMovement: cfg.Tracking.MinMovement,
		}, func(p position.Position) {
			log.Printf("Off route at (%.3f, %.3f), recomputing", p.At[0], p.At[1])
			handlers.Recompute(p.At)
		}, hub.Publish)
		handlers.AttachTracker(tracker, hub)
		tracker.Start()
		defer tracker.Stop()
	}

	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	srvCfg := api.DefaultConfig(cfg.Addr)
	srvCfg.CORSOrigin = cfg.CORSOrigin

	srv := api.NewServer(srvCfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
