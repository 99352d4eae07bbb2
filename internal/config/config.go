// Package config holds every tuning constant of the park simulation. Defaults
// live in Default; a YAML file can override any subset of them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/ride"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig       = "PARKSIM_CONFIG"
	EnvAdminKey     = "PARKSIM_ADMIN_KEY"
	EnvRandomOrgKey = "PARKSIM_RANDOM_ORG_KEY"
	EnvDBPath       = "PARKSIM_DB"
	EnvAddr         = "PARKSIM_ADDR"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the full simulation configuration.
type Config struct {
	Seed    uint64            `yaml:"seed"`
	Park    Park              `yaml:"park"`
	Sim     Sim               `yaml:"sim"`
	Guest   Guest             `yaml:"guest"`
	Staff   Staff             `yaml:"staff"`
	Rides   []ride.Definition `yaml:"rides"`
	Server  Server            `yaml:"server"`
	Storage Storage           `yaml:"storage"`
}

// Park covers layout and admission.
type Park struct {
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	EntranceFee      economy.Money `yaml:"entrance_fee"`
	BinCapacity      int           `yaml:"bin_capacity"`
	RestroomCapacity int           `yaml:"restroom_capacity"`
	LawnGrowthRate   float64       `yaml:"lawn_growth_rate"` // Length units per second
	BreakdownPenalty float64       `yaml:"breakdown_penalty"`
	LitterRadius     int           `yaml:"litter_radius"`  // Guests within this many cells notice litter
	LitterPenalty    float64       `yaml:"litter_penalty"` // Satisfaction per second per nearby litter
}

// Sim covers the engine loop and spawning.
type Sim struct {
	TickRate      int     `yaml:"tick_rate"` // Ticks per simulated second
	Speed         float64 `yaml:"speed"`
	MaxGuests     int     `yaml:"max_guests"`
	SpawnInterval float64 `yaml:"spawn_interval"` // Seconds between arrivals
	TileTime      float64 `yaml:"tile_time"`      // Seconds to cross one tile
	Engineers     int     `yaml:"engineers"`
	Janitors      int     `yaml:"janitors"`
	Gardeners     int     `yaml:"gardeners"`
	Security      int     `yaml:"security"`
	Entertainers  int     `yaml:"entertainers"`
}

// Guest covers needs, decisions and timers of visitors. Rates are per second.
type Guest struct {
	HungerDecay         float64 `yaml:"hunger_decay"`
	ThirstDecay         float64 `yaml:"thirst_decay"`
	BladderRise         float64 `yaml:"bladder_rise"`
	SatisfactionErosion float64 `yaml:"satisfaction_erosion"`
	HappinessTracking   float64 `yaml:"happiness_tracking"`
	ExcitementDecay     float64 `yaml:"excitement_decay"`

	DecisionInterval  float64 `yaml:"decision_interval"`
	BladderUrgent     float64 `yaml:"bladder_urgent"`
	ThirstUrgent      float64 `yaml:"thirst_urgent"`
	HungerUrgent      float64 `yaml:"hunger_urgent"`
	LeaveSatisfaction float64 `yaml:"leave_satisfaction"`
	RideJitter        float64 `yaml:"ride_jitter"`
	ShopChance        float64 `yaml:"shop_chance"`
	StrollRadius      int     `yaml:"stroll_radius"`

	MaxStayMin     float64       `yaml:"max_stay_min"`
	MaxStayMax     float64       `yaml:"max_stay_max"`
	BudgetMin      economy.Money `yaml:"budget_min"`
	BudgetMax      economy.Money `yaml:"budget_max"`
	LitterDelayMin float64       `yaml:"litter_delay_min"`
	LitterDelayMax float64       `yaml:"litter_delay_max"`

	QueuePatience  float64 `yaml:"queue_patience"`
	QueuePenalty   float64 `yaml:"queue_penalty"`
	RestroomWait   float64 `yaml:"restroom_wait"`
	RestroomTime   float64 `yaml:"restroom_time"`
	EatTime        float64 `yaml:"eat_time"`
	DrinkTime      float64 `yaml:"drink_time"`
	ShopTime       float64 `yaml:"shop_time"`
	BinTime        float64 `yaml:"bin_time"`
	LeaveRetries   int     `yaml:"leave_retries"`
	RideExcitement float64 `yaml:"ride_excitement"`
}

// Staff covers the four employee kinds.
type Staff struct {
	EngineerSalary    economy.Money `yaml:"engineer_salary"` // Per sim-minute
	JanitorSalary     economy.Money `yaml:"janitor_salary"`
	GardenerSalary    economy.Money `yaml:"gardener_salary"`
	SecuritySalary    economy.Money `yaml:"security_salary"`
	EntertainerSalary economy.Money `yaml:"entertainer_salary"`

	RepairTime      float64 `yaml:"repair_time"`
	RelocateRadius  int     `yaml:"relocate_radius"`
	CleanTime       float64 `yaml:"clean_time"`
	BinEmptyTime    float64 `yaml:"bin_empty_time"`
	JanitorRadius   int     `yaml:"janitor_radius"`
	MowTime         float64 `yaml:"mow_time"`
	MowThreshold    float64 `yaml:"mow_threshold"`
	GardenerRadius  int     `yaml:"gardener_radius"`
	SecurityRadius  int     `yaml:"security_radius"`
	SecurityBonus   float64 `yaml:"security_bonus"` // Satisfaction per second for guests in radius
	EntertainTime   float64 `yaml:"entertain_time"`
	EntertainRadius int     `yaml:"entertain_radius"`
	EntertainBonus  float64 `yaml:"entertain_bonus"` // Happiness per second
	QueueWeight     float64 `yaml:"queue_weight"`    // Preference for queues over open crowds
	Penalty         float64 `yaml:"penalty"`         // Initial efficiency penalty, 0..1
}

// Server covers the HTTP status API.
type Server struct {
	Addr     string `yaml:"addr"`
	AdminKey string `yaml:"-"`
}

// Storage covers the telemetry database.
type Storage struct {
	DBPath       string `yaml:"db_path"`
	RandomOrgKey string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Park: Park{
			Width:            64,
			Height:           64,
			EntranceFee:      1500,
			BinCapacity:      8,
			RestroomCapacity: 4,
			LawnGrowthRate:   0.002,
			BreakdownPenalty: ride.DefaultBreakdownPenalty,
			LitterRadius:     2,
			LitterPenalty:    0.002,
		},
		Sim: Sim{
			TickRate:      10,
			Speed:         1,
			MaxGuests:     300,
			SpawnInterval: 2,
			TileTime:      0.4,
			Engineers:     2,
			Janitors:      3,
			Gardeners:     2,
			Security:      2,
			Entertainers:  1,
		},
		Guest: Guest{
			HungerDecay:         0.003,
			ThirstDecay:         0.004,
			BladderRise:         0.0035,
			SatisfactionErosion: 0.01,
			HappinessTracking:   0.1,
			ExcitementDecay:     0.02,
			DecisionInterval:    2,
			BladderUrgent:       0.7,
			ThirstUrgent:        0.3,
			HungerUrgent:        0.3,
			LeaveSatisfaction:   0.2,
			RideJitter:          0.15,
			ShopChance:          0.2,
			StrollRadius:        6,
			MaxStayMin:          900,
			MaxStayMax:          2400,
			BudgetMin:           3000,
			BudgetMax:           12000,
			LitterDelayMin:      5,
			LitterDelayMax:      30,
			QueuePatience:       240,
			QueuePenalty:        0.1,
			RestroomWait:        10,
			RestroomTime:        5,
			EatTime:             6,
			DrinkTime:           4,
			ShopTime:            5,
			BinTime:             1,
			LeaveRetries:        3,
			RideExcitement:      0.4,
		},
		Staff: Staff{
			EngineerSalary:    150,
			JanitorSalary:     90,
			GardenerSalary:    90,
			SecuritySalary:    110,
			EntertainerSalary: 100,
			RepairTime:        15,
			RelocateRadius:    3,
			CleanTime:         2,
			BinEmptyTime:      3,
			JanitorRadius:     10,
			MowTime:           1,
			MowThreshold:      0.5,
			GardenerRadius:    5,
			SecurityRadius:    8,
			SecurityBonus:     0.002,
			EntertainTime:     20,
			EntertainRadius:   3,
			EntertainBonus:    0.01,
			QueueWeight:       1.5,
		},
		Rides: ride.DefaultDefinitions(),
		Server: Server{
			Addr: ":8080",
		},
		Storage: Storage{
			DBPath: "data/parksim.db",
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by PARKSIM_CONFIG (or the defaults when unset)
// and applies the remaining environment overrides.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfig); path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv copies secrets and deployment settings from the environment.
func (c *Config) ApplyEnv() {
	c.Server.AdminKey = os.Getenv(EnvAdminKey)
	c.Storage.RandomOrgKey = os.Getenv(EnvRandomOrgKey)
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Park.Width < 8 || c.Park.Height < 8:
		return fmt.Errorf("%w: park must be at least 8x8, got %dx%d", ErrInvalid, c.Park.Width, c.Park.Height)
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalid)
	case c.Sim.TileTime <= 0:
		return fmt.Errorf("%w: tile_time must be positive", ErrInvalid)
	case c.Guest.DecisionInterval <= 0:
		return fmt.Errorf("%w: decision_interval must be positive", ErrInvalid)
	case c.Staff.Penalty < 0 || c.Staff.Penalty > 1:
		return fmt.Errorf("%w: staff penalty must be in [0,1]", ErrInvalid)
	case len(c.Rides) == 0:
		return fmt.Errorf("%w: no ride definitions", ErrInvalid)
	}
	for _, d := range c.Rides {
		if d.Capacity <= 0 || d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("%w: ride %q needs positive size and capacity", ErrInvalid, d.Name)
		}
	}
	return nil
}
