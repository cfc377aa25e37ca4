/*
config.go - YAML configuration for the cash flow engine

PURPOSE:
  Loads and validates the engine configuration: HTTP server settings,
  SQLite path, logging, the hotel profile, pricing overrides and the
  Opera / Planning Cloud credentials. The loaded Config converts into
  the domain shapes (cashflow.UnitConfig, pms.Config, planning.Config)
  at the composition root.

KEY CONCEPTS:
  Defaults first: Load starts from Default() and lets the YAML file
  override it, so a partial file is enough. Load("") skips the file
  entirely and serves the bundled Chicago demo property.

  Environment wins: credentials can be injected via OPERA_* and
  PLANNING_* variables after the file is read, so secrets never have
  to live in the YAML.

  Floats at the edge: YAML carries money as plain numbers; conversion
  rounds them onto two-decimal decimals before the domain sees them.

USAGE:
  cfg, err := config.Load("cashflow.yaml")
  if err != nil { ... }
  unit, err := cfg.ToUnit()
  pmsClient := pms.New(cfg.ToPMS(), unit.RoomCount, noise, logger)
  planClient := planning.New(cfg.ToPlanning(), logger)

SEE ALSO:
  - cashflow/config.go: the domain-side unit profile
  - cmd/cashflow/main.go: where Load is called
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/fiscal"
	"github.com/warp/cashflow-engine/planning"
	"github.com/warp/cashflow-engine/pms"
	"github.com/warp/cashflow-engine/pricing"
)

// === SCHEMA ===

// Config is the full engine configuration as read from YAML.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
	Hotel    Hotel    `yaml:"hotel"`
	Pricing  Pricing  `yaml:"pricing"`
	Opera    Opera    `yaml:"opera"`
	Planning Planning `yaml:"planning"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database configures the SQLite audit store. Use ":memory:" for an
// ephemeral database.
type Database struct {
	Path string `yaml:"path"`
}

// Logging configures zerolog. Console switches from JSON lines to the
// human console writer.
type Logging struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Hotel is the property profile: identity, planning point of view,
// physical size and cash thresholds.
type Hotel struct {
	Name           string  `yaml:"name"`
	EntityID       string  `yaml:"entity_id"`
	Region         string  `yaml:"region"`
	RegionName     string  `yaml:"region_name"`
	CostCenter     string  `yaml:"cost_center"`
	Scenario       string  `yaml:"scenario"`
	Version        string  `yaml:"version"`
	Currency       string  `yaml:"currency"`
	FiscalYear     string  `yaml:"fiscal_year"`
	RoomCount      int     `yaml:"room_count"`
	OpeningBalance float64 `yaml:"opening_balance"`
	MinimumReserve float64 `yaml:"minimum_reserve"`
	MaxWindowDays  int     `yaml:"max_window_days"`

	Seasonality Seasonality `yaml:"seasonality"`
}

// Seasonality lists calendar months (1-12) and the revenue multipliers
// applied inside them.
type Seasonality struct {
	HighMonths     []int   `yaml:"high_months"`
	LowMonths      []int   `yaml:"low_months"`
	HighMultiplier float64 `yaml:"high_multiplier"`
	LowMultiplier  float64 `yaml:"low_multiplier"`
}

// Pricing overrides the rate engine. Tier tables and the day-of-week
// calendar are not configurable here; they stay on the bundled
// defaults. An empty competitors or events list also falls back to the
// bundled set.
type Pricing struct {
	BaseRate         float64 `yaml:"base_rate"`
	MinRate          float64 `yaml:"min_rate"`
	MaxRate          float64 `yaml:"max_rate"`
	DefaultOccupancy float64 `yaml:"default_occupancy"`
	PremiumAllowed   float64 `yaml:"premium_allowed"`
	Elasticity       float64 `yaml:"elasticity"`
	OccupancyFloor   float64 `yaml:"occupancy_floor"`
	OccupancyCeiling float64 `yaml:"occupancy_ceiling"`

	Competitors []Competitor `yaml:"competitors"`
	Events      []Event      `yaml:"events"`
}

// Competitor is one shopped property.
type Competitor struct {
	Name     string  `yaml:"name"`
	BaseRate float64 `yaml:"base_rate"`
	Variance float64 `yaml:"variance"`
}

// Event is one demand event. End is optional: when set, the event
// covers every night from Date through End inclusive.
type Event struct {
	Date   string  `yaml:"date"`
	End    string  `yaml:"end"`
	Name   string  `yaml:"name"`
	Impact float64 `yaml:"impact"`
	Type   string  `yaml:"type"`
}

// Opera holds the Opera Cloud PMS connection. Leaving url or client_id
// empty selects the mock client.
type Opera struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	HotelID           string        `yaml:"hotel_id"`
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Planning holds the Planning Cloud connection. Leaving url, username
// or password empty selects the mock client.
type Planning struct {
	URL         string        `yaml:"url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Application string        `yaml:"application"`
	Timeout     time.Duration `yaml:"timeout"`
}

// === DEFAULTS ===

// Default returns the bundled configuration: the Chicago demo property
// on a local listener with a file database and no live integrations.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: Database{Path: "cashflow.db"},
		Logging:  Logging{Level: "info", Console: true},
		Hotel: Hotel{
			Name:           "501-L7 Chicago Hotel",
			EntityID:       "E501",
			Region:         "R131",
			RegionName:     "Illinois",
			CostCenter:     "CC1121",
			Scenario:       "Actual",
			Version:        "Final",
			Currency:       "USD",
			FiscalYear:     "FY25",
			RoomCount:      250,
			OpeningBalance: 350000.00,
			MinimumReserve: 75000.00,
			MaxWindowDays:  90,
			Seasonality: Seasonality{
				HighMonths:     []int{6, 7, 8, 12},
				LowMonths:      []int{1, 2, 11},
				HighMultiplier: 1.35,
				LowMultiplier:  0.65,
			},
		},
		Pricing: Pricing{
			BaseRate:         189.00,
			MinRate:          99.00,
			MaxRate:          449.00,
			DefaultOccupancy: 0.75,
			PremiumAllowed:   0.15,
			Elasticity:       -0.3,
			OccupancyFloor:   0.20,
			OccupancyCeiling: 0.98,
		},
		Planning: Planning{Application: "CashFlow"},
	}
}

// === LOADING ===

// Load reads the YAML file at path over the defaults, applies
// environment overrides and validates the result. An empty path skips
// the file and serves the defaults; a named file that cannot be read
// is an error, not a fallback.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets credentials ride in on the environment so the YAML
// never has to hold secrets. Environment values win over the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPERA_URL"); v != "" {
		cfg.Opera.URL = v
	}
	if v := os.Getenv("OPERA_USERNAME"); v != "" {
		cfg.Opera.Username = v
	}
	if v := os.Getenv("OPERA_PASSWORD"); v != "" {
		cfg.Opera.Password = v
	}
	if v := os.Getenv("OPERA_HOTEL_ID"); v != "" {
		cfg.Opera.HotelID = v
	}
	if v := os.Getenv("OPERA_CLIENT_ID"); v != "" {
		cfg.Opera.ClientID = v
	}
	if v := os.Getenv("OPERA_CLIENT_SECRET"); v != "" {
		cfg.Opera.ClientSecret = v
	}
	if v := os.Getenv("PLANNING_URL"); v != "" {
		cfg.Planning.URL = v
	}
	if v := os.Getenv("PLANNING_USERNAME"); v != "" {
		cfg.Planning.Username = v
	}
	if v := os.Getenv("PLANNING_PASSWORD"); v != "" {
		cfg.Planning.Password = v
	}
	if v := os.Getenv("PLANNING_APPLICATION"); v != "" {
		cfg.Planning.Application = v
	}
}

// === VALIDATION ===

// Validate checks the configuration surface and then builds the domain
// unit, so every domain-side rule (rate ordering, occupancy bounds,
// seasonality overlap) runs against the configured values too.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return &fiscal.InputError{Field: "server.addr", Value: "", Reason: "must not be empty"}
	}
	if c.Database.Path == "" {
		return &fiscal.InputError{Field: "database.path", Value: "", Reason: "must not be empty"}
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return &fiscal.InputError{Field: "logging.level", Value: c.Logging.Level, Reason: "unknown level"}
	}
	_, err := c.ToUnit()
	return err
}

// === CONVERSION ===

// ToUnit builds the domain unit profile from the configuration. The
// result is validated, so a successful return is safe to hand to the
// generator.
func (c Config) ToUnit() (cashflow.UnitConfig, error) {
	pr, err := c.toPricing()
	if err != nil {
		return cashflow.UnitConfig{}, err
	}

	h := c.Hotel
	high, err := months(h.Seasonality.HighMonths, "hotel.seasonality.high_months")
	if err != nil {
		return cashflow.UnitConfig{}, err
	}
	low, err := months(h.Seasonality.LowMonths, "hotel.seasonality.low_months")
	if err != nil {
		return cashflow.UnitConfig{}, err
	}

	unit := cashflow.UnitConfig{
		HotelName:      h.Name,
		EntityID:       h.EntityID,
		Region:         h.Region,
		RegionName:     h.RegionName,
		CostCenter:     h.CostCenter,
		Scenario:       h.Scenario,
		Version:        h.Version,
		Currency:       h.Currency,
		FiscalYear:     h.FiscalYear,
		RoomCount:      h.RoomCount,
		OpeningBalance: money(h.OpeningBalance),
		MinimumReserve: money(h.MinimumReserve),
		MaxWindowDays:  h.MaxWindowDays,
		Seasonality: cashflow.Seasonality{
			HighMonths:     high,
			LowMonths:      low,
			HighMultiplier: h.Seasonality.HighMultiplier,
			LowMultiplier:  h.Seasonality.LowMultiplier,
		},
		Dimensions: cashflow.Dimensions{
			Account:    "400000",
			Entity:     h.EntityID,
			Scenario:   h.Scenario,
			Years:      h.FiscalYear,
			Period:     "YearTotal",
			Version:    h.Version,
			Currency:   h.Currency,
			Future1:    "No Future1",
			CostCenter: h.CostCenter,
			Region:     h.Region,
		},
		Pricing: pr,
	}
	if err := unit.Validate(); err != nil {
		return cashflow.UnitConfig{}, err
	}
	return unit, nil
}

// toPricing overlays the YAML pricing numbers on the bundled engine
// defaults. Tier tables and the day-of-week calendar always come from
// the defaults.
func (c Config) toPricing() (pricing.Config, error) {
	p := c.Pricing
	pr := pricing.Default()
	pr.BaseRate = money(p.BaseRate)
	pr.MinRate = money(p.MinRate)
	pr.MaxRate = money(p.MaxRate)
	pr.DefaultOccupancy = p.DefaultOccupancy
	pr.PremiumAllowed = p.PremiumAllowed
	pr.Elasticity = p.Elasticity
	pr.OccupancyFloor = p.OccupancyFloor
	pr.OccupancyCeiling = p.OccupancyCeiling

	if len(p.Competitors) > 0 {
		set := make(pricing.CompetitorSet, 0, len(p.Competitors))
		for _, comp := range p.Competitors {
			set = append(set, pricing.Competitor{
				Name:     comp.Name,
				BaseRate: money(comp.BaseRate),
				Variance: comp.Variance,
			})
		}
		pr.Competitors = set
	}

	if len(p.Events) > 0 {
		cal := make(pricing.EventCalendar, len(p.Events))
		for i, ev := range p.Events {
			field := fmt.Sprintf("pricing.events[%d]", i)
			if ev.Name == "" {
				return pricing.Config{}, &fiscal.InputError{Field: field + ".name", Value: "", Reason: "must not be empty"}
			}
			start, err := fiscal.ParseDate(ev.Date)
			if err != nil {
				return pricing.Config{}, &fiscal.InputError{Field: field + ".date", Value: ev.Date, Reason: "must be YYYY-MM-DD"}
			}
			end := start
			if ev.End != "" {
				end, err = fiscal.ParseDate(ev.End)
				if err != nil {
					return pricing.Config{}, &fiscal.InputError{Field: field + ".end", Value: ev.End, Reason: "must be YYYY-MM-DD"}
				}
			}
			span := fiscal.DateRange{Start: start, End: end}
			if err := span.Validate(0); err != nil {
				return pricing.Config{}, &fiscal.InputError{Field: field, Value: ev.Date + ".." + ev.End, Reason: "end must not precede date"}
			}
			for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
				cal[d] = pricing.Event{Name: ev.Name, Impact: ev.Impact, Type: ev.Type}
			}
		}
		pr.Events = cal
	}

	return pr, nil
}

// ToPMS builds the Opera client configuration.
func (c Config) ToPMS() pms.Config {
	return pms.Config{
		URL:               c.Opera.URL,
		Username:          c.Opera.Username,
		Password:          c.Opera.Password,
		HotelID:           c.Opera.HotelID,
		ClientID:          c.Opera.ClientID,
		ClientSecret:      c.Opera.ClientSecret,
		Timeout:           c.Opera.Timeout,
		RequestsPerSecond: c.Opera.RequestsPerSecond,
	}
}

// ToPlanning builds the Planning Cloud client configuration.
func (c Config) ToPlanning() planning.Config {
	return planning.Config{
		URL:         c.Planning.URL,
		Username:    c.Planning.Username,
		Password:    c.Planning.Password,
		Application: c.Planning.Application,
		Timeout:     c.Planning.Timeout,
	}
}

// LogLevel parses the configured zerolog level, falling back to info
// when the level is absent or unknown.
func (c Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// money rounds a YAML float onto the two-decimal grid the domain uses.
func money(v float64) decimal.Decimal {
	return fiscal.Round2(decimal.NewFromFloat(v))
}

func months(in []int, field string) ([]time.Month, error) {
	out := make([]time.Month, 0, len(in))
	for _, m := range in {
		if m < 1 || m > 12 {
			return nil, &fiscal.InputError{Field: field, Value: fmt.Sprintf("%d", m), Reason: "months run 1 through 12"}
		}
		out = append(out, time.Month(m))
	}
	return out, nil
}
