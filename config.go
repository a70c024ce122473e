package epicore

import (
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the root of the TOML configuration document (spec.md §6
// [EXPANSION] schema), consolidating what had been two separate TOML
// struct layouts into one table set scoped to this domain.
type Config struct {
	Simulation SimulationConfig          `toml:"simulation"`
	Logging    LoggingConfig             `toml:"logging"`
	Schedule   map[string]map[string]float64 `toml:"schedule"`
	Testing    map[string]TestSpecTOML   `toml:"testing"`
	Locations  map[string]LocationTypeTOML `toml:"locations"`
}

type SimulationConfig struct {
	NumRounds          int                `toml:"num_rounds"`
	NumInstances       int                `toml:"num_instances"`
	StartWeekday       int                `toml:"start_weekday"`
	HouseholdNbrsPath  string             `toml:"household_nbrs_path"`
	SchoolNbrsPath     string             `toml:"school_nbrs_path"`
	OfficeNbrsPath     string             `toml:"office_nbrs_path"`
	InterhhNbrsPath    string             `toml:"interhh_nbrs_path"`
	LocationCSVPath    string             `toml:"location_csv_path"`
	DiseaseProfile     string             `toml:"disease_profile"`
	SplitStayHome      bool               `toml:"split_stay_home"`
	Seed               int64              `toml:"seed"`
	PercImmune         map[string]float64 `toml:"perc_immune"`
	NumStartInfectious NumStartInfectiousTOML `toml:"num_start_infectious"`
}

// NumStartInfectiousTOML holds whichever shape of the
// num_start_infectious tagged variant (spec.md §9) was supplied: a
// scalar under "even", or a vector under "per_substate".
type NumStartInfectiousTOML struct {
	Even        int   `toml:"even"`
	PerSubstate []int `toml:"per_substate"`
}

type LoggingConfig struct {
	Logger  string `toml:"logger"`
	LogPath string `toml:"log_path"`
	LogFreq int    `toml:"log_freq"`
}

type TestSpecTOML struct {
	P        float64 `toml:"p"`
	Weekdays []int   `toml:"weekdays"`
}

type LocationTypeTOML struct {
	AvgVisitTime float64 `toml:"avg_visit_time"`
	NeedMinutes  float64 `toml:"need_minutes"`
	ContactMult  float64 `toml:"contact_mult"`
}

// LoadConfig reads and decodes a TOML configuration file. Decode
// failures are wrapped as ConfigError via the errors.Wrap convention
// used throughout this package.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, wrapConfigError(err, "decoding config file "+path)
	}
	return &cfg, nil
}

// PercImmuneSpec is the validated tagged variant of perc_immune:
// either a uniform fraction over the whole population, or a fraction
// per named partition (any of households, adults, children).
type PercImmuneSpec struct {
	Uniform        bool
	UniformFrac    float64
	PerPartition   map[string]float64
}

var recognizedImmunePartitions = map[string]bool{"households": true, "adults": true, "children": true}

func (c *Config) percImmuneSpec() (PercImmuneSpec, error) {
	if frac, ok := c.Simulation.PercImmune["uniform"]; ok {
		if len(c.Simulation.PercImmune) != 1 {
			return PercImmuneSpec{}, newConfigError("perc_immune mixes uniform with partition keys")
		}
		return PercImmuneSpec{Uniform: true, UniformFrac: frac}, nil
	}
	per := make(map[string]float64, len(c.Simulation.PercImmune))
	for key, frac := range c.Simulation.PercImmune {
		if !recognizedImmunePartitions[key] {
			return PercImmuneSpec{}, newConfigError(UnrecognizedImmuneKeyError, key)
		}
		per[key] = frac
	}
	return PercImmuneSpec{PerPartition: per}, nil
}

// NumStartInfectiousSpec is the validated tagged variant of
// num_start_infectious: either a scalar total (distributed equally
// across non-Recovered sub-states), or an explicit per-sub-state vector.
type NumStartInfectiousSpec struct {
	Even        bool
	Total       int
	PerSubstate []int
}

func (c *Config) numStartInfectiousSpec(profile DiseaseProfile) (NumStartInfectiousSpec, error) {
	raw := c.Simulation.NumStartInfectious
	nonSusceptibleNonRecovered := profile.NumExposed + profile.NumInfectious
	if raw.PerSubstate != nil {
		if len(raw.PerSubstate) != nonSusceptibleNonRecovered {
			return NumStartInfectiousSpec{}, newConfigError(StartInfectiousLenError, len(raw.PerSubstate), nonSusceptibleNonRecovered)
		}
		return NumStartInfectiousSpec{PerSubstate: raw.PerSubstate}, nil
	}
	return NumStartInfectiousSpec{Even: true, Total: raw.Even}, nil
}

// schedules builds every Schedule named in spec.md §4.5 step 1, plus
// the optional loc_infec_rate override, validating a round-0 entry is
// present for each required one.
func (c *Config) schedules() (map[string]*Schedule, error) {
	required := []string{
		"p_spread_household", "p_spread_school", "p_spread_office",
		"p_detect_child", "p_detect_adult", "p_interhh_visit",
	}
	out := make(map[string]*Schedule, len(required)+1)
	for _, name := range required {
		raw, ok := c.Schedule[name]
		if !ok {
			return nil, newConfigError(MissingRoundZeroError, name)
		}
		sched, err := buildSchedule(name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = sched
	}
	if raw, ok := c.Schedule["loc_infec_rate"]; ok {
		sched, err := buildSchedule("loc_infec_rate", raw)
		if err != nil {
			return nil, err
		}
		out["loc_infec_rate"] = sched
	} else {
		sched, _ := NewSchedule("loc_infec_rate", map[int]float64{0: 0.07})
		out["loc_infec_rate"] = sched
	}
	// p_spread_interhh is never silently aliased (spec.md §9 Open
	// Question): if absent, it is wired to the same schedule object as
	// p_spread_household rather than left unset.
	if raw, ok := c.Schedule["p_spread_interhh"]; ok {
		sched, err := buildSchedule("p_spread_interhh", raw)
		if err != nil {
			return nil, err
		}
		out["p_spread_interhh"] = sched
	} else {
		out["p_spread_interhh"] = out["p_spread_household"]
	}
	return out, nil
}

func buildSchedule(name string, raw map[string]float64) (*Schedule, error) {
	converted := make(map[int]float64, len(raw))
	for k, v := range raw {
		round, err := strconv.Atoi(k)
		if err != nil {
			return nil, wrapConfigError(errors.Errorf("round key %q", k), "parsing schedule "+name)
		}
		converted[round] = v
	}
	return NewSchedule(name, converted)
}

// testingConfig converts the TOML testing table into a TestingConfig.
// A test type is simply whatever key appears in this table; there is
// no separate reference to a test-type name elsewhere that could be
// "unknown," so omitting a type from [testing.*] just means it never
// runs (spec.md §4.5 step 7 iterates exactly this map).
func (c *Config) testingConfig() TestingConfig {
	out := make(TestingConfig, len(c.Testing))
	for name, spec := range c.Testing {
		out[name] = NewTestSpec(name, spec.P, spec.Weekdays)
	}
	return out
}

// locationTypeConfigs converts the TOML locations table into
// LocationTypeConfig, falling back to spec.md §6's documented defaults
// for any of the five recognized types left unconfigured.
func (c *Config) locationTypeConfigs() map[string]LocationTypeConfig {
	defaults := map[string]LocationTypeConfig{
		"supermarket": {AvgVisitTime: 60, NeedMinutes: 60, ContactMult: 0.25},
		"shop":        {AvgVisitTime: 60, NeedMinutes: 90, ContactMult: 0.25},
		"restaurant":  {AvgVisitTime: 60, NeedMinutes: 60, ContactMult: 0.25},
		"leisure":     {AvgVisitTime: 120, NeedMinutes: 600, ContactMult: 0.25},
	}
	out := make(map[string]LocationTypeConfig, len(defaults)+1)
	for typ, cfg := range defaults {
		out[typ] = cfg
	}
	for typ, cfg := range c.Locations {
		out[typ] = LocationTypeConfig{AvgVisitTime: cfg.AvgVisitTime, NeedMinutes: cfg.NeedMinutes, ContactMult: cfg.ContactMult}
	}
	return out
}
