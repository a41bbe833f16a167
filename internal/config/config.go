// Package config loads and validates the per-client configuration document.
//
// The document is YAML; EI_-prefixed environment variables override file
// values (double underscore as the level separator, e.g. EI_LOG__LEVEL).
// Unrecognized keys produce a warning and are ignored; missing keys fall
// back to documented defaults. The resulting Config is immutable for the
// rest of the run.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bissquit/escalation-insights/internal/domain"
)

const envPrefix = "EI_"

// Config is the full client configuration.
type Config struct {
	Tier               string          `koanf:"tier" validate:"required"`
	ClientNameOverride string          `koanf:"client_name_override"`
	Benchmarks         BenchmarkConfig `koanf:"industry_benchmarks"`
	SLA                SLAConfig       `koanf:"sla"`
	BusinessHours      BusinessHours   `koanf:"business_hours"`
	Cost               CostConfig      `koanf:"cost"`
	Thresholds         ThresholdConfig `koanf:"thresholds"`
	Log                LogConfig       `koanf:"log"`
}

// BenchmarkConfig carries the industry benchmark values used for
// comparisons and the response-advantage KPI.
type BenchmarkConfig struct {
	MTTRMinutes     float64 `koanf:"mttr_minutes" validate:"gt=0"`
	MTTDMinutes     float64 `koanf:"mttd_minutes" validate:"gt=0"`
	IncidentsPerDay float64 `koanf:"incidents_per_day" validate:"gt=0"`
}

// SLAConfig carries the contractual ceilings and floors the rule engine
// evaluates against, plus per-severity response targets in minutes.
type SLAConfig struct {
	FPRateMax           float64            `koanf:"fp_rate_max" validate:"gte=0,lte=100"`
	ManualEscalationMax float64            `koanf:"manual_escalation_max" validate:"gte=0,lte=100"`
	ContainmentRateMin  float64            `koanf:"containment_rate_min" validate:"gte=0,lte=100"`
	ComplianceFloor     float64            `koanf:"compliance_floor" validate:"gte=0,lte=100"`
	ResponseTargets     map[string]float64 `koanf:"response_targets"`
}

// TargetFor returns the response target in minutes for a severity, falling
// back to the Medium target for severities without an explicit entry.
func (s SLAConfig) TargetFor(sev domain.Severity) float64 {
	if v, ok := s.ResponseTargets[string(sev)]; ok {
		return v
	}
	if v, ok := s.ResponseTargets[string(domain.SeverityMedium)]; ok {
		return v
	}
	return 180
}

// BusinessHours defines the client's staffed window. Hours are [StartHour,
// EndHour) on configured weekdays; everything else is after hours.
type BusinessHours struct {
	StartHour int      `koanf:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int      `koanf:"end_hour" validate:"gte=1,lte=24"`
	Weekdays  []string `koanf:"weekdays" validate:"min=1"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// IsBusinessDay reports whether d is in the configured weekday set.
func (b BusinessHours) IsBusinessDay(d time.Weekday) bool {
	for _, name := range b.Weekdays {
		if wd, ok := weekdayNames[strings.ToLower(name)]; ok && wd == d {
			return true
		}
	}
	return false
}

// IsWeekend reports whether t falls on a non-configured weekday.
func (b BusinessHours) IsWeekend(t time.Time) bool {
	return !b.IsBusinessDay(t.Weekday())
}

// IsAfterHours reports whether t is outside the business-hours window,
// either by hour of day or by falling on a non-configured weekday.
func (b BusinessHours) IsAfterHours(t time.Time) bool {
	if b.IsWeekend(t) {
		return true
	}
	h := t.Hour()
	return h < b.StartHour || h >= b.EndHour
}

// CostConfig carries the labor-rate and breach-cost constants for the
// cost-avoidance model.
type CostConfig struct {
	AnalystHourlyRate  int `koanf:"analyst_hourly_rate" validate:"gt=0"`
	CoverageHourlyRate int `koanf:"coverage_hourly_rate" validate:"gt=0"`
	BreachCostEstimate int `koanf:"breach_cost_estimate" validate:"gt=0"`
}

// ThresholdConfig carries the tuning thresholds the rule engine reads.
// These are deliberately configuration-supplied, never hardcoded.
type ThresholdConfig struct {
	FPRateWarning        float64 `koanf:"fp_rate_warning" validate:"gte=0,lte=100"`
	AutomationTarget     float64 `koanf:"automation_target" validate:"gte=0,lte=100"`
	MTTRTargetMinutes    float64 `koanf:"mttr_target_minutes" validate:"gt=0"`
	MTTRWarningMinutes   float64 `koanf:"mttr_warning_minutes" validate:"gt=0"`
	NotableMarginPercent float64 `koanf:"notable_margin_percent" validate:"gte=0"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		Tier: "Standard Tier",
		Benchmarks: BenchmarkConfig{
			MTTRMinutes:     192,
			MTTDMinutes:     66,
			IncidentsPerDay: 11.4,
		},
		SLA: SLAConfig{
			FPRateMax:           10.0,
			ManualEscalationMax: 12.0,
			ContainmentRateMin:  95.0,
			ComplianceFloor:     95.0,
			ResponseTargets: map[string]float64{
				string(domain.SeverityCritical):      30,
				string(domain.SeverityHigh):          60,
				string(domain.SeverityMedium):        180,
				string(domain.SeverityLow):           240,
				string(domain.SeverityInformational): 240,
			},
		},
		BusinessHours: BusinessHours{
			StartHour: 8,
			EndHour:   18,
			Weekdays:  []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Cost: CostConfig{
			AnalystHourlyRate:  85,
			CoverageHourlyRate: 220,
			BreachCostEstimate: 4200000,
		},
		Thresholds: ThresholdConfig{
			FPRateWarning:        15.0,
			AutomationTarget:     88.0,
			MTTRTargetMinutes:    150,
			MTTRWarningMinutes:   200,
			NotableMarginPercent: 10.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// knownKeys are the top-level sections and keys the loader understands.
// Anything else in the document is ignored with a warning so that configs
// written for newer versions still load.
var knownKeys = map[string]struct{}{
	"tier":                 {},
	"client_name_override": {},
	"industry_benchmarks":  {},
	"sla":                  {},
	"business_hours":       {},
	"cost":                 {},
	"thresholds":           {},
	"log":                  {},
}

// Load reads the configuration file at path (empty path means defaults
// only), applies environment overrides and validates the result.
func Load(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", "."), value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env overrides: %w", err)
	}

	warnUnknownKeys(k, logger)
	logDefaultedSections(k, logger)

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.BusinessHours.StartHour >= cfg.BusinessHours.EndHour {
		return fmt.Errorf("invalid config: business_hours start_hour %d must be before end_hour %d",
			cfg.BusinessHours.StartHour, cfg.BusinessHours.EndHour)
	}

	for _, name := range cfg.BusinessHours.Weekdays {
		if _, ok := weekdayNames[strings.ToLower(name)]; !ok {
			return fmt.Errorf("invalid config: unknown weekday %q", name)
		}
	}

	for sev := range cfg.SLA.ResponseTargets {
		if !domain.Severity(sev).IsValid() {
			return fmt.Errorf("invalid config: unknown severity %q in sla.response_targets", sev)
		}
	}

	return nil
}

func warnUnknownKeys(k *koanf.Koanf, logger *slog.Logger) {
	seen := map[string]struct{}{}
	for _, key := range k.Keys() {
		top, _, _ := strings.Cut(key, ".")
		if _, ok := knownKeys[top]; !ok {
			if _, dup := seen[top]; !dup {
				seen[top] = struct{}{}
				logger.Warn("ignoring unrecognized config key", "key", top)
			}
		}
	}
}

func logDefaultedSections(k *koanf.Koanf, logger *slog.Logger) {
	for key := range knownKeys {
		if !k.Exists(key) {
			logger.Debug("config key not supplied, using default", "key", key)
		}
	}
}
