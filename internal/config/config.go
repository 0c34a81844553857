package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/shifts"
)

// UnassignedPolicy decides what happens to a booking when no therapist is available
type UnassignedPolicy string

const (
	// PolicyLeavePending stores the appointment without a therapist for manual assignment
	PolicyLeavePending UnassignedPolicy = "leave_pending"

	// PolicyReject refuses the booking
	PolicyReject UnassignedPolicy = "reject"
)

const (
	configFileBase = "spa_config"

	envDatabaseURL   = "SPA_DATABASE_URL"
	envRedisAddr     = "SPA_REDIS_ADDR"
	envRedisPassword = "SPA_REDIS_PASSWORD"

	defaultSlotLockTTL       = 10 * time.Second
	defaultSlotLengthMinutes = 60
)

// Scoring overrides the therapist matching weights.
// Unset fields keep their default weight.
type Scoring struct {
	AffinityBase           *int `yaml:"affinityBase,omitempty" validate:"omitempty,min=0"`
	AffinityPerVisit       *int `yaml:"affinityPerVisit,omitempty" validate:"omitempty,min=0"`
	WorkloadBase           *int `yaml:"workloadBase,omitempty" validate:"omitempty,min=0"`
	WorkloadPerAppointment *int `yaml:"workloadPerAppointment,omitempty" validate:"omitempty,min=0"`
}

// ShiftPattern defines a recurring working window for a staff member
type ShiftPattern struct {
	StaffID           string   `yaml:"staffID" validate:"required"`
	RRule             string   `yaml:"rrule" validate:"required"`
	Start             string   `yaml:"start" validate:"required,datetime=15:04"`
	End               string   `yaml:"end" validate:"required,datetime=15:04"`
	AllowedServiceIDs []string `yaml:"allowedServiceIDs,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL       string           `yaml:"databaseURL" validate:"required"`
	RedisAddr         string           `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword     string           `yaml:"redisPassword,omitempty"`
	SlotLockTTL       time.Duration    `yaml:"slotLockTTL,omitempty"`
	SlotLengthMinutes int              `yaml:"slotLengthMinutes,omitempty" validate:"omitempty,min=5,max=240"`
	UnassignedPolicy  UnassignedPolicy `yaml:"unassignedPolicy,omitempty" validate:"omitempty,oneof=leave_pending reject"`
	Scoring           *Scoring         `yaml:"scoring,omitempty"`
	ShiftPatterns     []ShiftPattern   `yaml:"shiftPatterns,omitempty" validate:"dive"`
	LogsDir           string           `yaml:"logsDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Weights returns the configured scoring weights, falling back to the defaults
func (c *Config) Weights() matcher.Weights {
	weights := matcher.DefaultWeights()
	if c.Scoring == nil {
		return weights
	}
	overrideWeight(&weights.AffinityBase, c.Scoring.AffinityBase)
	overrideWeight(&weights.AffinityPerVisit, c.Scoring.AffinityPerVisit)
	overrideWeight(&weights.WorkloadBase, c.Scoring.WorkloadBase)
	overrideWeight(&weights.WorkloadPerAppointment, c.Scoring.WorkloadPerAppointment)
	return weights
}

func overrideWeight(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}

// SlotLength returns the availability slot granularity
func (c *Config) SlotLength() time.Duration {
	return time.Duration(c.SlotLengthMinutes) * time.Minute
}

// Patterns converts the configured shift patterns for slot generation
func (c *Config) Patterns() []shifts.Pattern {
	patterns := make([]shifts.Pattern, 0, len(c.ShiftPatterns))
	for _, sp := range c.ShiftPatterns {
		patterns = append(patterns, shifts.Pattern{
			StaffID:           sp.StaffID,
			RRule:             sp.RRule,
			Start:             sp.Start,
			End:               sp.End,
			AllowedServiceIDs: sp.AllowedServiceIDs,
		})
	}
	return patterns
}

// Load loads and validates the configuration from spa_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads spa_config.<env>.yaml, or spa_config.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	fileName := configFileBase + ".yaml"
	if env != "" {
		fileName = fmt.Sprintf("%s.%s.yaml", configFileBase, env)
	}

	configPath, err := findConfigFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate validates the configuration struct, rrule syntax and shift windows
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, pattern := range cfg.ShiftPatterns {
		if _, err := rrule.StrToRRule(pattern.RRule); err != nil {
			return fmt.Errorf("invalid rrule in shiftPatterns[%d]: %w", i, err)
		}
		start, _ := time.Parse("15:04", pattern.Start)
		end, _ := time.Parse("15:04", pattern.End)
		if !start.Before(end) {
			return fmt.Errorf("invalid window in shiftPatterns[%d]: start %s must be before end %s", i, pattern.Start, pattern.End)
		}
	}

	return nil
}

// LoadDotEnv loads environment variables from the given .env files, skipping files that do not exist.
// Variables already set in the process environment are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides lets connection secrets come from the environment instead of the YAML file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(envRedisPassword); v != "" {
		cfg.RedisPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SlotLockTTL == 0 {
		cfg.SlotLockTTL = defaultSlotLockTTL
	}
	if cfg.SlotLengthMinutes == 0 {
		cfg.SlotLengthMinutes = defaultSlotLengthMinutes
	}
	if cfg.UnassignedPolicy == "" {
		cfg.UnassignedPolicy = PolicyLeavePending
	}
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(configFileName string) (string, error) {
	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
