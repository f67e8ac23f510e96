// Package config reads process settings from the environment (optionally a
// .env file) and tracking rules from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"nutritrack/internal/crypto"
	"nutritrack/internal/models"
	"nutritrack/internal/services"
)

type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	JWTSecret      []byte
	NotesKey       []byte
	AllowedOrigins []string
	Targets        models.Targets
	Rules          services.Rules
}

func (c *Config) Production() bool { return c.Env == "production" }

// File is the layout of the NUTRITRACK_CONFIG YAML file. Absent keys keep
// their defaults.
type File struct {
	Targets *models.Targets `yaml:"default_targets"`
	Streaks struct {
		Milestones   []int `yaml:"milestones"`
		PointsPerDay int   `yaml:"points_per_day"`
	} `yaml:"streaks"`
	DailyGoalPoints int `yaml:"daily_goal_points"`
	PointsPerLevel  int `yaml:"points_per_level"`
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getenv("APP_ENV", "development"),
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Targets:     services.DefaultTargets(),
		Rules:       services.DefaultRules(),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	cfg.JWTSecret = []byte(secret)

	if k := os.Getenv("NOTES_ENCRYPTION_KEY"); k != "" {
		key, err := crypto.KeyFromBase64(k)
		if err != nil {
			return nil, fmt.Errorf("NOTES_ENCRYPTION_KEY: %w", err)
		}
		cfg.NotesKey = key
	}

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if path := os.Getenv("NUTRITRACK_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyFile overlays the rules file at path onto cfg.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return c.apply(&f)
}

func (c *Config) apply(f *File) error {
	if f.Targets != nil {
		t := *f.Targets
		if t.Calories <= 0 || t.Protein <= 0 || t.Carbs <= 0 || t.Fat <= 0 || t.Water <= 0 || t.Exercise <= 0 {
			return errors.New("default_targets: every target must be positive")
		}
		c.Targets = t
	}
	if len(f.Streaks.Milestones) > 0 {
		ms := append([]int(nil), f.Streaks.Milestones...)
		sort.Ints(ms)
		for i, m := range ms {
			if m < 2 {
				return fmt.Errorf("streaks.milestones: %d is not a streak length", m)
			}
			if i > 0 && ms[i-1] == m {
				return fmt.Errorf("streaks.milestones: %d listed twice", m)
			}
		}
		c.Rules.StreakMilestones = ms
	}
	if f.Streaks.PointsPerDay < 0 || f.DailyGoalPoints < 0 || f.PointsPerLevel < 0 {
		return errors.New("points must not be negative")
	}
	if f.Streaks.PointsPerDay > 0 {
		c.Rules.StreakPointsPerDay = f.Streaks.PointsPerDay
	}
	if f.DailyGoalPoints > 0 {
		c.Rules.DailyGoalPoints = f.DailyGoalPoints
	}
	if f.PointsPerLevel > 0 {
		c.Rules.PointsPerLevel = f.PointsPerLevel
	}
	return nil
}

// NewLogger builds a JSON logger for production and a console logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
