package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // scheduler timezone in minimal images

	"github.com/joho/godotenv"

	"github.com/mamadbah2/feedlot/internal/ration"
)

const (
	// StoreMongoDB persists to MongoDB.
	StoreMongoDB = "mongodb"
	// StoreMemory keeps everything in process memory.
	StoreMemory = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	MongoDB  MongoDBConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Schedule ScheduleConfig
	Engine   EngineConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StoreConfig selects the persistence driver and optional seed data.
type StoreConfig struct {
	Driver   string
	SeedFile string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. Operator
// notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	OperatorID    string
}

// Enabled reports whether operator notifications can be sent.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// SheetsConfig contains configuration for the spreadsheet journal. The journal
// is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the spreadsheet journal is configured.
func (c SheetsConfig) Enabled() bool { return c.SpreadsheetID != "" }

// ScheduleConfig holds scheduler-related settings.
type ScheduleConfig struct {
	PlanCron   string
	ReportCron string
	Timezone   string
}

// Location resolves the configured timezone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EngineConfig carries the tuning of the ration calculators.
type EngineConfig struct {
	Score     ration.ScoreConfig
	Validator ration.ValidatorConfig
	Projector ration.ProjectorConfig
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver:   getenvWithDefault("STORE_DRIVER", StoreMongoDB),
			SeedFile: os.Getenv("SEED_FILE"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "feedlot"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OperatorID:    os.Getenv("WHATSAPP_OPERATOR_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Schedule: ScheduleConfig{
			PlanCron:   getenvWithDefault("PLAN_CRON_SCHEDULE", "0 4 * * *"),
			ReportCron: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:   getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		},
		Engine: engine,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case StoreMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongoDB, StoreMemory, c.Store.Driver)
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.OperatorID == "":
			return errors.New("WHATSAPP_OPERATOR_ID must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Schedule.PlanCron == "" {
		return errors.New("PLAN_CRON_SCHEDULE must be provided")
	}
	if c.Schedule.ReportCron == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	switch {
	case c.Engine.Score.StepPercent <= 0:
		return errors.New("SCORE_STEP_PERCENT must be positive")
	case c.Engine.Score.MaxAdjustmentPercent <= 0:
		return errors.New("SCORE_MAX_ADJUSTMENT_PERCENT must be positive")
	case c.Engine.Score.EarlyDaysThreshold < 0:
		return errors.New("ADAPTATION_DAYS_THRESHOLD must not be negative")
	case c.Engine.Validator.MaxDailyDelta < 1:
		return errors.New("READING_MAX_DAILY_DELTA must be at least 1")
	case c.Engine.Validator.ExtremeRepeatDays < 2:
		return errors.New("READING_EXTREME_REPEAT_DAYS must be at least 2")
	case c.Engine.Projector.LargeDropPercent <= 0:
		return errors.New("INTAKE_LARGE_DROP_PERCENT must be positive")
	}

	return nil
}

func loadEngine() (EngineConfig, error) {
	engine := EngineConfig{
		Score:     ration.DefaultScoreConfig(),
		Validator: ration.DefaultValidatorConfig(),
		Projector: ration.DefaultProjectorConfig(),
	}

	var err error
	if engine.Score.StepPercent, err = getenvFloat("SCORE_STEP_PERCENT", engine.Score.StepPercent); err != nil {
		return EngineConfig{}, err
	}
	if engine.Score.MaxAdjustmentPercent, err = getenvFloat("SCORE_MAX_ADJUSTMENT_PERCENT", engine.Score.MaxAdjustmentPercent); err != nil {
		return EngineConfig{}, err
	}
	if engine.Score.EarlyDaysThreshold, err = getenvInt("ADAPTATION_DAYS_THRESHOLD", engine.Score.EarlyDaysThreshold); err != nil {
		return EngineConfig{}, err
	}
	if engine.Validator.MaxDailyDelta, err = getenvInt("READING_MAX_DAILY_DELTA", engine.Validator.MaxDailyDelta); err != nil {
		return EngineConfig{}, err
	}
	if engine.Validator.ExtremeRepeatDays, err = getenvInt("READING_EXTREME_REPEAT_DAYS", engine.Validator.ExtremeRepeatDays); err != nil {
		return EngineConfig{}, err
	}
	if engine.Projector.LargeDropPercent, err = getenvFloat("INTAKE_LARGE_DROP_PERCENT", engine.Projector.LargeDropPercent); err != nil {
		return EngineConfig{}, err
	}
	return engine, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
