package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
)

const MinSimulatorCadenceS = 1

// Thresholds are the global defaults that per-sensor overrides are merged onto.
type Thresholds struct {
	CO2Warn      float64 `yaml:"default_co2_warn"`
	CO2Crit      float64 `yaml:"default_co2_crit"`
	TempMin      float64 `yaml:"default_temp_min"`
	TempMax      float64 `yaml:"default_temp_max"`
	HumidityWarn float64 `yaml:"default_humidity_warn"`
	HumidityCrit float64 `yaml:"default_humidity_crit"`
}

type Config struct {
	Thresholds `yaml:",inline"`

	ReadingRetentionDays       int           `yaml:"reading_retention_days"`
	AlertRetentionDays         int           `yaml:"alert_retention_days"`
	ResolvedAlertRetentionDays int           `yaml:"resolved_alert_retention_days"`
	RetentionInterval          time.Duration `yaml:"retention_interval"`
	RetentionBudget            time.Duration `yaml:"retention_budget"`
	RetentionBatchSize         int           `yaml:"retention_batch_size"`

	SimulatorCadenceS int `yaml:"simulator_cadence_s"`

	ForecastHorizonHoursDefault int           `yaml:"forecast_horizon_hours_default"`
	ForecastMinSamples          int           `yaml:"forecast_min_samples"`
	ForecastHistorySamples      int           `yaml:"forecast_history_samples"`
	ForecastTimeout             time.Duration `yaml:"forecast_timeout"`

	IngestPastTolerance   time.Duration `yaml:"ingest_past_tolerance"`
	IngestFutureTolerance time.Duration `yaml:"ingest_future_tolerance"`
	LastSeenFlushInterval time.Duration `yaml:"last_seen_flush_interval"`
	MaxSensorsPerOwner    int           `yaml:"max_sensors_per_owner"`

	Transport TransportConfig `yaml:"transport"`
}

type TransportConfig struct {
	DBType                string   `yaml:"db_type"`
	DBPath                string   `yaml:"db_path"`
	DBDSN                 string   `yaml:"db_dsn,omitempty"`
	HTTPHostPort          string   `yaml:"http_host_port"`
	GRPCHostPort          string   `yaml:"grpc_host_port"`
	DefaultRate           float64  `yaml:"default_rate"`
	DefaultBurst          int      `yaml:"default_burst"`
	MQTTBroker            string   `yaml:"mqtt_broker"`
	KafkaBrokers          []string `yaml:"kafka_brokers,omitempty"`
	KafkaTopicTransitions string   `yaml:"kafka_topic_transitions"`
	RedisAddr             string   `yaml:"redis_addr"`
	RedisPassword         string   `yaml:"-"`
	AdminToken            string   `yaml:"-"`
}

// Default returns the built-in configuration without consulting the environment.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			CO2Warn:      1000,
			CO2Crit:      1200,
			TempMin:      15,
			TempMax:      28,
			HumidityWarn: 80,
			HumidityCrit: 90,
		},
		ReadingRetentionDays:        90,
		AlertRetentionDays:          365,
		ResolvedAlertRetentionDays:  30,
		RetentionInterval:           time.Hour,
		RetentionBudget:             5 * time.Second,
		RetentionBatchSize:          500,
		SimulatorCadenceS:           30,
		ForecastHorizonHoursDefault: 24,
		ForecastMinSamples:          20,
		ForecastHistorySamples:      200,
		ForecastTimeout:             2 * time.Second,
		IngestPastTolerance:         5 * time.Minute,
		IngestFutureTolerance:       time.Minute,
		LastSeenFlushInterval:       30 * time.Second,
		MaxSensorsPerOwner:          100,
		Transport: TransportConfig{
			DBType:                "file",
			DBPath:                "iaq.db",
			HTTPHostPort:          ":1080",
			DefaultRate:           5,
			DefaultBurst:          10,
			KafkaTopicTransitions: common.DefaultKafkaTopicTransitions,
		},
	}
}

// Load reads .env (optional), the environment, then the YAML file named by
// IAQ_CONFIG_FILE (optional), and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	applyEnv(&cfg)

	if path := os.Getenv(common.EnvKeyIAQConfigFile); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeFile overlays the keys present in a YAML file onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.CO2Warn = getEnvAsFloat("IAQ_DEFAULT_CO2_WARN", c.CO2Warn)
	c.CO2Crit = getEnvAsFloat("IAQ_DEFAULT_CO2_CRIT", c.CO2Crit)
	c.TempMin = getEnvAsFloat("IAQ_DEFAULT_TEMP_MIN", c.TempMin)
	c.TempMax = getEnvAsFloat("IAQ_DEFAULT_TEMP_MAX", c.TempMax)
	c.HumidityWarn = getEnvAsFloat("IAQ_DEFAULT_HUMIDITY_WARN", c.HumidityWarn)
	c.HumidityCrit = getEnvAsFloat("IAQ_DEFAULT_HUMIDITY_CRIT", c.HumidityCrit)

	c.ReadingRetentionDays = getEnvAsInt("IAQ_READING_RETENTION_DAYS", c.ReadingRetentionDays)
	c.AlertRetentionDays = getEnvAsInt("IAQ_ALERT_RETENTION_DAYS", c.AlertRetentionDays)
	c.ResolvedAlertRetentionDays = getEnvAsInt("IAQ_RESOLVED_ALERT_RETENTION_DAYS", c.ResolvedAlertRetentionDays)
	c.RetentionInterval = getEnvAsDuration("IAQ_RETENTION_INTERVAL", c.RetentionInterval)
	c.RetentionBudget = getEnvAsDuration("IAQ_RETENTION_BUDGET", c.RetentionBudget)
	c.RetentionBatchSize = getEnvAsInt("IAQ_RETENTION_BATCH_SIZE", c.RetentionBatchSize)

	c.SimulatorCadenceS = getEnvAsInt("IAQ_SIMULATOR_CADENCE_S", c.SimulatorCadenceS)

	c.ForecastHorizonHoursDefault = getEnvAsInt("IAQ_FORECAST_HORIZON_HOURS_DEFAULT", c.ForecastHorizonHoursDefault)
	c.ForecastMinSamples = getEnvAsInt("IAQ_FORECAST_MIN_SAMPLES", c.ForecastMinSamples)
	c.ForecastHistorySamples = getEnvAsInt("IAQ_FORECAST_HISTORY_SAMPLES", c.ForecastHistorySamples)
	c.ForecastTimeout = getEnvAsDuration("IAQ_FORECAST_TIMEOUT", c.ForecastTimeout)

	c.IngestPastTolerance = getEnvAsDuration("IAQ_INGEST_PAST_TOLERANCE", c.IngestPastTolerance)
	c.IngestFutureTolerance = getEnvAsDuration("IAQ_INGEST_FUTURE_TOLERANCE", c.IngestFutureTolerance)
	c.LastSeenFlushInterval = getEnvAsDuration("IAQ_LAST_SEEN_FLUSH_INTERVAL", c.LastSeenFlushInterval)
	c.MaxSensorsPerOwner = getEnvAsInt("IAQ_MAX_SENSORS_PER_OWNER", c.MaxSensorsPerOwner)

	t := &c.Transport
	t.DBType = getEnv(common.EnvKeyIOTDBType, t.DBType)
	t.DBPath = getEnv(common.EnvKeyIOTDbPath, t.DBPath)
	t.DBDSN = getEnv(common.EnvKeyIOTDbDSN, t.DBDSN)
	t.HTTPHostPort = strings.TrimSpace(getEnv(common.EnvKeyIOTHttpHostPort, t.HTTPHostPort))
	t.GRPCHostPort = strings.TrimSpace(getEnv(common.EnvKeyIOTGrpcHostPort, t.GRPCHostPort))
	t.DefaultRate = getEnvAsFloat(common.EnvKeyIOTDefaultRate, t.DefaultRate)
	t.DefaultBurst = getEnvAsInt(common.EnvKeyIOTDefaultBurst, t.DefaultBurst)
	t.MQTTBroker = getEnv(common.EnvKeyIOTMqttBroker, t.MQTTBroker)
	t.KafkaBrokers = splitCSV(getEnv(common.EnvKeyIOTKafkaBrokers, strings.Join(t.KafkaBrokers, ",")))
	t.KafkaTopicTransitions = getEnv(common.EnvKeyIOTKafkaTopicTransitions, t.KafkaTopicTransitions)
	t.RedisAddr = getEnv(common.EnvKeyIOTRedisAddr, t.RedisAddr)
	t.RedisPassword = getEnv(common.EnvKeyIOTRedisPassword, t.RedisPassword)
	t.AdminToken = getEnv(common.EnvKeyIOTAdminToken, t.AdminToken)
}

func (c *Config) Validate() error {
	var errs []error
	if c.CO2Warn <= 0 || c.CO2Crit <= 0 {
		errs = append(errs, errors.New("co2 thresholds must be positive"))
	}
	if c.CO2Warn > c.CO2Crit {
		errs = append(errs, fmt.Errorf("default_co2_warn %v exceeds default_co2_crit %v", c.CO2Warn, c.CO2Crit))
	}
	if c.TempMin > c.TempMax {
		errs = append(errs, fmt.Errorf("default_temp_min %v exceeds default_temp_max %v", c.TempMin, c.TempMax))
	}
	for name, v := range map[string]float64{
		"default_humidity_warn": c.HumidityWarn,
		"default_humidity_crit": c.HumidityCrit,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s %v outside [0,100]", name, v))
		}
	}
	if c.HumidityWarn > c.HumidityCrit {
		errs = append(errs, fmt.Errorf("default_humidity_warn %v exceeds default_humidity_crit %v", c.HumidityWarn, c.HumidityCrit))
	}
	if c.SimulatorCadenceS < MinSimulatorCadenceS {
		errs = append(errs, fmt.Errorf("simulator_cadence_s must be at least %d", MinSimulatorCadenceS))
	}
	if c.ReadingRetentionDays <= 0 || c.AlertRetentionDays <= 0 || c.ResolvedAlertRetentionDays <= 0 {
		errs = append(errs, errors.New("retention days must be positive"))
	}
	if c.RetentionBudget <= 0 || c.RetentionBatchSize <= 0 {
		errs = append(errs, errors.New("retention_budget and retention_batch_size must be positive"))
	}
	if c.ForecastMinSamples < 2 || c.ForecastHistorySamples < c.ForecastMinSamples {
		errs = append(errs, errors.New("forecast_history_samples must be at least forecast_min_samples, which must be at least 2"))
	}
	if c.ForecastHorizonHoursDefault <= 0 {
		errs = append(errs, errors.New("forecast_horizon_hours_default must be positive"))
	}
	switch c.Transport.DBType {
	case "file", "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown db_type %q", c.Transport.DBType))
	}
	return errors.Join(errs...)
}

// Dump writes the effective configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
