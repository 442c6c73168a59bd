package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	APNs      APNsConfig      `yaml:"apns"`
	AWS       AWSConfig       `yaml:"aws"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// APNsConfig holds push notification provider configuration.
// When Enabled is false, pushes are logged and dropped.
type APNsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	CertPass   string `yaml:"cert_password"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// AWSConfig holds S3 media storage configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// SchedulerConfig holds the cron specs for the daily question jobs.
// Specs run in Timezone; per-arch deadlines still use each arch's own timezone.
type SchedulerConfig struct {
	Timezone       string `yaml:"timezone"`
	CreateSpec     string `yaml:"create_spec"`
	ProcessSpec    string `yaml:"process_spec"`
	ReminderSpec   string `yaml:"reminder_spec"`
	CleanupSpec    string `yaml:"cleanup_spec"`
	ReminderWindow int    `yaml:"reminder_window_minutes"`
	RetentionDays  int    `yaml:"retention_days"`
	Disabled       bool   `yaml:"disabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "America/New_York"
	}
	if c.Scheduler.CreateSpec == "" {
		c.Scheduler.CreateSpec = "0 6 * * *"
	}
	if c.Scheduler.ProcessSpec == "" {
		c.Scheduler.ProcessSpec = "0 17 * * *"
	}
	if c.Scheduler.ReminderSpec == "" {
		c.Scheduler.ReminderSpec = "0 15 * * *"
	}
	if c.Scheduler.CleanupSpec == "" {
		c.Scheduler.CleanupSpec = "30 3 * * *"
	}
	if c.Scheduler.ReminderWindow <= 0 {
		c.Scheduler.ReminderWindow = 180
	}
	if c.Scheduler.RetentionDays <= 0 {
		c.Scheduler.RetentionDays = 90
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
