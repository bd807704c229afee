package config

import (
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogMode string       `yaml:"log_mode"`
	HTTP    HTTPConfig   `yaml:"http"`
	Store   StoreConfig  `yaml:"store"`
	Admin   string       `yaml:"admin"`
	Events  EventsConfig `yaml:"events"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Dir string `yaml:"dir"`
}

type EventsConfig struct {
	Kafka  KafkaConfig `yaml:"kafka"`
	Buffer int         `yaml:"buffer"`
}

// KafkaConfig selects the Kafka publisher when Brokers is set. Brokers is a
// comma-separated host:port list.
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

func defaultConfig() *Config {
	return &Config{
		LogMode: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{Dir: "data"},
		Events: EventsConfig{
			Kafka:  KafkaConfig{Topic: "product-lifecycle"},
			Buffer: 1024,
		},
	}
}

// Load reads the YAML file named by LIFECYCLED_CONFIG (or ./config.yaml when
// present) over the defaults, then applies environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	path := strings.TrimSpace(os.Getenv("LIFECYCLED_CONFIG"))
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Annotate(err, "reading config")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Annotatef(err, "parsing %s", path)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.LogMode = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFECYCLED_HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFECYCLED_DATA_DIR")); v != "" {
		cfg.Store.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFECYCLED_ADMIN")); v != "" {
		cfg.Admin = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFECYCLED_KAFKA_BROKERS")); v != "" {
		cfg.Events.Kafka.Brokers = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFECYCLED_KAFKA_TOPIC")); v != "" {
		cfg.Events.Kafka.Topic = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Admin) == "" {
		return errors.NewNotValid(nil, "admin principal is required")
	}
	if strings.TrimSpace(c.Store.Dir) == "" {
		return errors.NewNotValid(nil, "store.dir is required")
	}
	if c.Events.Buffer <= 0 {
		return errors.NotValidf("events.buffer %d", c.Events.Buffer)
	}
	if c.Events.Kafka.Brokers != "" && strings.TrimSpace(c.Events.Kafka.Topic) == "" {
		return errors.NewNotValid(nil, "events.kafka.topic is required when brokers are set")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	return nil
}
