// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/storefront/internal/model"
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	OrderAPIAddress string `env:"ORDER_API_ADDRESS"`
	AMQPURL         string `env:"AMQP_URL"`
	SessionSecret   string `env:"SESSION_SECRET"`
	BrandConfig     string `env:"BRAND_CONFIG"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`

	Brand model.Brand
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.OrderAPIAddress, "r", "", "order API address")
	flag.StringVar(&cfg.AMQPURL, "q", "", "RabbitMQ URL for lifecycle events")
	flag.StringVar(&cfg.SessionSecret, "s", "", "secret for signing session cookies")
	flag.StringVar(&cfg.BrandConfig, "c", "", "path to YAML brand settings")

	flag.Parse()

	override(&cfg.RunAddress, envCfg.RunAddress)
	override(&cfg.DatabaseURI, envCfg.DatabaseURI)
	override(&cfg.OrderAPIAddress, envCfg.OrderAPIAddress)
	override(&cfg.AMQPURL, envCfg.AMQPURL)
	override(&cfg.SessionSecret, envCfg.SessionSecret)
	override(&cfg.BrandConfig, envCfg.BrandConfig)

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	brand, err := LoadBrand(cfg.BrandConfig)
	if err != nil {
		return nil, err
	}
	cfg.Brand = brand

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}

// DefaultBrand - настройки витрины, если файл бренда не задан.
var DefaultBrand = model.Brand{Title: "Storefront", MenuSlug: "/menu"}

// LoadBrand читает настройки витрины из YAML-файла. Пустой путь даёт DefaultBrand.
func LoadBrand(path string) (model.Brand, error) {
	if path == "" {
		return DefaultBrand, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Brand{}, fmt.Errorf("read brand config: %w", err)
	}

	brand := DefaultBrand
	if err := yaml.Unmarshal(data, &brand); err != nil {
		return model.Brand{}, fmt.Errorf("parse brand config: %w", err)
	}
	return brand, nil
}
