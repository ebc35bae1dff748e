// Package config содержит логику чтения конфигурации сервиса лаунчпада.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultOracleRefresh  = "@every 30s"
	defaultEventsExchange = "launchpad.events"
)

// Config содержит параметры конфигурации сервиса лаунчпада.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	OracleAddress  string `env:"ORACLE_ADDRESS"`
	OracleRefresh  string `env:"ORACLE_REFRESH"`
	AMQPURL        string `env:"AMQP_URL"`
	EventsExchange string `env:"EVENTS_EXCHANGE"`
	AuthSecret     string `env:"AUTH_SECRET"`
	FaucetEnabled  bool   `env:"FAUCET_ENABLED"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg
	_, envFaucetSet := os.LookupEnv("FAUCET_ENABLED")

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.OracleAddress, "o", "", "price oracle address")
	flag.StringVar(&cfg.OracleRefresh, "p", defaultOracleRefresh, "price refresh schedule (cron spec)")
	flag.StringVar(&cfg.AMQPURL, "q", "", "AMQP broker URL for domain events")
	flag.StringVar(&cfg.EventsExchange, "e", defaultEventsExchange, "AMQP exchange for domain events")
	flag.StringVar(&cfg.AuthSecret, "s", "", "auth cookie signing secret")
	flag.BoolVar(&cfg.FaucetEnabled, "f", false, "enable test token faucet")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.OracleAddress != "" {
		cfg.OracleAddress = envCfg.OracleAddress
	}
	if envCfg.OracleRefresh != "" {
		cfg.OracleRefresh = envCfg.OracleRefresh
	}
	if envCfg.AMQPURL != "" {
		cfg.AMQPURL = envCfg.AMQPURL
	}
	if envCfg.EventsExchange != "" {
		cfg.EventsExchange = envCfg.EventsExchange
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if envFaucetSet {
		cfg.FaucetEnabled = envCfg.FaucetEnabled
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.OracleRefresh == "" {
		cfg.OracleRefresh = defaultOracleRefresh
	}
	if cfg.EventsExchange == "" {
		cfg.EventsExchange = defaultEventsExchange
	}

	return cfg, nil
}
