package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	GalaChain struct {
		GatewayURL string `env:"GALACHAIN_GATEWAY_URL,required"`
		APIToken   string `env:"GALACHAIN_API_TOKEN" envDefault:""`

		// Token class consumed as gas, one unit per mint operation.
		GasFeeToken string `env:"GALACHAIN_GAS_FEE_TOKEN" envDefault:"GALA|Unit|none|none"`

		RequestTimeout time.Duration `env:"GALACHAIN_REQUEST_TIMEOUT" envDefault:"10s"`
	}

	Settlement struct {
		Interval time.Duration `env:"SETTLEMENT_INTERVAL" envDefault:"1m"`
	}

	Giveaway struct {
		// Minimum gap between start and end of a giveaway.
		MinWindow time.Duration `env:"GIVEAWAY_MIN_WINDOW" envDefault:"10m"`

		// Tolerated clock skew when checking that start is not in the past.
		StartSkew time.Duration `env:"GIVEAWAY_START_SKEW" envDefault:"1m"`
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	// Missing .env is fine, variables may be set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
