package config

import "time"

type App struct {
	Port        string        `env:"APP_PORT" default:"8080"`
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTTTL      time.Duration `env:"JWT_TTL" default:"24h"`
	Env         string        `env:"APP_ENV" default:"dev"`

	RentalPeriod time.Duration `env:"RENTAL_PERIOD" default:"336h"`

	DBMaxConns       int32         `env:"DB_MAX_CONNS" default:"10"`
	DBLockTimeout    time.Duration `env:"DB_LOCK_TIMEOUT" default:"2s"`
	TxAttemptTimeout time.Duration `env:"TX_ATTEMPT_TIMEOUT" default:"5s"`
	TxMaxAttempts    int           `env:"TX_MAX_ATTEMPTS" default:"4"`
	TxRetryBaseDelay time.Duration `env:"TX_RETRY_BASE_DELAY" default:"20ms"`
}

func (a App) IsProd() bool { return a.Env == "prod" || a.Env == "production" }
