package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

type Config struct {
	Port                    string        `env:"PORT" envDefault:"8080"`
	Env                     string        `env:"ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	PostgresURL             string        `env:"POSTGRES_CONN_STR,required,notEmpty"`
	MongoURI                string        `env:"MONGO_URI,required,notEmpty"`
	MongoDatabase           string        `env:"MONGO_DATABASE" envDefault:"socialmedia"`
	RedisURL                string        `env:"REDIS_URL"`
	NotificationChannel     string        `env:"NOTIFICATION_CHANNEL" envDefault:"notifications"`
	JWTSecret               string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL                  time.Duration `env:"JWT_TTL" envDefault:"72h"`
	AuthProvider            string        `env:"AUTH_PROVIDER" envDefault:"jwt"`
	FirebaseCredentialsPath string        `env:"FIREBASE_CREDENTIALS_PATH"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads .env (if any) into the environment and parses Config from it
func Load() (*Config, error) {
	// a missing .env just means the environment is already set
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	if cfg.AuthProvider != AuthProviderJWT && cfg.AuthProvider != AuthProviderFirebase {
		return nil, errors.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderJWT, AuthProviderFirebase, cfg.AuthProvider)
	}
	if cfg.AuthProvider == AuthProviderFirebase && cfg.FirebaseCredentialsPath == "" {
		return nil, errors.New("AUTH_PROVIDER=firebase requires FIREBASE_CREDENTIALS_PATH")
	}
	return &cfg, nil
}

func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsPath != ""
}
