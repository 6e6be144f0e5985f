package config

import (
	"log"
	"time"

	"github.com/joeshaw/envdecode"
)

// Env carries process configuration decoded from the environment.
type Env struct {
	AppAddr string `env:"APP_ADDR,default=:8080"`
	AppEnv  string `env:"APP_ENV,default=development"`
	GinMode string `env:"GIN_MODE"`

	DBUser string `env:"DB_USER,default=root"`
	DBPass string `env:"DB_PASS"`
	DBHost string `env:"DB_HOST,default=127.0.0.1:3306"`
	DBName string `env:"DB_NAME,default=tourbook"`

	JWTSecret        string        `env:"JWT_SECRET,default=super-secret-key-change-me"`
	JWTExpires       time.Duration `env:"JWT_EXPIRES,default=24h"`
	JWTCookieExpires time.Duration `env:"JWT_COOKIE_EXPIRES,default=24h"`

	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  int    `env:"SMTP_PORT,default=587"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
	EmailFrom string `env:"EMAIL_FROM,default=Tourbook <hello@tourbook.local>"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoadEnv decodes Env from the environment, falling back to the defaults
// above for local development.
func LoadEnv() Env {
	var env Env
	if err := envdecode.Decode(&env); err != nil {
		log.Fatalf("config: %v", err)
	}
	return env
}

// Production reports whether the process runs in production mode. Error
// responses hide diagnostic detail when it returns true.
func (e Env) Production() bool {
	return e.AppEnv == "production"
}
