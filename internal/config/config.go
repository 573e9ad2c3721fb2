package config

import (
	"errors"
	"fmt"
	"time"
)

// minSecretLength is the shortest accepted signing or encryption secret.
const minSecretLength = 32

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database  Database  `envPrefix:"DB_"`
	Storage   Storage   `envPrefix:"STORAGE_"`
	Mongo     Mongo     `envPrefix:"MONGO_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Service   Service   `envPrefix:"SERVICE_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Health    Health    `envPrefix:"HEALTH_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite | mysql
	URL    string `env:"URL" envDefault:"storefront.db"`
}

type Storage struct {
	Driver        string `env:"DRIVER" envDefault:"local"` // local | cloudinary
	LocalDir      string `env:"LOCAL_DIR" envDefault:"./data/uploads"`
	CloudinaryURL string `env:"CLOUDINARY_URL"`
}

type Mongo struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"storefront"`
}

type Auth struct {
	SessionSecret      string        `env:"SESSION_SECRET,required,notEmpty"`
	CookieSecret       string        `env:"COOKIE_SECRET,required,notEmpty"`
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	SnapshotTTL        time.Duration `env:"SNAPSHOT_TTL" envDefault:"5m"`
	SecureCookies      bool          `env:"SECURE_COOKIES" envDefault:"false"`
	AdminEmails        []string      `env:"ADMIN_EMAILS" envSeparator:","`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
}

// Validate rejects secrets too short to sign cookies or tokens, and the
// three secrets being the same value.
func (a Auth) Validate() error {
	secrets := []struct {
		name  string
		value string
	}{
		{"AUTH_SESSION_SECRET", a.SessionSecret},
		{"AUTH_COOKIE_SECRET", a.CookieSecret},
		{"AUTH_JWT_SECRET", a.JWTSecret},
	}
	for _, s := range secrets {
		if len(s.value) < minSecretLength {
			return fmt.Errorf("%s must be at least %d characters", s.name, minSecretLength)
		}
	}
	if a.SessionSecret == a.CookieSecret || a.SessionSecret == a.JWTSecret || a.CookieSecret == a.JWTSecret {
		return errors.New("auth secrets must differ from each other")
	}
	return nil
}

// Service holds the two API keys.
type Service struct {
	AnonKey string `env:"ANON_KEY"`
	RoleKey string `env:"ROLE_KEY"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

func (b Braintree) Enabled() bool {
	return b.MerchantID != "" && b.PublicKey != "" && b.PrivateKey != ""
}

type Health struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"5m"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
