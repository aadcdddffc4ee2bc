package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ThreadsPerPage int `yaml:"threads_per_page" validate:"required,min=1"`
	PostsPerPage   int `yaml:"posts_per_page" validate:"required,min=1"`
	MaxBodyLength  int `yaml:"max_body_length" validate:"required,min=1"`

	ClipboardTTL     time.Duration `yaml:"clipboard_ttl" validate:"required"`
	ClipboardBackend string        `yaml:"clipboard_backend" validate:"omitempty,oneof=postgres redis"`

	NotificationTimeout time.Duration `yaml:"notification_timeout"`
	PostsPerMinute      float64       `yaml:"posts_per_minute"` // per-user posting rate, 0 disables the limit

	JwtTTL        time.Duration `yaml:"jwt_ttl"`
	CorsOrigins   []string      `yaml:"cors_origins"`
	SecureCookies bool          `yaml:"secure_cookies"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Email struct {
	SMTPServer  string `yaml:"smtp_server"`
	SMTPPort    int    `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	SenderName  string `yaml:"sender_name"`
	SenderEmail string `yaml:"sender_email"`
	Timeout     int    `yaml:"timeout"` // seconds
}

// Enabled is false when no smtp server is configured; notifications are then skipped.
func (e Email) Enabled() bool {
	return e.SMTPServer != "" && e.SenderEmail != ""
}

type Private struct {
	Pg       Pg     `yaml:"pg"`
	JwtKey   string `yaml:"jwt_key" validate:"required"`
	RedisURL string `yaml:"redis_url"`
	Email    Email  `yaml:"email"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(output); err != nil {
		panic(fmt.Sprintf("invalid config file %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	if public.ClipboardBackend == "" {
		public.ClipboardBackend = "postgres"
	}

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	if public.ClipboardBackend == "redis" && private.RedisURL == "" {
		panic("clipboard_backend is redis but redis_url is empty")
	}

	return &Config{public, private}
}
