package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transports
const (
	TransportHTTP = "http"
	TransportAMQP = "amqp"
)

// Endpoint is where a service listens and where its peers reach it.
type Endpoint struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"gt=0,lte=65535"`
}

// BaseURL is the HTTP root of the endpoint.
func (e Endpoint) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

type Config struct {
	Transport string `yaml:"transport" validate:"oneof=http amqp"`

	RabbitMQ struct {
		Host     string `yaml:"host" validate:"required"`
		Port     int    `yaml:"port" validate:"gt=0,lte=65535"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Prefetch int    `yaml:"prefetch" validate:"gte=0"`
	} `yaml:"rabbitmq"`

	Services struct {
		Gateway  Endpoint `yaml:"gateway"`
		Display  Endpoint `yaml:"display"`
		Location Endpoint `yaml:"location"`
		Transit  Endpoint `yaml:"transit"`
	} `yaml:"services"`

	Providers struct {
		Nominatim struct {
			BaseURL   string        `yaml:"base_url" validate:"required,url"`
			UserAgent string        `yaml:"user_agent" validate:"required"`
			Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
		} `yaml:"nominatim"`
		Geofox struct {
			BaseURL  string        `yaml:"base_url" validate:"required,url"`
			User     string        `yaml:"user"`
			Password string        `yaml:"password"`
			Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
		} `yaml:"geofox"`
		RateLimit struct {
			RPS   float64 `yaml:"rps" validate:"gte=0"`
			Burst int     `yaml:"burst" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"providers"`

	Pipeline struct {
		NearbyCandidates   int           `yaml:"nearby_candidates" validate:"gt=0"`
		TopStations        int           `yaml:"top_stations" validate:"gt=0"`
		OutboundTimeout    time.Duration `yaml:"outbound_timeout" validate:"gt=0"`
		ProviderTimeout    time.Duration `yaml:"provider_timeout" validate:"gt=0"`
		MaxDetached        int           `yaml:"max_detached" validate:"gt=0"`
		StageTTL           time.Duration `yaml:"stage_ttl" validate:"gt=0"`
		AcceptEmptyResults bool          `yaml:"accept_empty_results"`
	} `yaml:"pipeline"`

	Display struct {
		BoardAuth bool `yaml:"board_auth"`
		Console   bool `yaml:"console"`
	} `yaml:"display"`

	JWT struct {
		SecretKey string        `yaml:"secret_key"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`
}

// LoadFromFile loads config from a YAML file, applies defaults and environment
// overrides, and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Load(data)
}

// Load parses raw YAML. A missing .env file is not an error.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// AMQPURL builds the broker URL.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}

// Endpoint returns the configured endpoint of a service by name.
func (c *Config) Endpoint(service string) (Endpoint, bool) {
	switch service {
	case "gateway":
		return c.Services.Gateway, true
	case "display":
		return c.Services.Display, true
	case "location":
		return c.Services.Location, true
	case "transit":
		return c.Services.Transit, true
	}
	return Endpoint{}, false
}

// applyEnv lets deployments override secrets and endpoints without editing the file.
func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("ND_TRANSPORT", &cfg.Transport)
	str("RABBITMQ_HOST", &cfg.RabbitMQ.Host)
	num("RABBITMQ_PORT", &cfg.RabbitMQ.Port)
	str("RABBITMQ_USER", &cfg.RabbitMQ.User)
	str("RABBITMQ_PASSWORD", &cfg.RabbitMQ.Password)
	str("NOMINATIM_BASE_URL", &cfg.Providers.Nominatim.BaseURL)
	str("GEOFOX_BASE_URL", &cfg.Providers.Geofox.BaseURL)
	str("GEOFOX_USER", &cfg.Providers.Geofox.User)
	str("GEOFOX_PASSWORD", &cfg.Providers.Geofox.Password)
	str("JWT_SECRET", &cfg.JWT.SecretKey)
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.Prefetch == 0 {
		cfg.RabbitMQ.Prefetch = 8
	}

	// Services
	endpoint := func(e *Endpoint, port int) {
		if e.Host == "" {
			e.Host = "localhost"
		}
		if e.Port == 0 {
			e.Port = port
		}
	}
	endpoint(&cfg.Services.Gateway, 8080)
	endpoint(&cfg.Services.Display, 9091)
	endpoint(&cfg.Services.Location, 9092)
	endpoint(&cfg.Services.Transit, 9093)

	// Providers
	if cfg.Providers.Nominatim.BaseURL == "" {
		cfg.Providers.Nominatim.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Providers.Nominatim.UserAgent == "" {
		cfg.Providers.Nominatim.UserAgent = "VSP-Departure-System/1.0"
	}
	if cfg.Providers.Nominatim.Timeout == 0 {
		cfg.Providers.Nominatim.Timeout = 5 * time.Second
	}
	if cfg.Providers.Geofox.BaseURL == "" {
		cfg.Providers.Geofox.BaseURL = "https://gti.geofox.de/gti/public"
	}
	if cfg.Providers.Geofox.Timeout == 0 {
		cfg.Providers.Geofox.Timeout = 5 * time.Second
	}
	if cfg.Providers.RateLimit.RPS == 0 {
		cfg.Providers.RateLimit.RPS = 1
	}
	if cfg.Providers.RateLimit.Burst == 0 {
		cfg.Providers.RateLimit.Burst = 5
	}

	// Pipeline
	if cfg.Pipeline.NearbyCandidates == 0 {
		cfg.Pipeline.NearbyCandidates = 50
	}
	if cfg.Pipeline.TopStations == 0 {
		cfg.Pipeline.TopStations = 3
	}
	if cfg.Pipeline.OutboundTimeout == 0 {
		cfg.Pipeline.OutboundTimeout = 10 * time.Second
	}
	if cfg.Pipeline.ProviderTimeout == 0 {
		cfg.Pipeline.ProviderTimeout = 15 * time.Second
	}
	if cfg.Pipeline.MaxDetached == 0 {
		cfg.Pipeline.MaxDetached = 64
	}
	if cfg.Pipeline.StageTTL == 0 {
		cfg.Pipeline.StageTTL = 10 * time.Minute
	}

	// JWT
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 2 * time.Hour
	}
	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) validate() error {
	var problems []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if c.Transport == TransportAMQP {
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required for amqp transport")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required for amqp transport")
		}
	}
	if c.Pipeline.TopStations > c.Pipeline.NearbyCandidates {
		problems = append(problems, "pipeline.top_stations must not exceed pipeline.nearby_candidates")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
