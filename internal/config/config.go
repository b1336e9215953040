package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// StravaConfig holds segment catalog credentials.
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GoogleConfig holds distance and directions credentials.
type GoogleConfig struct {
	APIKey string
}

// FinderConfig holds route-assembly tuning knobs.
type FinderConfig struct {
	InitialBoxKm    float64
	TopK            int
	DownsampleRatio int
	MaxBoxDoublings int
	MaxIterations   int
}

// ServiceConfig holds all configuration for the route service.
type ServiceConfig struct {
	Port         string
	AppEnv       string
	JWTSecret    string
	KafkaBrokers []string
	Strava       StravaConfig
	Google       GoogleConfig
	Finder       FinderConfig
}

// Load reads configuration from ROUTES_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTES")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("INITIAL_BOX_KM", 30.0)
	v.SetDefault("TOP_K", 3)
	v.SetDefault("DOWNSAMPLE_RATIO", 2)
	v.SetDefault("MAX_BOX_DOUBLINGS", 6)
	v.SetDefault("MAX_ITERATIONS", 25)

	cfg := &ServiceConfig{
		Port:         ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv:       v.GetString("APP_ENV"),
		JWTSecret:    v.GetString("JWT_SECRET"),
		KafkaBrokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		Strava: StravaConfig{
			ClientID:     v.GetString("STRAVA_CLIENT_ID"),
			ClientSecret: v.GetString("STRAVA_CLIENT_SECRET"),
			RefreshToken: v.GetString("STRAVA_REFRESH_TOKEN"),
		},
		Google: GoogleConfig{
			APIKey: v.GetString("GOOGLE_API_KEY"),
		},
		Finder: FinderConfig{
			InitialBoxKm:    v.GetFloat64("INITIAL_BOX_KM"),
			TopK:            v.GetInt("TOP_K"),
			DownsampleRatio: v.GetInt("DOWNSAMPLE_RATIO"),
			MaxBoxDoublings: v.GetInt("MAX_BOX_DOUBLINGS"),
			MaxIterations:   v.GetInt("MAX_ITERATIONS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.AppEnv == "development" {
		return nil
	}

	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "ROUTES_JWT_SECRET")
	}
	if c.Strava.ClientID == "" || c.Strava.ClientSecret == "" || c.Strava.RefreshToken == "" {
		missing = append(missing, "ROUTES_STRAVA_CLIENT_ID/SECRET/REFRESH_TOKEN")
	}
	if c.Google.APIKey == "" {
		missing = append(missing, "ROUTES_GOOGLE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
