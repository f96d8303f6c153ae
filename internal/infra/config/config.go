// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Booth       BoothConfig     `yaml:"booth"`
	Camera      CameraConfig    `yaml:"camera"`
	IO          IOConfig        `yaml:"io"`
	Timers      TimersConfig    `yaml:"timers"`
	States      StatesConfig    `yaml:"states"`
	Preview     PreviewConfig   `yaml:"preview"`
	CameraRetry RetryConfig     `yaml:"camera_retry"`
	Filters     FiltersConfig   `yaml:"filters"`
	Print       PrintConfig     `yaml:"print"`
	Display     DisplayConfig   `yaml:"display"`
	Slideshow   SlideshowConfig `yaml:"slideshow"`
	Admin       AdminConfig     `yaml:"admin"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// BoothConfig represents general kiosk configuration.
type BoothConfig struct {
	PhotoDirectory string      `yaml:"photo_directory" default:"photos" validate:"required"`
	TempDirectory  string      `yaml:"temp_directory" default:"/tmp/19booth" validate:"required"`
	Language       string      `yaml:"language" default:"en" validate:"oneof=en de"`
	Fullscreen     bool        `yaml:"fullscreen"`
	Hooks          HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// CameraConfig selects the camera backend.
type CameraConfig struct {
	BackendID string         `yaml:"backend_id" default:"gphoto2" validate:"required"`
	Settings  map[string]any `yaml:"settings"`
}

// IOConfig selects the button and LED backend.
type IOConfig struct {
	BackendID string         `yaml:"backend_id" default:"raspi" validate:"required"`
	Settings  map[string]any `yaml:"settings"`
}

// TimersConfig holds the state countdowns in seconds. -1 disables a countdown.
type TimersConfig struct {
	PhotoCountdown      int `yaml:"photo_countdown" default:"5" validate:"gte=0,lte=60"`
	PhotoTimeout        int `yaml:"photo_timeout" default:"60" validate:"gte=-1"`
	SlideShowTimeout    int `yaml:"slide_show_timeout" default:"5" validate:"gte=1"`
	WaitForPrintTimeout int `yaml:"wait_for_print_timeout" default:"30" validate:"gte=-1"`
	PhotoShowTime       int `yaml:"photo_show_time" default:"5" validate:"gte=0"`
}

// StatesConfig holds the enable flags of the optional states.
type StatesConfig struct {
	ShowPhoto *bool `yaml:"show_photo" default:"true"`
	Filter    *bool `yaml:"filter" default:"true"`
	Printing  *bool `yaml:"printing" default:"true"`
	Slideshow *bool `yaml:"slideshow" default:"true"`
}

// PreviewConfig represents live preview configuration.
type PreviewConfig struct {
	FailureThreshold int `yaml:"failure_threshold" default:"10" validate:"gte=1"`
}

// RetryConfig bounds the camera reconnect backoff.
type RetryConfig struct {
	InitialMs int `yaml:"initial_ms" default:"500" validate:"gte=1"`
	MaxMs     int `yaml:"max_ms" default:"10000" validate:"gtefield=InitialMs"`
}

// FiltersConfig represents filter configuration.
type FiltersConfig struct {
	Engine   string         `yaml:"engine" default:"imagemagick" validate:"required"`
	Names    []string       `yaml:"names" default:"[\"gotham\",\"kelvin\",\"lomo\"]" validate:"max=3,dive,required"`
	Settings map[string]any `yaml:"settings"`
}

// PrintConfig represents printing configuration.
type PrintConfig struct {
	Transports []TransportConfig `yaml:"transports" validate:"dive"`
}

// TransportConfig represents a single print transport.
type TransportConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// DisplayConfig represents the screen configuration.
type DisplayConfig struct {
	Backend  string         `yaml:"backend" default:"framebuffer" validate:"required"`
	Width    int            `yaml:"width" default:"800" validate:"gte=160"`
	Height   int            `yaml:"height" default:"480" validate:"gte=120"`
	FPS      int            `yaml:"fps" default:"30" validate:"gte=1,lte=120"`
	Settings map[string]any `yaml:"settings"`
}

// SlideshowConfig represents slideshow configuration.
type SlideshowConfig struct {
	LogoPath string `yaml:"logo_path"`
}

// AdminConfig represents the admin menu configuration.
type AdminConfig struct {
	GracePeriodSec  int    `yaml:"grace_period_sec" default:"2" validate:"gte=0"`
	ShutdownCommand string `yaml:"shutdown_command"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
func Parse(data []byte) (*Config, error) {
	// Defaults first so that explicit zero values in the file survive.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BOOTH_PHOTO_DIRECTORY"); v != "" {
		c.Booth.PhotoDirectory = v
	}
	if v := os.Getenv("BOOTH_LANGUAGE"); v != "" {
		c.Booth.Language = v
	}
	if v := os.Getenv("PRINT_SMB_PASSWORD"); v != "" {
		for i := range c.Print.Transports {
			t := &c.Print.Transports[i]
			if t.Type != "smb" {
				continue
			}
			if t.Settings == nil {
				t.Settings = map[string]any{}
			}
			t.Settings["password"] = v
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]bool, len(c.Filters.Names))
	for _, name := range c.Filters.Names {
		if seen[name] {
			return errors.Newf("filter %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Enabled returns the value of an enable flag, true when unset.
func Enabled(flag *bool) bool {
	return flag == nil || *flag
}

// Grace returns the admin grace period.
func (a AdminConfig) Grace() time.Duration {
	return time.Duration(a.GracePeriodSec) * time.Second
}

// Initial returns the first retry delay.
func (r RetryConfig) Initial() time.Duration {
	return time.Duration(r.InitialMs) * time.Millisecond
}

// Max returns the retry delay cap.
func (r RetryConfig) Max() time.Duration {
	return time.Duration(r.MaxMs) * time.Millisecond
}
