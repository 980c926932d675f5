package pipeline

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/channel"
	"github.com/rxtech-lab/argo-signal/internal/recorder"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/tracker"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// DefaultEvaluationInterval is how often strategies are evaluated when
// the config does not say otherwise. It must stay finer than the peg
// trigger window or the peg strategy can miss its slot.
const DefaultEvaluationInterval = time.Minute

// Duration accepts Go duration strings ("30s", "5m") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "duration must be a string", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ProviderConfig selects and configures the market data provider.
type ProviderConfig struct {
	Type          provider.ProviderType `yaml:"type" validate:"required,oneof=polygon binance"`
	PolygonAPIKey string                `yaml:"polygon_api_key" validate:"required_if=Type polygon"`
}

// BreakoutConfig configures the daily time-range breakout strategy.
// WindowStart and WindowEnd are UTC times of day in HH:MM format.
type BreakoutConfig struct {
	Enabled     bool    `yaml:"enabled"`
	WindowStart string  `yaml:"window_start" validate:"required_if=Enabled true,omitempty,datetime=15:04"`
	WindowEnd   string  `yaml:"window_end" validate:"required_if=Enabled true,omitempty,datetime=15:04"`
	Buffer      float64 `yaml:"buffer" validate:"gte=0"`
}

// MomentumConfig configures the correlation momentum strategy.
type MomentumConfig struct {
	Enabled              bool              `yaml:"enabled"`
	Interval             Duration          `yaml:"interval"`
	CorrelationThreshold float64           `yaml:"correlation_threshold" validate:"gte=-1,lte=1"`
	WindowSize           int               `yaml:"window_size" validate:"gte=0"`
	Timeframes           []types.Timeframe `yaml:"timeframes"`
}

// PegConfig configures the daily peg strategy.
type PegConfig struct {
	Enabled    bool `yaml:"enabled"`
	SettleHour int  `yaml:"settle_hour" validate:"gte=0,lte=23"`
	ExitHour   int  `yaml:"exit_hour" validate:"gte=0,lte=23"`
}

// StrategiesConfig groups the per-strategy configuration.
type StrategiesConfig struct {
	Breakout BreakoutConfig `yaml:"breakout"`
	Momentum MomentumConfig `yaml:"momentum"`
	Peg      PegConfig      `yaml:"peg"`
}

// RecorderConfig configures the spread recorder.
type RecorderConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	LogDir   string   `yaml:"log_dir" validate:"required_if=Enabled true"`
	// Writer selects csv or duckdb persistence.
	Writer string `yaml:"writer" validate:"omitempty,oneof=csv duckdb"`
}

// ServerConfig configures the HTTP status server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// Config is the full pipeline configuration, loaded from YAML.
type Config struct {
	Symbols            []string         `yaml:"symbols" validate:"required,min=1"`
	Provider           ProviderConfig   `yaml:"provider"`
	ChannelCapacity    int              `yaml:"channel_capacity" validate:"gte=0"`
	TrackerDecay       float64          `yaml:"tracker_decay" validate:"gte=0,lte=1"`
	EvaluationInterval Duration         `yaml:"evaluation_interval"`
	Strategies         StrategiesConfig `yaml:"strategies"`
	Recorder           RecorderConfig   `yaml:"recorder"`
	Server             ServerConfig     `yaml:"server"`
}

// applyDefaults fills in the documented defaults for omitted fields.
func (c *Config) applyDefaults() {
	if c.ChannelCapacity == 0 {
		c.ChannelCapacity = channel.DefaultCapacity
	}

	if c.TrackerDecay == 0 {
		c.TrackerDecay = tracker.DefaultDecay
	}

	if c.EvaluationInterval == 0 {
		c.EvaluationInterval = Duration(DefaultEvaluationInterval)
	}

	if c.Strategies.Breakout.Buffer == 0 {
		c.Strategies.Breakout.Buffer = strategy.DefaultBreakoutBuffer
	}

	if c.Strategies.Momentum.Interval == 0 {
		c.Strategies.Momentum.Interval = Duration(time.Hour)
	}

	if c.Strategies.Momentum.CorrelationThreshold == 0 {
		c.Strategies.Momentum.CorrelationThreshold = strategy.DefaultCorrelationThreshold
	}

	if c.Strategies.Momentum.WindowSize == 0 {
		c.Strategies.Momentum.WindowSize = strategy.DefaultMomentumWindowSize
	}

	if len(c.Strategies.Momentum.Timeframes) == 0 {
		c.Strategies.Momentum.Timeframes = []types.Timeframe{types.TimeframeH1, types.TimeframeH4, types.TimeframeD1}
	}

	if c.Strategies.Peg.SettleHour == 0 && c.Strategies.Peg.ExitHour == 0 {
		c.Strategies.Peg.SettleHour = strategy.DefaultSettleHour
		c.Strategies.Peg.ExitHour = strategy.DefaultExitHour
	}

	if c.Recorder.Interval == 0 {
		c.Recorder.Interval = Duration(recorder.DefaultInterval)
	}

	if c.Recorder.Writer == "" {
		c.Recorder.Writer = "csv"
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid pipeline configuration", err)
	}

	if c.TrackerDecay <= 0 || c.TrackerDecay >= 1 {
		return errors.Newf(errors.ErrCodeInvalidDecay, "tracker_decay must be in (0, 1), got %v", c.TrackerDecay)
	}

	for _, tf := range c.Strategies.Momentum.Timeframes {
		if err := tf.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseConfig parses and validates a YAML configuration string.
func ParseConfig(yamlConfig string) (Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(yamlConfig), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse YAML config", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return ParseConfig(string(data))
}
