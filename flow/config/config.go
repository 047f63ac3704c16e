// Package config loads run options from files and the environment.
//
// A Config is read with viper from an optional YAML file, an optional .env
// file and KVFLOW_ prefixed environment variables, in increasing order of
// precedence, then validated and turned into options for flow.Stream.With.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/lguimbarda/kvflow/flow/core"
	"github.com/lguimbarda/kvflow/flow/flowerrors"
)

// Error policies.
const (
	PolicyEscalate = "escalate"
	PolicySkip     = "skip"
	PolicyAbort    = "abort"
)

// Config holds the run options that can be set outside the code.
type Config struct {
	// Mode is auto, pull or push.
	Mode    string        `yaml:"mode" mapstructure:"mode" validate:"oneof=auto pull push"`
	Errors  ErrorsConfig  `yaml:"errors" mapstructure:"errors"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ErrorsConfig selects the error handler chain of a run.
type ErrorsConfig struct {
	// Policy decides what happens to a failing item once MaxErrors allows it.
	Policy string `yaml:"policy" mapstructure:"policy" validate:"oneof=escalate skip abort"`
	// MaxErrors aborts the run at the MaxErrors-th error. 0 means no limit.
	MaxErrors int `yaml:"max_errors" mapstructure:"max_errors" validate:"gte=0"`
	// Log logs every per-item error with its decision.
	Log bool `yaml:"log" mapstructure:"log"`
}

// LoggingConfig configures the logger used when Errors.Log is set.
type LoggingConfig struct {
	Level   string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format  string `yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`
	Output  string `yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in the fields left empty.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = core.ModeAuto.String()
	}
	if c.Errors.Policy == "" {
		c.Errors.Policy = PolicyEscalate
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every field and reports all the problems found.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	var errs error
	for _, fe := range fieldErrors {
		errs = multierr.Append(errs, fmt.Errorf("%s: %s", fieldPath(fe.Namespace()), describe(fe)))
	}
	return errs
}

// fieldPath turns Config.Errors.MaxErrors into errors.max_errors.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnakeCase(p)
	}
	return strings.Join(parts, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s] (got: %v)", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s (got: %v)", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Options validates c and converts it to run options: the mode and an error
// handler chain built from Errors. When Errors.Log is set, errors are logged
// with a logger built from Logging.
func (c Config) Options() ([]core.Option, error) {
	c.ApplyDefaults()
	return c.OptionsWithLogger(flowerrors.NewLogger(c.Logging.LogConfig()))
}

// OptionsWithLogger is Options logging to logger instead of the configured
// output.
func (c Config) OptionsWithLogger(logger zerolog.Logger) ([]core.Option, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, err := core.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	// The chain is built for each run so that MaxErrors counts per run.
	errorChain := func(rc *core.RunConfig) {
		core.WithErrorHandlers(c.handlers(logger)...)(rc)
	}
	return []core.Option{core.WithMode(mode), errorChain}, nil
}

// handlers builds the error handler chain described by c.Errors. With
// logging enabled the chain collapses into one handler that logs each error
// with the decision the chain made.
func (c Config) handlers(logger zerolog.Logger) []core.ErrorHandler {
	var chain []core.ErrorHandler
	if c.Errors.MaxErrors > 0 {
		chain = append(chain, flowerrors.NewCircuitBreaker(c.Errors.MaxErrors, nil))
	}
	switch c.Errors.Policy {
	case PolicySkip:
		chain = append(chain, flowerrors.Skip())
	case PolicyAbort:
		chain = append(chain, flowerrors.Abort())
	}
	if !c.Errors.Log {
		return chain
	}
	return []core.ErrorHandler{flowerrors.Log(flowerrors.Zerolog(logger), core.ErrorChain(chain))}
}

// LogConfig converts c to the logger settings of flowerrors.
func (c LoggingConfig) LogConfig() flowerrors.LogConfig {
	return flowerrors.LogConfig{
		Level:   c.Level,
		Format:  c.Format,
		Output:  c.Output,
		NoColor: c.NoColor,
	}
}
