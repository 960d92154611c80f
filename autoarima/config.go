package autoarima

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Errors reported at construction time.
var (
	// ErrEmptySeries indicates the selector was given a nil or empty series.
	ErrEmptySeries = errors.New("autoarima: series is empty")
	// ErrInvalidConfig indicates an inconsistent configuration.
	ErrInvalidConfig = errors.New("autoarima: invalid configuration")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the configuration for an order-selection run.
type Config struct {
	// Alpha is the significance level for the ADF and KPSS unit-root tests.
	Alpha float64 `yaml:"alpha" validate:"gt=0,lt=1"`

	// MaxOrder is the inclusive upper bound applied independently to the AR
	// order p and the MA order q.
	MaxOrder int `yaml:"max_order" validate:"gte=0"`

	// MinRootModulus is the exclusive lower bound each AR and MA
	// characteristic root's modulus must exceed for a candidate to be
	// accepted. Values above 1 enforce a stationarity/invertibility margin.
	MinRootModulus float64 `yaml:"min_root_modulus" validate:"gte=0"`

	// FullSearch evaluates the exhaustive (p, q, trend) grid instead of the
	// stepwise search.
	FullSearch bool `yaml:"full_search"`

	// Logger receives candidate-skip and stationarization notices.
	// Defaults to slog.Default().
	Logger *slog.Logger `yaml:"-" validate:"-"`
}

// DefaultConfig returns the default selection configuration:
// alpha 0.05, orders bounded by 5, root-modulus floor 1.001, stepwise search.
func DefaultConfig() *Config {
	return &Config{
		Alpha:          0.05,
		MaxOrder:       5,
		MinRootModulus: 1.001,
	}
}

// Validate reports whether the configuration is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
