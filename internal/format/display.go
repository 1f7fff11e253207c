package format

import (
	"errors"
	"fmt"
)

// ErrInvalidDisplayMode is returned for an unknown drop display mode.
var ErrInvalidDisplayMode = errors.New("invalid display mode")

// DisplayMode selects how chances are rendered in skill text.
type DisplayMode string

const (
	// DisplayPercent renders every chance as a percent.
	DisplayPercent DisplayMode = "percent"
	// DisplayFraction renders chances below 1% as "1 / N".
	DisplayFraction DisplayMode = "fraction"
)

// DefaultPlaces is the number of decimals used for skill text percents.
const DefaultPlaces = 4

// ParseDisplayMode validates a display mode name.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(s); m {
	case DisplayPercent, DisplayFraction:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidDisplayMode, s, DisplayPercent, DisplayFraction)
	}
}

// Formatter renders chances according to a display mode.
type Formatter struct {
	Mode   DisplayMode
	Places int
}

// NewFormatter validates the mode and returns a Formatter.
func NewFormatter(mode DisplayMode, places int) (Formatter, error) {
	if _, err := ParseDisplayMode(string(mode)); err != nil {
		return Formatter{}, err
	}
	if places < 0 {
		return Formatter{}, fmt.Errorf("%w: negative decimal places %d", ErrInvalidArgument, places)
	}
	return Formatter{Mode: mode, Places: places}, nil
}

// Format renders chance for display.
func (f Formatter) Format(chance float64) (string, error) {
	switch f.Mode {
	case DisplayPercent:
		return FormatPercent(chance, f.Places)
	case DisplayFraction:
		return FormatProbability(chance, f.Places)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDisplayMode, f.Mode)
	}
}
