// Package format renders drop probabilities for the in-game skill text.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrInvalidProbability is returned for chances outside [0, 1].
	ErrInvalidProbability = errors.New("invalid probability")

	// ErrInvalidArgument is returned for a negative number of decimal places.
	ErrInvalidArgument = errors.New("invalid argument")
)

// FractionThreshold is the smallest chance still rendered as a percent by
// FormatProbability.
const FractionThreshold = 0.01

var printer = message.NewPrinter(language.English)

// FormatPercent renders chance as a percentage with at most places decimals.
//
//	FormatPercent(0.12345, 2) == "12.35%"
//	FormatPercent(0.5, 2)     == "50%"
//
// Rounding is half-up on the decimal digits of chance, so a given
// (chance, places) pair always renders the same way.
func FormatPercent(chance float64, places int) (string, error) {
	if err := checkChance(chance); err != nil {
		return "", err
	}
	if places < 0 {
		return "", fmt.Errorf("%w: negative decimal places %d", ErrInvalidArgument, places)
	}
	switch chance {
	case 1:
		return "100%", nil
	case 0:
		return "0%", nil
	}

	// 0 < chance < 1, so the shortest representation is "0.<digits>".
	s := strconv.FormatFloat(chance, 'f', -1, 64)
	frac := strings.TrimPrefix(s, "0.")
	if pad := places + 3 - len(frac); pad > 0 {
		frac += strings.Repeat("0", pad)
	}

	// The first two fractional digits of chance are the integer percent.
	kept := frac[:places+2]
	if frac[places+2] >= '5' {
		kept = incrementDigits(kept)
	}

	intPart := strings.TrimLeft(kept[:len(kept)-places], "0")
	if intPart == "" {
		intPart = "0"
	}
	decPart := strings.TrimRight(kept[len(kept)-places:], "0")

	if decPart == "" || places == 0 {
		return intPart + "%", nil
	}
	return intPart + "." + decPart + "%", nil
}

// FormatProbability renders common chances as a percent and rare ones
// (below 1%) as a "1 / N" fraction.
//
//	FormatProbability(0.005, 4) == "1 / 200"
//	FormatProbability(0.02, 4)  == "2%"
func FormatProbability(chance float64, places int) (string, error) {
	if err := checkChance(chance); err != nil {
		return "", err
	}
	if chance >= FractionThreshold || chance == 0 {
		return FormatPercent(chance, places)
	}
	return fraction(chance)
}

// FormatFraction always renders chance as "1 / N". A zero chance renders as "0%".
func FormatFraction(chance float64) (string, error) {
	if err := checkChance(chance); err != nil {
		return "", err
	}
	if chance == 0 {
		return "0%", nil
	}
	return fraction(chance)
}

// GroupThousands renders n with English thousands separators.
func GroupThousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// fraction renders 1 / round(1/chance). Chances whose denominator does not
// fit an int64 are rejected.
func fraction(chance float64) (string, error) {
	d := math.Round(1 / chance)
	if d >= math.MaxInt64 {
		return "", fmt.Errorf("%w: %v is too small to render as a fraction", ErrInvalidProbability, chance)
	}
	return "1 / " + GroupThousands(int64(d)), nil
}

func checkChance(chance float64) error {
	if math.IsNaN(chance) || chance < 0 || chance > 1 {
		return fmt.Errorf("%w: %v is outside [0, 1]", ErrInvalidProbability, chance)
	}
	return nil
}

// incrementDigits adds one to a string of decimal digits, carrying as needed.
// "0999" becomes "1000"; "999" becomes "1000".
func incrementDigits(digits string) string {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
