package domain

import (
	"fmt"
	"strings"
)

// Mode selects the transform pipeline applied to every image of a batch.
type Mode string

// Supported processing modes
const (
	// ModeWhite removes the background and replaces it with plain white.
	ModeWhite Mode = "white"

	// ModeInterior places the product into a generated scene that matches
	// its classified category.
	ModeInterior Mode = "interior"
)

// ParseMode converts a user supplied value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWhite:
		return ModeWhite, nil
	case ModeInterior:
		return ModeInterior, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ModeFromWhiteBG maps the legacy white_bg flag onto a Mode.
func ModeFromWhiteBG(whiteBG bool) Mode {
	if whiteBG {
		return ModeWhite
	}
	return ModeInterior
}

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	return m == ModeWhite || m == ModeInterior
}

func (m Mode) String() string {
	return string(m)
}
