package domain

import (
	"errors"
	"strings"
)

// Size is the garment size a stock counter and a cart line are keyed by.
type Size string

const (
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

var ErrUnknownSize = errors.New("unknown size")

// Sizes lists every size in display order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// ParseSize accepts any casing ("medium", "MEDIUM", "Medium").
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	default:
		return "", ErrUnknownSize
	}
}

func (s Size) Valid() bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

func (s Size) String() string {
	return string(s)
}
