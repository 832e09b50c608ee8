package domain

import (
	"fmt"
	"strings"
)

const (
	MinSymbolLength = 1
	MaxSymbolLength = 15
)

// AssetSymbol is a normalized (trimmed, uppercase) ticker such as BTC.
type AssetSymbol string

// NewAssetSymbol validates and normalizes a symbol.
func NewAssetSymbol(raw string) (AssetSymbol, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	if len(s) < MinSymbolLength {
		return "", fmt.Errorf("%w: symbol cannot be empty", ErrInvalidSymbol)
	}

	if len(s) > MaxSymbolLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidSymbol, s, MaxSymbolLength)
	}

	return AssetSymbol(s), nil
}

func (s AssetSymbol) String() string { return string(s) }
