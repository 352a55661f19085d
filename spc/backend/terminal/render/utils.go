package render

import (
	"fmt"
	"strings"
)

// LevelMeter draws peak, a sample magnitude, as a bar width cells wide.
func LevelMeter(peak int16, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(peak) * width / 32767
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled)
}

// HexRow formats up to 8 bytes starting at address.
func HexRow(address uint16, data []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04X:", address)
	for _, b := range data {
		fmt.Fprintf(&sb, " %02X", b)
	}
	return sb.String()
}

// Truncate shortens s to width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width > 3 {
		return string(runes[:width-3]) + "..."
	}
	if width > 0 {
		return string(runes[:width])
	}
	return ""
}
