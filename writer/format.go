package writer

import (
	"strconv"
	"strings"
)

// FormatPrice keeps 4 decimals for prices from 1 up and 8 below, without trailing zeros.
func FormatPrice(price *float64) string {
	if price == nil {
		return Placeholder
	}
	return formatPrice(*price)
}

func formatPrice(price float64) string {
	digits := 4
	if price < 1 && price > -1 {
		digits = 8
	}
	return trimZeros(strconv.FormatFloat(price, 'f', digits, 64))
}

func FormatVolume(volume *float64) string {
	if volume == nil {
		return Placeholder
	}
	return formatVolume(*volume)
}

func formatVolume(volume float64) string {
	switch {
	case volume >= 1e6:
		return strconv.FormatFloat(volume/1e6, 'f', 1, 64) + "M"
	case volume >= 1e3:
		return strconv.FormatFloat(volume/1e3, 'f', 1, 64) + "K"
	}
	return strconv.FormatFloat(volume, 'f', 0, 64)
}

// FormatChange renders a signed percent with 2 decimals.
func FormatChange(changePct *float64) string {
	if changePct == nil {
		return Placeholder
	}
	return formatChange(*changePct)
}

func formatChange(changePct float64) string {
	text := strconv.FormatFloat(changePct, 'f', 2, 64) + "%"
	if changePct >= 0 {
		return "+" + text
	}
	return text
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
