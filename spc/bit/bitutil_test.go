package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0xFF, 0xC0, 0xFFC0},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 7, true},
		{0b10101010, 8, false},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestSetTo(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		cond     bool
		expected uint8
	}{
		{0b00000000, 0, true, 0b00000001},
		{0b11111111, 7, false, 0b01111111},
		{0b10101010, 1, true, 0b10101010},
		{0b10101010, 3, false, 0b10100010},
	}

	for _, tt := range tests {
		result := SetTo(tt.index, tt.value, tt.cond)
		if result != tt.expected {
			t.Errorf("SetTo(%d, %08b, %v) = %08b; want %08b", tt.index, tt.value, tt.cond, result, tt.expected)
		}
	}
}

func TestLowestSet(t *testing.T) {
	tests := []struct {
		value    int
		expected int
	}{
		{0, 0},
		{3, 1},
		{5, 1},
		{6, 2},
		{12, 4},
		{256, 256},
	}

	for _, tt := range tests {
		result := LowestSet(tt.value)
		if result != tt.expected {
			t.Errorf("LowestSet(%d) = %d; want %d", tt.value, result, tt.expected)
		}
	}
}

func TestHighLow(t *testing.T) {
	if High(0x1234) != 0x12 {
		t.Errorf("High(0x1234) = %X; want 12", High(0x1234))
	}
	if Low(0x1234) != 0x34 {
		t.Errorf("Low(0x1234) = %X; want 34", Low(0x1234))
	}
	h, l := Nibbles(0xA5)
	if h != 0x0A || l != 0x05 {
		t.Errorf("Nibbles(0xA5) = %X,%X; want A,5", h, l)
	}
}
