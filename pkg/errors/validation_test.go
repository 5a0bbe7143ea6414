package errors

import (
	"testing"
)

func TestValidateCellName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "straight", false},
		{"valid signature", "straight_1a2b3c4d", false},
		{"valid with dash", "coh-tx", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"space", "my cell", true},
		{"slash", "lib/cell", true},
		{"backslash", "lib\\cell", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCellName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCellName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePortName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"optical", "o1", false},
		{"prefixed", "pol1_e3", false},
		{"dotted", "in.0", false},

		{"empty", "", true},
		{"comma", "mmi,o1", true},
		{"leading digit", "1o", true},
		{"space", "o 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePortName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePortName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/layout.json", false},
		{"absolute", "/tmp/layout.json", false},
		{"dots in name", "my..layout.json", false},

		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"nested traversal", "out/../../x", true},
		{"null byte", "out\x00.json", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
