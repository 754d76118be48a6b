package model

import "testing"

func TestValidateProductCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"", true},
		{"AB1", true},
		{"AB123", true},
		{"AB-1", true},
		{"ab c", true},
		{"AB12", false},
		{"abcd", false},
		{"0000", false},
	}

	for _, tt := range tests {
		err := ValidateProductCode(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateProductCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
	}
}
