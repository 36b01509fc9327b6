package config

import "testing"

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://api.example.com", false},
		{"http://localhost:5000/api", false},
		{"", true},
		{"ftp://example.com", true},
		{"not a url", true},
	}
	for _, tt := range tests {
		if err := validateURL(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateURL(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0", false},
		{"120", false},
		{"15", false},
		{"5", true},
		{"-1", true},
		{"soon", true},
	}
	for _, tt := range tests {
		if err := validateInterval(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateInterval(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
