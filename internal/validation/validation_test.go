package validation

import "testing"

func TestIsValidRatingUUID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2f1c7a52-4c1e-4f7d-9a55-0a3c0f6e1b11", true},
		{"", false},
		{"abc", false},
		{"2f1c7a52-4c1e-4f7d-9a55", false},
	}

	for _, tt := range tests {
		if got := IsValidRatingUUID(tt.in); got != tt.want {
			t.Errorf("IsValidRatingUUID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseOrderID(t *testing.T) {
	if id, ok := ParseOrderID("1001"); !ok || id != 1001 {
		t.Fatalf("ParseOrderID(1001) = %d, %v", id, ok)
	}
	for _, in := range []string{"", "0", "-5", "12a"} {
		if _, ok := ParseOrderID(in); ok {
			t.Errorf("ParseOrderID(%q) must fail", in)
		}
	}
}

func TestParseQueryRating(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"4", 4},
		{" 5 ", 5},
		{"0", 0},
		{"6", 0},
		{"", 0},
		{"five", 0},
	}

	for _, tt := range tests {
		if got := ParseQueryRating(tt.in); got != tt.want {
			t.Errorf("ParseQueryRating(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.c", true},
		{"", false},
		{"not-an-email", false},
		{"Name <a@b.c>", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
