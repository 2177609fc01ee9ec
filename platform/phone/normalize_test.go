package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input  string
		region string
		want   string
	}{
		{"", "US", ""},
		{"   ", "US", ""},
		{"not a number", "US", "not a number"},
		{"+31 6 12345678", "US", "+31612345678"},
		{"06 12345678", "NL", "+31612345678"},
	}

	for _, tc := range cases {
		got := NormalizeE164(tc.input, tc.region)
		if got != tc.want {
			t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
		}
	}
}
