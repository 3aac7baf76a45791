package domain

import "testing"

func TestNormalizeHumanName(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{in: "", want: ""},
		{in: "  Sarah   Johnson ", want: "Sarah Johnson"},
		{in: "\tNew\n Delhi ", want: "New Delhi"},
		{in: "Priya Patel", want: "Priya Patel"},
	}
	for _, tc := range cases {
		if got := NormalizeHumanName(tc.in); got != tc.want {
			t.Fatalf("NormalizeHumanName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeBarLicense(t *testing.T) {
	t.Parallel()

	if got := NormalizeBarLicense(" mh1234/2015 "); got != "MH1234/2015" {
		t.Fatalf("NormalizeBarLicense=%q", got)
	}
}
