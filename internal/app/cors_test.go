package app

import "testing"

func TestExtractOriginHost(t *testing.T) {
	cases := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "app.example.com"},
		{"http://localhost:3000", "localhost:3000"},
		{"app.example.com", "app.example.com"},
	}
	for _, tc := range cases {
		if got := extractOriginHost(tc.origin); got != tc.want {
			t.Fatalf("extractOriginHost(%q) = %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestMatchOriginPattern(t *testing.T) {
	cases := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"app.example.com", "app.example.com", true},
		{"app.example.com", "evil.example.com", false},
		{"*.example.com", "app.example.com", true},
		{"*.example.com", "example.org", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "remotehost:3000", false},
	}
	for _, tc := range cases {
		if got := matchOriginPattern(tc.pattern, tc.host); got != tc.want {
			t.Fatalf("matchOriginPattern(%q, %q) = %v, want %v", tc.pattern, tc.host, got, tc.want)
		}
	}
}
