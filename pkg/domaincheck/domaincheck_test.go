package domaincheck

import (
	"context"
	"testing"
)

type stubChecker struct {
	byDomain map[string]Status
}

func (s stubChecker) Check(_ context.Context, domain string) Status {
	if status, ok := s.byDomain[domain]; ok {
		return status
	}
	return StatusTaken
}

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Keeps Co", "keepsco"},
		{"  Vita-Max! ", "vitamax"},
		{"Brand 42", "brand42"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCheckTLDsDefaults(t *testing.T) {
	t.Parallel()

	checker := stubChecker{byDomain: map[string]Status{
		"keepsco.com": StatusAvailable,
		"keepsco.net": StatusLikelyAvailable,
	}}

	statuses := CheckTLDs(context.Background(), checker, "Keeps Co", nil)
	if len(statuses) != len(DefaultTLDs) {
		t.Fatalf("checked %d domains, want %d", len(statuses), len(DefaultTLDs))
	}
	if statuses["keepsco.com"] != StatusAvailable {
		t.Fatalf("keepsco.com = %s", statuses["keepsco.com"])
	}
	if statuses["keepsco.org"] != StatusTaken {
		t.Fatalf("keepsco.org = %s", statuses["keepsco.org"])
	}
}
