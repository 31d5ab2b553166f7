package cmd

import "testing"

func TestToSet(t *testing.T) {
	set := toSet([]string{" Mail ", "secure", "", "MAIL"})
	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(set))
	}
	if _, ok := set["mail"]; !ok {
		t.Fatalf("expected lowercase mail entry")
	}
	if _, ok := set["secure"]; !ok {
		t.Fatalf("expected secure entry")
	}
}

func TestProviderSet(t *testing.T) {
	set := providerSet(map[string]string{
		"Gmail.com":   "gmail",
		"outlook.com": "outlook",
		" ":           "blank",
	})
	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(set))
	}
	if _, ok := set["gmail.com"]; !ok {
		t.Fatalf("expected lowercase gmail.com entry")
	}
}

func TestFormatUnix(t *testing.T) {
	if got := formatUnix("0"); got != "1970-01-01T00:00:00Z" {
		t.Fatalf("expected epoch timestamp, got %s", got)
	}
	if got := formatUnix("not-a-number"); got != "not-a-number" {
		t.Fatalf("expected passthrough for bad input, got %s", got)
	}
}
