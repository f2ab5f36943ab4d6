package textutil

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFold(t *testing.T) {
	tests := map[string]string{
		"  Jazz ":  "jazz",
		"STRASSE":  "strasse",
		"Straße":   "strasse",
		"already":  "already",
		"":         "",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"miles_davis":      "Miles Davis",
		"kind of blue":     "Kind Of Blue",
		"  spaced   out  ": "Spaced Out",
		"deadmau5":         "Deadmau5",
		"AC-DC":            "AC-DC",
		"Björk":            "Björk",
		"___":              "",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("So What (Live, 1959) - Miles")
	want := []string{"so", "what", "live", "1959", "miles"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	if tokens := Tokenize("  --  "); len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", tokens)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity(nil, NewFingerprint("jazz")); got != 0 {
		t.Fatalf("nil fingerprint similarity = %v", got)
	}
	if got := CosineSimilarity(NewFingerprint("Blue in Green"), NewFingerprint("blue IN green")); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical similarity = %v", got)
	}
	if got := CosineSimilarity(NewFingerprint("apple banana"), NewFingerprint("dog frog")); got != 0 {
		t.Fatalf("disjoint similarity = %v", got)
	}
	exact := CosineSimilarity(NewFingerprint("blue"), NewFingerprint("blue"))
	partial := CosineSimilarity(NewFingerprint("blue"), NewFingerprint("kind of blue"))
	if !(exact > partial && partial > 0) {
		t.Fatalf("expected exact (%v) > partial (%v) > 0", exact, partial)
	}
	if CosineSimilarity(NewFingerprint("a b"), NewFingerprint("b c")) != CosineSimilarity(NewFingerprint("b c"), NewFingerprint("a b")) {
		t.Fatal("similarity not symmetric")
	}
}

func TestFingerprintTokenCount(t *testing.T) {
	if NewFingerprint("") != nil {
		t.Fatal("expected nil fingerprint for empty text")
	}
	if got := NewFingerprint("la la land").TokenCount(); got != 2 {
		t.Fatalf("TokenCount = %d, want 2", got)
	}
	var nilPrint *Fingerprint
	if nilPrint.TokenCount() != 0 {
		t.Fatal("nil fingerprint should have zero tokens")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"AC/DC: Live?":     "AC-DC- Live",
		"  plain name  ":   "plain name",
		"a<b>c|d\"e*f\\g": "abcde-f-g",
		"":                 "",
		"..":               "",
		".hidden":          "hidden",
		"tab\tname":        "tabname",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := SanitizeFileName(long)
	if len(got) > maxFileNameBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxFileNameBytes)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
}
