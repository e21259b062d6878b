package codegen

import (
	"bytes"
	"strings"
	"testing"
)

func TestFromReaderMapsBytesDeterministically(t *testing.T) {
	// Byte n maps to alphabet[n % len]. With "ABCD" the bytes 0..5 spell
	// ABCDAB.
	code, err := FromReader(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}), 6, "ABCD")
	if err != nil {
		t.Fatalf("from reader: %v", err)
	}
	if code != "ABCDAB" {
		t.Fatalf("code = %q, want ABCDAB", code)
	}
}

func TestFromReaderShortSource(t *testing.T) {
	if _, err := FromReader(bytes.NewReader([]byte{1, 2}), 8, DefaultAlphabet); err == nil {
		t.Fatal("expected error when the source runs dry")
	}
}

func TestFromReaderRejectsBadArguments(t *testing.T) {
	if _, err := FromReader(bytes.NewReader(nil), 0, DefaultAlphabet); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := FromReader(bytes.NewReader(nil), -3, DefaultAlphabet); err == nil {
		t.Fatal("expected error for negative length")
	}
	if _, err := FromReader(bytes.NewReader(nil), 8, ""); err == nil {
		t.Fatal("expected error for empty alphabet")
	}
}

func TestGenerateDrawsFromAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate(DefaultLength, DefaultAlphabet)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != DefaultLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), DefaultLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(DefaultAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestDefaultAlphabetExcludesAmbiguousSymbols(t *testing.T) {
	if len(DefaultAlphabet) != 32 {
		t.Fatalf("alphabet size = %d, want 32", len(DefaultAlphabet))
	}
	for _, banned := range "IO01" {
		if strings.ContainsRune(DefaultAlphabet, banned) {
			t.Fatalf("alphabet contains ambiguous %q", banned)
		}
	}
	seen := map[rune]bool{}
	for _, r := range DefaultAlphabet {
		if seen[r] {
			t.Fatalf("alphabet repeats %q", r)
		}
		seen[r] = true
	}
}
