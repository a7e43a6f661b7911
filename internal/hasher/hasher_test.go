package hasher

import "testing"

func TestContentHashLength(t *testing.T) {
	if got := ContentHash([]byte("header"), 0); len(got) != 16 {
		t.Errorf("full hash: got %q", got)
	}
	if got := ContentHash([]byte("header"), 8); len(got) != 8 {
		t.Errorf("truncated hash: got %q", got)
	}
	if got := ContentHash(nil, 99); len(got) != 16 {
		t.Errorf("oversized hexLen: got %q", got)
	}
}

func TestStringHashMatchesContentHash(t *testing.T) {
	s := "https://example.com/photos/"
	if StringHash(s, 12) != ContentHash([]byte(s), 12) {
		t.Error("string and byte hashes differ")
	}
}

func TestContentHashKnownValue(t *testing.T) {
	// xxhash64 of the empty input.
	if got := ContentHash(nil, 0); got != "ef46db3751d8e999" {
		t.Errorf("empty: got %s", got)
	}
}
