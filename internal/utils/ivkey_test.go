package utils

import "testing"

func TestNormalizeHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AABBCCDD", "aabbccdd"},
		{" aa:bb:cc:dd ", "aabbccdd"},
		{"0xAA BB", "aabb"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHex(tt.in); got != tt.want {
			t.Errorf("NormalizeHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateHex(t *testing.T) {
	if err := ValidateHex("key", "00112233"); err != nil {
		t.Errorf("ValidateHex() unexpected error: %v", err)
	}
	for _, bad := range []string{"", "abc", "zz"} {
		if err := ValidateHex("key", bad); err == nil {
			t.Errorf("ValidateHex(%q) expected error", bad)
		}
	}
}

func TestSplitIVKey(t *testing.T) {
	const iv = "00112233445566778899aabbccddeeff"
	const key = "ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100"

	gotIV, gotKey, err := SplitIVKey(iv + key)
	if err != nil {
		t.Fatalf("SplitIVKey() error = %v", err)
	}
	if gotIV != iv || gotKey != key {
		t.Errorf("SplitIVKey() = %s, %s", gotIV, gotKey)
	}

	if _, _, err := SplitIVKey(iv); err == nil {
		t.Error("SplitIVKey(iv only) expected error")
	}
	if _, _, err := SplitIVKey("xyz"); err == nil {
		t.Error("SplitIVKey(non hex) expected error")
	}
}
