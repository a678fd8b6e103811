package language

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{" EN-us ", "en"},
		{"zh-CN", "zh-Hans"},
		{"zh-Hans", "zh-Hans"},
		{"zh-SG", "zh-Hans"},
		{"zh-Hans-CN", "zh-Hans"},
		{"zh-TW", "zh-Hant"},
		{"zh-HK", "zh-Hant"},
		{"zh-MO", "zh-Hant"},
		{"zh-Hant-TW", "zh-Hant"},
		{"zh", "zh"},
		{"iw", "he"},
		{"pt-BR", "pt"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("en-US", "en") {
		t.Fatal("expected en-US to equal en")
	}
	if Equal("zh-TW", "zh-CN") {
		t.Fatal("expected Chinese script variants to differ")
	}
}

func TestIsChineseVariantConversion(t *testing.T) {
	tests := []struct {
		source, target string
		expected       bool
	}{
		{"zh-CN", "zh-TW", true},
		{"zh-Hant", "zh-Hans", true},
		{"zh-Hans", "zh-CN", false},
		{"en", "zh-Hans", false},
		{"zh", "zh-Hant", false},
	}
	for _, tt := range tests {
		if got := IsChineseVariantConversion(tt.source, tt.target); got != tt.expected {
			t.Errorf("IsChineseVariantConversion(%q, %q) = %v, want %v", tt.source, tt.target, got, tt.expected)
		}
	}
}

func TestIsCJK(t *testing.T) {
	for _, code := range []string{"ja", "ko", "zh-CN", "zh-Hant"} {
		if !IsCJK(code) {
			t.Errorf("expected %q to be CJK", code)
		}
	}
	for _, code := range []string{"en", "de", ""} {
		if IsCJK(code) {
			t.Errorf("expected %q not to be CJK", code)
		}
	}
}

func TestValid(t *testing.T) {
	for _, code := range []string{"en", "zh-Hans", "pt-BR"} {
		if !Valid(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}
	for _, code := range []string{"", "not a tag"} {
		if Valid(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"en-GB", "English"},
		{"zh-TW", "Traditional Chinese"},
		{"zh-CN", "Simplified Chinese"},
		{"fre", "French"},
		{"japanese", "Japanese"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"English", "en-US", "zh-TW", " ", "eng", "zh-Hant"})
	want := []string{"en", "zh-Hant"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
