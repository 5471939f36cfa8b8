package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"cat_0001", 0, "cat_0001"},
		{"cat_0001", -1, "cat_0001"},
		{"cat_0001", 8, "cat_0001"},
		{"cat_0001", 20, "cat_0001"},
		{"a_very_long_image_stem", 10, "a_very_..."},
		{"abcdef", 3, "abc"},
		{"日本語の画像ファイル", 5, "日本..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}
