package main

import "testing"

func TestOutputPathDefaultsPerMode(t *testing.T) {
	if got := outputPath("", false); got != "output/post.png" {
		t.Fatalf("generate default: %q", got)
	}
	if got := outputPath("", true); got != "output/layout.json" {
		t.Fatalf("extract default: %q", got)
	}
	if got := outputPath("custom/result.png", true); got != "custom/result.png" {
		t.Fatalf("explicit path must win: %q", got)
	}
}
