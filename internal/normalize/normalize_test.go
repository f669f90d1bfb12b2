package normalize

import "testing"

func TestToken(t *testing.T) {
	cases := map[string]string{
		"  Hello  ":    "hello",
		"MixedCase":    "mixedcase",
		"​zwsp":   "zwsp",
		"bom﻿":    "bom",
		"":              "",
	}
	for in, want := range cases {
		if got := Token(in); got != want {
			t.Errorf("Token(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words("Beach_Party-Mix.final.MP4")
	want := []string{"beach", "party", "mix", "final", "mp4"}
	if len(got) != len(want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Words()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMatchScore(t *testing.T) {
	score := MatchScore("Sunset_Beach_Clip.mp4", []string{"beach", "storm"})
	if score != 1 {
		t.Errorf("MatchScore() = %d, want 1", score)
	}

	if MatchScore("clip.mp4", nil) != 0 {
		t.Error("MatchScore() with no keywords should be 0")
	}
}
