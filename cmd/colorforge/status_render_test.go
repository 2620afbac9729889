package main

import (
	"strings"
	"testing"
)

func TestRenderProgressBarBounds(t *testing.T) {
	cases := []struct {
		percent float64
		want    string
	}{
		{0, "0.0%"},
		{50, "50.0%"},
		{100, "100.0%"},
		{150, "100.0%"},
		{-5, "0.0%"},
	}
	for _, tc := range cases {
		got := renderProgressBar(tc.percent, false)
		if !strings.Contains(got, tc.want) {
			t.Errorf("renderProgressBar(%v) = %q, want suffix %q", tc.percent, got, tc.want)
		}
	}

	full := renderProgressBar(100, false)
	if strings.Contains(full, "░") {
		t.Errorf("full bar still has empty cells: %q", full)
	}
}

func TestRenderProgressBarColor(t *testing.T) {
	colored := renderProgressBar(50, true)
	if !strings.Contains(colored, ansiGreen) || !strings.Contains(colored, ansiReset) {
		t.Errorf("expected ANSI sequences, got %q", colored)
	}
	plain := renderProgressBar(50, false)
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("plain bar contains ANSI: %q", plain)
	}
}

func TestRenderFailureCount(t *testing.T) {
	if got := renderFailureCount(0, true); got != "0" {
		t.Errorf("zero failures should be uncolored, got %q", got)
	}
	if got := renderFailureCount(3, true); !strings.Contains(got, ansiRed) {
		t.Errorf("failures should be red, got %q", got)
	}
	if got := renderFailureCount(3, false); got != "3" {
		t.Errorf("uncolored failures = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Tasks"},
		[][]string{{"pending", "12"}, {"failed", "1"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "pending") || !strings.Contains(out, "12") {
		t.Errorf("table missing rows: %q", out)
	}
}
