package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

const progressBarWidth = 30

func renderProgressBar(percent float64, colorize bool) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * progressBarWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	if colorize {
		bar = ansiGreen + bar + ansiReset
	}
	return fmt.Sprintf("[%s] %.1f%%", bar, percent)
}

func renderFailureCount(failed int, colorize bool) string {
	value := fmt.Sprintf("%d", failed)
	if failed > 0 && colorize {
		return ansiRed + value + ansiReset
	}
	return value
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
