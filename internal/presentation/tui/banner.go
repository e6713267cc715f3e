package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner writes the interactive CLI greeting.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	lines := []termenv.Style{
		termenv.String("  ____                           ____        _   ").Foreground(p.Color("#818cf8")),
		termenv.String(" |  _ \\ _ __ ___  _ __ ___   ___ | __ )  ___ | |_ ").Foreground(p.Color("#a78bfa")),
		termenv.String(" | |_) | '__/ _ \\| '_ ` _ \\ / _ \\|  _ \\ / _ \\| __|").Foreground(p.Color("#c084fc")),
		termenv.String(" |  __/| | | (_) | | | | | | (_) | |_) | (_) | |_ ").Foreground(p.Color("#e879f9")),
		termenv.String(" |_|   |_|  \\___/|_| |_| |_|\\___/|____/ \\___/ \\__|").Foreground(p.Color("#f472b6")),
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println(line)
	}
	if version != "" {
		fmt.Println(termenv.String("  v" + version).Foreground(p.Color("#94a3b8")).Faint())
	}
	fmt.Println()
}
