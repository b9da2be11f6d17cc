package util

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#58A6FF")).
			Bold(true).
			Underline(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3FB9A2")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#79C0FF")).
			Italic(true)

	exampleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Italic(true)
)

// Helper prints the help message
func Helper() {
	title := titleStyle.Render("Nautilus — search and play movies/TV from the terminal")

	usage := helpStyle.Render("Usage:")
	usageExamples := []string{
		"  nautilus",
		"  nautilus " + optionStyle.Render("[options]") + " " + exampleStyle.Render("[query]"),
	}

	options := helpStyle.Render("Options:")
	optionsList := []string{
		"  " + optionStyle.Render("-c, -continue") + "   resume from watch history",
		"  " + optionStyle.Render("-d, -download") + "   download instead of playing",
		"  " + optionStyle.Render("-l, -link") + "       print the stream URL only (e.g. for VLC)",
		"  " + optionStyle.Render("-j, -json") + "       print the decrypt JSON and exit",
		"  " + optionStyle.Render("-p, -provider") + "   streaming provider (default from config, e.g. Vidcloud)",
		"  " + optionStyle.Render("-q, -quality") + "    quality, e.g. 1080 or 720",
		"  " + optionStyle.Render("-n, -no-subs") + "    disable subtitles",
		"  " + optionStyle.Render("-e, -edit") + "       open the config file in $EDITOR",
		"  " + optionStyle.Render("-debug") + "          enable debug logging",
		"  " + optionStyle.Render("-version") + "        show version information",
		"  " + optionStyle.Render("-h, -help") + "       show this help message",
	}

	examples := helpStyle.Render("Examples:")
	exampleList := []string{
		"  nautilus " + exampleStyle.Render("\"breaking bad\""),
		"  nautilus -p UpCloud -q 720 " + exampleStyle.Render("interstellar"),
		"  nautilus -c",
	}

	fmt.Println(title)
	fmt.Println()
	fmt.Println(usage)
	for _, line := range usageExamples {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println(options)
	for _, line := range optionsList {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println(examples)
	for _, line := range exampleList {
		fmt.Println(line)
	}
	fmt.Println()
}
