package util

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
)

var (
	IsDebug        bool
	minQueryLength = 2
	maxQueryLength = 200

	onlySymbols = regexp.MustCompile(`^[^a-zA-Z0-9]+$`)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	debugErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF4757")).
			Padding(1, 2)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA726")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#58A6FF")).
			Bold(true)
)

// SetDebugMode sets the debug mode
func SetDebugMode(debug bool) {
	IsDebug = debug
}

// ValidateQuery checks a search query before it enters the pipeline.
func ValidateQuery(query string) error {
	cleaned := strings.Join(strings.Fields(query), " ")
	if cleaned == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if len(cleaned) < minQueryLength {
		return fmt.Errorf("search query must have at least %d characters", minQueryLength)
	}
	if len(cleaned) > maxQueryLength {
		return fmt.Errorf("search query is too long (max %d characters)", maxQueryLength)
	}
	if onlySymbols.MatchString(cleaned) {
		return fmt.Errorf("search query must contain letters or numbers")
	}
	return nil
}

// GetSearchQuery returns the query from remaining args or prompts for one.
func GetSearchQuery(args []string) (string, error) {
	if len(args) > 0 {
		query := strings.TrimSpace(strings.Join(args, " "))
		if err := ValidateQuery(query); err != nil {
			return "", err
		}
		return query, nil
	}
	return promptInput("Search")
}

// ErrorHandler returns a stylized error message for terminal display.
func ErrorHandler(err error) string {
	if IsDebug {
		styledHeader := errorStyle.Render("ERROR")
		styledError := debugErrorStyle.Render(fmt.Sprintf("%+v", err))
		return fmt.Sprintf("%s\n%s", styledHeader, styledError)
	}

	styledError := errorStyle.Render(fmt.Sprintf("✗ %v", err))
	styledHint := warningStyle.Render("run with -debug for details")
	return fmt.Sprintf("%s\n%s", styledError, styledHint)
}

// promptInput asks the user for a line of text.
func promptInput(label string) (string, error) {
	// promptui's readline integration renders garbage on some Windows
	// terminals, fall back to a plain buffered reader there.
	if runtime.GOOS == "windows" {
		return simpleInput(label)
	}

	prompt := promptui.Prompt{
		Label: promptStyle.Render(label),
	}

	query, err := prompt.Run()
	if err != nil {
		return "", err
	}
	if err := ValidateQuery(query); err != nil {
		return "", err
	}
	return strings.TrimSpace(query), nil
}

func simpleInput(label string) (string, error) {
	fmt.Print(promptStyle.Render(label + ": "))

	reader := bufio.NewReader(os.Stdin)
	query, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	query = strings.TrimSpace(query)
	if err := ValidateQuery(query); err != nil {
		return "", err
	}
	return query, nil
}
