package fuzzy

import (
	"fmt"
	"io"
	"os"
	"strings"

	fzf "github.com/junegunn/fzf/src"
)

// FzfRunner defines the interface for running fzf
type FzfRunner interface {
	Run(opts *fzf.Options) (int, error)
}

// DefaultFzfRunner runs the real fzf library
type DefaultFzfRunner struct{}

// Run executes fzf with the given options
func (r *DefaultFzfRunner) Run(opts *fzf.Options) (int, error) {
	return fzf.Run(opts)
}

// FzfFinder implements fuzzy finding using the fzf library
type FzfFinder struct {
	options []Option
	prompt  string
	runner  FzfRunner
}

// NewFzf creates a new fzf-backed fuzzy finder
func NewFzf(prompt string) *FzfFinder {
	return &FzfFinder{
		prompt:  prompt,
		options: make([]Option, 0),
		runner:  &DefaultFzfRunner{},
	}
}

// NewFzfWithRunner creates a finder with a custom runner (for testing)
func NewFzfWithRunner(prompt string, runner FzfRunner) *FzfFinder {
	return &FzfFinder{
		prompt:  prompt,
		options: make([]Option, 0),
		runner:  runner,
	}
}

// SetOptions sets the available options for selection
func (f *FzfFinder) SetOptions(options []Option) error {
	if options == nil {
		return fmt.Errorf("options cannot be nil")
	}

	f.options = make([]Option, len(options))
	copy(f.options, options)
	return nil
}

// SetPrompt sets the display prompt
func (f *FzfFinder) SetPrompt(prompt string) {
	f.prompt = prompt
}

// Select starts the fuzzy selection process. fzf reads the candidate list
// from stdin, so stdin is temporarily redirected to a temp file holding the
// options and stdout is captured for the result.
func (f *FzfFinder) Select() (string, error) {
	if len(f.options) == 0 {
		return "", fmt.Errorf("no options available")
	}

	tmpFile, err := os.CreateTemp("", "fzf-options-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmpFile.Name()) // Ignore cleanup errors
	}()

	for _, option := range f.options {
		displayText := option.Value
		if option.Description != "" {
			displayText = fmt.Sprintf("%s  │  %s", option.Value, option.Description)
		}
		if _, err := fmt.Fprintln(tmpFile, displayText); err != nil {
			return "", fmt.Errorf("failed to write option to file: %w", err)
		}
	}

	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}

	args := []string{
		"--prompt=" + f.prompt + " ",
		"--height=10",
		"--layout=default",
		"--no-multi",
		"--cycle",
		"--no-mouse",
		"--no-reverse",
		"--border=none",
	}

	opts, err := fzf.ParseOptions(true, args)
	if err != nil {
		return "", fmt.Errorf("failed to parse fzf options: %w", err)
	}

	originalStdin := os.Stdin
	defer func() { os.Stdin = originalStdin }()

	input, err := os.Open(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to open temporary file for reading: %w", err)
	}
	defer func() {
		_ = input.Close() // Ignore close errors
	}()

	os.Stdin = input

	originalStdout := os.Stdout
	defer func() { os.Stdout = originalStdout }()

	r, w, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("failed to create pipe: %w", err)
	}
	defer func() {
		_ = r.Close() // Ignore close errors
	}()

	os.Stdout = w

	exitCode, err := f.runner.Run(opts)

	_ = w.Close() // Ignore close errors
	os.Stdout = originalStdout

	if err != nil {
		// Fallback to the numbered finder if fzf fails
		return f.fallbackSelect()
	}

	if exitCode != fzf.ExitOk {
		return "", fmt.Errorf("fzf selection cancelled or failed")
	}

	result, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read fzf result: %w", err)
	}

	selectedText := strings.TrimSpace(string(result))
	if selectedText == "" {
		return "", fmt.Errorf("no selection made")
	}

	// The displayed format is "value  │  description"
	parts := strings.Split(selectedText, "  │  ")
	selectedValue := strings.TrimSpace(parts[0])

	for _, option := range f.options {
		if option.Value == selectedValue {
			return option.Value, nil
		}
	}

	return selectedValue, nil
}

func (f *FzfFinder) fallbackSelect() (string, error) {
	finder := New(f.prompt)
	for _, option := range f.options {
		finder.AddOption(option.Value, option.Description)
	}
	return finder.Select()
}
