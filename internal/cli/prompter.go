package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoInput is returned when the input ends before an answer was given.
var ErrNoInput = errors.New("no input")

// Prompter asks the user questions on a terminal.
type Prompter struct {
	reader *lineReader
	writer io.Writer
}

// NewPrompter creates a prompter. Nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{reader: newLineReader(reader), writer: writer}
}

// Confirm asks a yes/no question. An empty answer picks defaultYes.
func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" "+hint)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}
		answer, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes", "j", "ja":
			return true, nil
		case "n", "no", "nein":
			return false, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning("Please answer y or n.")); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}
	}
}

// ChooseHeader asks which column holds field. It returns "" when the user
// skips the field.
func (p *Prompter) ChooseHeader(ctx context.Context, field string, headers []string) (string, error) {
	var b strings.Builder
	b.WriteString(BoldStyle.Render("Which column contains "+field+"?") + "\n")
	for i, h := range headers {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, h)
	}
	b.WriteString(SubtleStyle.Render("  Enter a number or a column name, empty to skip.") + "\n")
	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Column")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
		answer, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if answer == "" {
			return "", nil
		}

		if h, ok := ResolveHeader(answer, headers); ok {
			return h, nil
		}

		msg := fmt.Sprintf("No column %q.", answer)
		if hint := DidYouMean(answer, headers); hint != "" {
			msg += " " + hint
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning(msg)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
	}
}

// ResolveHeader reads a column answer: a 1-based number or a header name,
// ignoring case.
func ResolveHeader(answer string, headers []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(headers) {
		return headers[n-1], true
	}
	for _, h := range headers {
		if strings.EqualFold(h, answer) {
			return h, true
		}
	}
	return "", false
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrNoInput
	}
	return line, err
}
