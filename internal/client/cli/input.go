package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
// In tests you can replace them with stubs to avoid touching the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a password prompt to w and reads a password from the
// terminal without echo. When stdin is not a terminal the password is read
// as a plain line from reader.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(reader *bufio.Reader, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Password\n> "); err != nil {
		return nil, err
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return nil, err
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// Confirm asks a yes/no question and reports whether the answer was yes.
// Anything other than y or yes, including EOF, counts as no.
func Confirm(reader *bufio.Reader, question string, w io.Writer) (bool, error) {
	if _, err := fmt.Fprint(w, question+" [y/N]\n> "); err != nil {
		return false, err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// splitArgs splits a command line on whitespace. Single or double quotes
// group words, so file names with spaces can be passed.
func splitArgs(line string) []string {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args
}
