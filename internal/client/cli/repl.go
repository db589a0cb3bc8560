package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the minimal surface the REPL needs. The real App satisfies
// it; tests can provide a lightweight stub.
type execIface interface {
	prompt() string
	dispatch(ctx context.Context, line string) (exit bool)
}

// runREPL starts a simple read-eval-print loop.
//
// It prints the prompt, reads a line and hands it to dispatch. The loop
// exits on EOF, when dispatch asks to stop or when ctx is done. Command
// errors are reported by dispatch itself, which keeps the loop focused on
// I/O.
func runREPL(ctx context.Context, e execIface, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprint(w, e.prompt())
		line, err := reader.ReadString('\n')

		if strings.TrimSpace(line) != "" {
			if e.dispatch(ctx, line) {
				return
			}
		}
		if err != nil {
			fmt.Fprintln(w)
			return
		}
	}
}
