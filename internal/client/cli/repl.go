package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// execFunc runs one tokenized command line.
type execFunc func(ctx context.Context, args []string) error

// runREPL reads lines from reader, splits them on whitespace and hands them
// to exec until EOF, "exit" or "quit", or until ctx is done. Command errors
// are reported by exec itself and never stop the loop.
func runREPL(ctx context.Context, exec execFunc, prompt string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprint(w, prompt)

		line, err := reader.ReadString('\n')
		if fields := strings.Fields(line); len(fields) > 0 {
			switch fields[0] {
			case "exit", "quit":
				fmt.Fprintln(w, "Bye!")
				return
			default:
				_ = exec(ctx, fields)
			}
		}

		if err != nil {
			fmt.Fprintln(w)
			return
		}
	}
}

func (r *runner) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run rk commands interactively",
		Long: "Run rk commands interactively. Global flags given to the shell apply to\n" +
			"every command; per-line global flags are ignored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.inShell {
				return errors.New("already in the shell")
			}
			r.inShell = true
			defer func() { r.inShell = false }()

			fmt.Fprintln(r.out, "reconkeeper shell (type 'help' for commands, 'exit' to leave)")
			runREPL(cmd.Context(), r.execLine, "rk> ", r.app.reader, r.out)
			return nil
		},
	}
}

func (r *runner) execLine(ctx context.Context, args []string) error {
	c := r.root()
	c.SetArgs(args)
	return c.ExecuteContext(ctx)
}
