package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/reconkeeper/internal/client/config"
)

// annotationOffline marks commands that never touch the network or the
// journal; no App is built for them.
const annotationOffline = "offline"

type runner struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app     *App
	owned   bool
	inShell bool
}

// Execute runs rk with args and releases whatever the command opened.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	r := &runner{in: in, out: out, errOut: errOut}

	cmd := r.root()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)

	if r.owned {
		err = errors.Join(err, r.app.Close(context.WithoutCancel(ctx)))
	}
	return err
}

func (r *runner) root() *cobra.Command {
	def := &config.Config{}
	def.LoadDefaults()

	cmd := &cobra.Command{
		Use:          "rk",
		Short:        "Upload media to and pull archives from a reconstruction backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if r.app != nil || cmd.Annotations[annotationOffline] != "" {
				return nil
			}

			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			app, err := NewApp(cmd.Context(), cfg, r.in, r.out, r.errOut)
			if err != nil {
				return err
			}
			r.app = app
			r.owned = true
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags(), def)
	cmd.SetIn(r.in)
	cmd.SetOut(r.out)
	cmd.SetErr(r.errOut)

	cmd.AddCommand(
		r.uploadCmd(),
		r.archiveCmd(),
		r.planCmd(),
		r.keysCmd(),
		r.orphansCmd(),
		r.shellCmd(),
	)
	return cmd
}
