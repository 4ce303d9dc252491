package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (r *runner) orphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Inspect and clean up multipart uploads that were never confirmed",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List journaled sessions that never reached confirmed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.ListOrphans(cmd.Context())
		},
	}

	var yes bool
	abort := &cobra.Command{
		Use:   "abort <file-id>",
		Short: "Abort the store-side session of a file and mark it aborted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.AbortOrphan(cmd.Context(), args[0], yes)
		},
	}
	abort.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	remote := &cobra.Command{
		Use:   "remote",
		Short: "List in-progress multipart uploads reported by the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.RemoteOrphans(cmd.Context())
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Forget confirmed and aborted sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.PruneSessions(cmd.Context(), olderThan)
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "only sessions last updated longer ago than this")

	cmd.AddCommand(list, abort, remote, prune)
	return cmd
}

func (a *App) ListOrphans(ctx context.Context) error {
	if err := a.openJournal(ctx); err != nil {
		return err
	}

	sessions, err := a.orphans.List(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "no orphaned sessions")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE ID\tKIND\tSTATUS\tPARTS\tKEY\tSTARTED\tLAST ERROR")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			s.FileID, s.Kind, s.Status, s.TotalParts, s.ObjectKey, s.CreatedAt.Local().Format(time.DateTime), s.LastError)
	}
	return w.Flush()
}

func (a *App) AbortOrphan(ctx context.Context, fileID string, yes bool) error {
	if err := a.openJournal(ctx); err != nil {
		return err
	}

	if !yes {
		ok, err := Confirm(a.reader, fmt.Sprintf("Abort the multipart upload of %s?", fileID), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "cancelled")
			return nil
		}
	}

	if err := a.orphans.Abort(ctx, fileID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.pal.ok.Sprint("aborted"), fileID)
	return nil
}

func (a *App) RemoteOrphans(ctx context.Context) error {
	if err := a.openJournal(ctx); err != nil {
		return err
	}

	uploads, err := a.orphans.Remote(ctx)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Fprintln(a.out, "no multipart uploads in progress")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tUPLOAD ID\tINITIATED")
	for _, u := range uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Key, u.UploadID, u.Initiated.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func (a *App) PruneSessions(ctx context.Context, olderThan time.Duration) error {
	if err := a.openJournal(ctx); err != nil {
		return err
	}

	ids, err := a.pruner.PruneSessions(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "pruned %d session(s)\n", len(ids))
	return nil
}
