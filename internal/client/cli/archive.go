package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/services"
)

func (r *runner) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Download an entity's artifacts into a zip archive",
	}

	var withMatches bool
	bundle := &cobra.Command{
		Use:   "bundle <id>",
		Short: "Archive a bundle: 3d outputs and every child image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Archive(cmd.Context(), models.EntityBundle, args[0], withMatches)
		},
	}
	bundle.Flags().BoolVar(&withMatches, "with-matches", false, "include the bundle's match artifacts")

	item := &cobra.Command{
		Use:   "item <id>",
		Short: "Archive an item and, for a parent, its children's images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Archive(cmd.Context(), models.EntityItem, args[0], false)
		},
	}

	cmd.AddCommand(bundle, item)
	return cmd
}

func (r *runner) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the archive manifest without fetching anything",
	}

	var withMatches bool
	bundle := &cobra.Command{
		Use:   "bundle <id>",
		Short: "Show the manifest of a bundle archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Plan(cmd.Context(), models.EntityBundle, args[0], withMatches)
		},
	}
	bundle.Flags().BoolVar(&withMatches, "with-matches", false, "include the bundle's match artifacts")

	item := &cobra.Command{
		Use:   "item <id>",
		Short: "Show the manifest of an item archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Plan(cmd.Context(), models.EntityItem, args[0], false)
		},
	}

	cmd.AddCommand(bundle, item)
	return cmd
}

func (a *App) plan(ctx context.Context, kind models.EntityKind, id string, withMatches bool) (*services.Plan, error) {
	if kind == models.EntityBundle {
		return a.archives.PlanBundle(ctx, id, withMatches)
	}
	return a.archives.PlanItem(ctx, id)
}

// Archive plans, fetches and writes one archive, then prints its summary.
// Missing artifacts are reported, not returned.
func (a *App) Archive(ctx context.Context, kind models.EntityKind, id string, withMatches bool) error {
	p, err := a.plan(ctx, kind, id, withMatches)
	if err != nil {
		return err
	}

	sum, err := a.archives.Assemble(ctx, p)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, sum.String())
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(a.out, a.pal.fail.Sprint("interrupted: the archive holds only what finished before cancellation"))
	}
	fmt.Fprintf(a.out, "%s %s (%d bytes)\n", a.pal.ok.Sprint("written"), sum.ArchivePath, sum.Bytes)
	return nil
}

// Plan prints the manifest of an archive job as a tree.
func (a *App) Plan(ctx context.Context, kind models.EntityKind, id string, withMatches bool) error {
	p, err := a.plan(ctx, kind, id, withMatches)
	if err != nil {
		return err
	}

	t := newManifestTree(fmt.Sprintf("%s (%d files)", p.ArchiveName, len(p.Manifest)))
	for _, e := range p.Manifest {
		t.Insert(e.ArchivePath)
	}
	fmt.Fprint(a.out, t.Render())

	if p.DiscoveryFailures > 0 {
		fmt.Fprintf(a.out, "%s discovery failed for %d listing(s); the manifest may be incomplete\n",
			a.pal.fail.Sprint("warning:"), p.DiscoveryFailures)
	}
	return nil
}
