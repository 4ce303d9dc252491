package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/services"
)

func (r *runner) uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload local images or clips",
	}

	var parent string
	item := &cobra.Command{
		Use:   "item <file|dir>...",
		Short: "Upload images as items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Upload(cmd.Context(), models.EntityItem, parent, args)
		},
	}
	item.Flags().StringVar(&parent, "parent", "", "attach the uploaded items as children of this item")

	clip := &cobra.Command{
		Use:   "clip <file|dir>...",
		Short: "Upload video clips",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Upload(cmd.Context(), models.EntityClip, "", args)
		},
	}

	cmd.AddCommand(item, clip)
	return cmd
}

// Upload sends every input file through the upload protocol and prints one
// badge per state change. It fails when at least one file failed.
func (a *App) Upload(ctx context.Context, kind models.EntityKind, parentID string, inputs []string) error {
	files, err := expandInputs(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to upload in %s", strings.Join(inputs, ", "))
	}

	if err := a.openJournal(ctx); err != nil {
		return err
	}

	reqs := make([]services.UploadRequest, len(files))
	for i, f := range files {
		reqs[i] = services.UploadRequest{Path: f, Kind: kind, ParentID: parentID}
	}

	a.setProgress(a.printTransition)
	defer a.setProgress(nil)

	results := a.uploads.UploadBatch(ctx, reqs)

	failed := 0
	for _, u := range results {
		if u.Status != models.StateSuccess {
			failed++
		}
	}
	fmt.Fprintf(a.out, "%d uploaded, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

func (a *App) printTransition(u models.UploadIntent) {
	if u.Status == models.StatePending {
		return
	}

	line := a.pal.badge(u.Status) + " " + filepath.Base(u.LocalPath)
	switch u.Status {
	case models.StateUploading:
		if n := len(u.PartURLs); n > 1 {
			line += fmt.Sprintf(" (%d parts)", n)
		}
	case models.StateSuccess:
		line += " " + a.pal.idle.Sprint(u.FileID)
	case models.StateError:
		line += ": " + u.Err
	}
	fmt.Fprintln(a.out, line)
}

// expandInputs replaces every directory with the regular, non-hidden files
// directly inside it. Paths that cannot be inspected are kept so the upload
// reports them as failed files.
func expandInputs(inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil || !fi.IsDir() {
			out = append(out, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", in, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			out = append(out, filepath.Join(in, e.Name()))
		}
	}
	return out, nil
}
