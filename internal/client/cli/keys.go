package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
	"github.com/dmitrijs2005/reconkeeper/internal/client/paths"
)

func (r *runner) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "keys",
		Short:       "Print every object-store key of an entity",
		Annotations: map[string]string{annotationOffline: "true"},
	}

	var d paths.Descriptor

	item := &cobra.Command{
		Use:         "item <id>",
		Short:       "Keys of an item",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d.ID = args[0]
			return printKeys(cmd.OutOrStdout(), models.EntityItem, d)
		},
	}
	item.Flags().StringVar(&d.ParentID, "parent", "", "parent item id of a child item")
	item.Flags().StringVar(&d.Extension, "ext", "", "recorded image extension")

	bundle := &cobra.Command{
		Use:         "bundle <id>",
		Short:       "Keys of a bundle",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d.ID = args[0]
			return printKeys(cmd.OutOrStdout(), models.EntityBundle, d)
		},
	}
	bundle.Flags().StringSliceVar(&d.ItemIDs, "item", nil, "parent item id (repeatable)")
	bundle.Flags().StringSliceVar(&d.Textures, "texture", nil, "registered texture filename (repeatable)")

	clip := &cobra.Command{
		Use:         "clip <id>",
		Short:       "Key of a clip",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d.ID = args[0]
			return printKeys(cmd.OutOrStdout(), models.EntityClip, d)
		},
	}
	clip.Flags().StringVar(&d.Extension, "ext", "", "recorded clip extension")

	match := &cobra.Command{
		Use:         "match <id>",
		Short:       "Keys of a match",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d.ID = args[0]
			return printKeys(cmd.OutOrStdout(), models.EntityMatch, d)
		},
	}

	cmd.AddCommand(item, bundle, clip, match)
	return cmd
}

func printKeys(w io.Writer, kind models.EntityKind, d paths.Descriptor) error {
	keys, err := paths.Resolve(kind, d)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}
