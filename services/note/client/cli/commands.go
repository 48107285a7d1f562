package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuser/notekeeper/services/note/client"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

func newListCmd(newController ControllerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loaded(cmd.Context(), newController)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c.Records())
		},
	}
}

func newCreateCmd(newController ControllerFactory) *cobra.Command {
	var (
		name, description, image string
		optimistic               bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note, optionally with an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var opts []client.Option
			if optimistic {
				opts = append(opts, client.WithStrategy(client.StrategyOptimistic))
			}
			c, err := loaded(ctx, newController, opts...)
			if err != nil {
				return err
			}

			c.SetField(client.FieldName, name)
			c.SetField(client.FieldDescription, description)
			if image == "" {
				if err := c.Create(ctx); err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), c.Records())
			}

			f, err := os.Open(image)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat image: %w", err)
			}

			done, createErr := c.CreateWithAsset(ctx, client.Asset{Name: f.Name(), Body: f, Size: st.Size()})
			// A started upload is awaited even when createErr is set: the
			// refresh after a successful create can fail while the upload
			// still runs, and exiting would abort it.
			uploadErr, started := <-done
			if started && uploadErr == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s\n", client.AssetKey(f.Name()))
			}
			if err := errors.Join(createErr, uploadErr); err != nil {
				return err
			}
			if started {
				// The list was loaded before the object existed.
				if err := c.Load(ctx); err != nil {
					return err
				}
			}
			return printRecords(cmd.OutOrStdout(), c.Records())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "note name (required)")
	cmd.Flags().StringVar(&description, "description", "", "note description (required)")
	cmd.Flags().StringVar(&image, "image", "", "path of an image to upload with the note")
	cmd.Flags().BoolVar(&optimistic, "optimistic", false, "show the note before the server confirms it")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newEditCmd(newController ControllerFactory) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name or description of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loaded(ctx, newController)
			if err != nil {
				return err
			}

			rec, ok := findRecord(c.Records(), args[0])
			if !ok {
				return fmt.Errorf("edit %s: %w", args[0], notedomain.ErrNoteNotFound)
			}
			c.BeginEdit(rec)
			if cmd.Flags().Changed("name") {
				c.SetField(client.FieldName, name)
			}
			if cmd.Flags().Changed("description") {
				c.SetField(client.FieldDescription, description)
			}
			if err := c.Update(ctx); err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c.Records())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newDeleteCmd(newController ControllerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note without confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loaded(ctx, newController)
			if err != nil {
				return err
			}
			if err := c.Remove(ctx, args[0]); err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c.Records())
		},
	}
}

func findRecord(recs []client.Record, id string) (client.Record, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return client.Record{}, false
}
