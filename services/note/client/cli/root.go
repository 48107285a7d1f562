// Package cli is the cobra front end of the notes client. Every command loads
// the list, applies one controller operation and prints the resulting list.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ghuser/notekeeper/services/note/client"
)

// ControllerFactory builds a Controller. Options passed by a command are
// applied after the factory's own, so they take precedence.
type ControllerFactory func(ctx context.Context, opts ...client.Option) (*client.Controller, error)

// NewRootCmd returns the notes command tree.
func NewRootCmd(newController ControllerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "notes",
		Short:         "Manage notes through the notes API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newListCmd(newController))
	root.AddCommand(newCreateCmd(newController))
	root.AddCommand(newEditCmd(newController))
	root.AddCommand(newDeleteCmd(newController))
	return root
}

// loaded builds a controller and loads the current list.
func loaded(ctx context.Context, newController ControllerFactory, opts ...client.Option) (*client.Controller, error) {
	c, err := newController(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
