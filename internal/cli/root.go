// Package cli implements exercisectl, an operator tool that runs the
// synchronizer and the session projections directly against the store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"exercisehub/internal/app"
	"exercisehub/internal/config"
)

// Opener connects the application stores
type Opener func(ctx context.Context) (*app.App, error)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Format string // "json" | "text"
	open   Opener
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command, configured from the environment
func NewRootCommand() *cobra.Command {
	return newRootCommand(func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return app.Open(ctx, cfg)
	})
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "exercisectl",
		Short: "Inspect and synchronize exercises",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newPresenterCommand(opts))
	cmd.AddCommand(newViewerCommand(opts))
	cmd.AddCommand(newProgressCommand(opts))

	return cmd
}

// withApp opens the stores for the duration of fn
func (o *RootOptions) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer a.Close(ctx)
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
