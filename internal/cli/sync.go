package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"exercisehub/internal/app"
	"exercisehub/internal/service"
)

type syncOptions struct {
	*RootOptions
	Presentation string
	Input        string
	Output       string
}

func newSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &syncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Parse a presentation document and persist its exercises",
		Long: `Assign identities to every exercise in the document, store the exercises
and write the document back with resolved settings attributes.

Examples:
  exercisectl sync --presentation p1 --in slides.html --out slides.html
  cat slides.html | exercisectl sync --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Presentation, "presentation", "p", "", "owning presentation id")
	cmd.Flags().StringVarP(&opts.Input, "in", "i", "-", "document to read, - for stdin")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "file to write the document to (default stdout)")

	return cmd
}

func runSync(opts *syncOptions, cmd *cobra.Command) error {
	var (
		src []byte
		err error
	)
	if opts.Input == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(opts.Input)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	return opts.withApp(cmd.Context(), func(a *app.App) error {
		res, err := a.Hooks.DocumentParsed(cmd.Context(), service.ParseRequest{
			HTML:           string(src),
			PresentationID: opts.Presentation,
		})
		if err != nil {
			return err
		}

		if opts.Output != "" {
			if err := os.WriteFile(opts.Output, []byte(res.HTML), 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if opts.Format == "json" {
			return writeJSON(out, res)
		}
		if opts.Output == "" {
			fmt.Fprintln(out, res.HTML)
			return nil
		}
		for _, ex := range res.Exercises {
			fmt.Fprintf(out, "%s\tcreated=%t\t%s\tattempts=%d\n", ex.ExerciseID, ex.Created, ex.Status, ex.Attempts)
		}
		return nil
	})
}
