package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"exercisehub/internal/app"
)

type sessionOptions struct {
	*RootOptions
	Session  string
	Answeree string
	Exercise string
}

func newPresenterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "presenter",
		Short: "Show which participants submitted to each exercise of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				rows, err := a.SubmitLog.PresenterSnapshot(cmd.Context(), opts.Session)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, map[string]any{"exercises": rows})
				}
				for _, row := range rows {
					fmt.Fprintf(out, "%s\t%d\t%s\n", row.UID, len(row.Submissions), strings.Join(row.Submissions, ","))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "session id (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newViewerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Show one participant's submission history in a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				rows, err := a.SubmitLog.ViewerSnapshot(cmd.Context(), opts.Session, opts.Answeree)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, map[string]any{"exercises": rows})
				}
				for _, row := range rows {
					confidence := "-"
					if row.Confidence != nil {
						confidence = fmt.Sprint(*row.Confidence)
					}
					fmt.Fprintf(out, "%s\t%d\t%s\n", row.UID, row.SubmissionNum, confidence)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "session id (required)")
	cmd.Flags().StringVarP(&opts.Answeree, "answeree", "a", "", "participant id (required)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("answeree")

	return cmd
}

func newProgressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the distinct participants that submitted to one exercise",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				progress, err := a.SubmitLog.Progress(cmd.Context(), opts.Session, opts.Exercise)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, progress)
				}
				fmt.Fprintf(out, "%s\t%d\t%s\n", progress.UID, len(progress.Submissions), strings.Join(progress.Submissions, ","))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "session id (required)")
	cmd.Flags().StringVarP(&opts.Exercise, "exercise", "e", "", "exercise id (required)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("exercise")

	return cmd
}
