package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func (e *env) newSamplesCmd() *cobra.Command {
	samplesCmd := &cobra.Command{
		Use:   "samples",
		Short: "Inspect and upload style samples",
	}

	samplesCmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Show the active doctor's sample count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := e.controller()
			defer ctrl.Close()

			id, err := e.activeDoctor(cmd.Context(), ctrl)
			if err != nil {
				return err
			}
			s := ctrl.Snapshot()
			printStatus(cmd.OutOrStdout(), "Doctor", "%s", id)
			printStatus(cmd.OutOrStdout(), "Samples", "%d %s", s.SampleCount, styleLabel(s.StyleEngineActive(), s.StyleLabel()))
			return nil
		},
	})

	samplesCmd.AddCommand(&cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload corrected reports as style samples",
		Long: `Upload corrected reports (.txt or .docx) as style samples for the active
doctor. Files are sent one at a time in the order given; the first failure
stops the batch and files already sent stay stored.

Examples:
  clinote --doctor 2056 samples upload report1.docx report2.docx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := e.controller()
			defer ctrl.Close()

			if _, err := e.activeDoctor(cmd.Context(), ctrl); err != nil {
				return err
			}
			ctrl.UploadSamples(cmd.Context(), args)

			s := ctrl.Snapshot()
			if s.Samples.Failed {
				return errors.New(s.Samples.Status)
			}
			printSuccess(cmd.ErrOrStderr(), "%s", s.Samples.Status)
			printStatus(cmd.ErrOrStderr(), "Samples", "%d %s", s.SampleCount, styleLabel(s.StyleEngineActive(), s.StyleLabel()))
			return nil
		},
	})

	return samplesCmd
}
