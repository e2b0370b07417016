package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (e *env) newDoctorsCmd() *cobra.Command {
	doctorsCmd := &cobra.Command{
		Use:   "doctors",
		Short: "List doctor codes known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := e.controller()
			defer ctrl.Close()

			ctrl.RefreshDoctors(cmd.Context())
			s := ctrl.Snapshot()
			if len(s.Doctors) == 0 {
				printWarning(cmd.ErrOrStderr(), "no doctors available")
				return nil
			}
			for _, d := range s.Doctors {
				fmt.Fprintln(cmd.OutOrStdout(), d.Label)
			}
			return nil
		},
	}

	doctorsCmd.AddCommand(&cobra.Command{
		Use:   "create <code>",
		Short: "Create a doctor profile",
		Long: `Create a doctor profile on the backend.

An existing code is accepted as well, so the command is safe to repeat.

Examples:
  clinote doctors create 2056`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if code == "" {
				return errors.New("doctor code is blank")
			}

			ctrl := e.controller()
			defer ctrl.Close()

			ctrl.SetDoctorInput(code)
			ctrl.CreateDoctor(cmd.Context())

			s := ctrl.Snapshot()
			if s.DoctorID == "" {
				return fmt.Errorf("could not create doctor %s", code)
			}
			printSuccess(cmd.ErrOrStderr(), "Doctor profile ready: %s", s.DoctorID)
			printStatus(cmd.ErrOrStderr(), "Samples", "%d %s", s.SampleCount, styleLabel(s.StyleEngineActive(), s.StyleLabel()))
			return nil
		},
	})

	return doctorsCmd
}
