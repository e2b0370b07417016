package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (e *env) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the backend and the active doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			client := e.client()

			printStatus(out, "Backend", "%s", client.BaseURL())
			if err := client.Health(ctx); err != nil {
				e.log.Warn("health check", zap.Error(err))
				return fmt.Errorf("backend unreachable: %w", err)
			}
			printSuccess(out, "backend healthy")

			ctrl := e.controller()
			defer ctrl.Close()
			id, err := e.activeDoctor(ctx, ctrl)
			if e.cfg.Doctor != "" {
				// Init already listed the doctors when none was configured.
				ctrl.RefreshDoctors(ctx)
			}
			printStatus(out, "Doctors", "%d", len(ctrl.Snapshot().Doctors))
			if err != nil {
				printWarning(out, "%v", err)
				return nil
			}
			s := ctrl.Snapshot()
			printStatus(out, "Doctor", "%s", id)
			printStatus(out, "Samples", "%d %s", s.SampleCount, styleLabel(s.StyleEngineActive(), s.StyleLabel()))

			if has, err := client.HasSamples(ctx, id); err == nil && !has {
				printWarning(out, "no style samples stored yet")
			}
			return nil
		},
	}
}
