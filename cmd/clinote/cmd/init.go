package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clinote/clinote/internal/config"
)

func (e *env) newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a clinote config file",
		Long: `Write the effective configuration (defaults, env vars and flags) to the
config file so later runs pick it up.

Examples:
  clinote init --backend http://10.0.0.5:8000 --doctor 2056`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path := e.cfgFile
			if path == "" {
				dir, err := config.EnsureConfigDir()
				if err != nil {
					return fmt.Errorf("creating config directory: %w", err)
				}
				path = filepath.Join(dir, config.FileName)
			}

			if _, err := os.Stat(path); err == nil {
				if !force {
					return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", path)
				}
				old, err := config.Load(path)
				if err != nil {
					printWarning(cmd.ErrOrStderr(), "replacing unreadable config: %v", err)
				} else {
					printStatus(cmd.ErrOrStderr(), "Replacing", "backend %s, doctor %q", old.Backend.URL, old.Doctor)
				}
			}

			if err := config.Save(path, e.cfg); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Wrote %s", path)
			printStatus(cmd.ErrOrStderr(), "Backend", "%s", e.cfg.Backend.URL)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	return initCmd
}
