// Package cmd contains all CLI commands for clinote.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/clinote/clinote/internal/backend"
	"github.com/clinote/clinote/internal/config"
	"github.com/clinote/clinote/internal/engine"
	"github.com/clinote/clinote/internal/logging"
)

// env is the state shared by every command of one invocation.
type env struct {
	v       *viper.Viper
	cfgFile string

	cfg config.Config
	log *zap.Logger
}

// Execute runs the command line against ctx. Errors are printed here.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		printError(root.ErrOrStderr(), "%v", err)
	}
	return err
}

// NewRootCmd builds the clinote command tree.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New(), log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "clinote",
		Short: "Client for the clinical typing engine",
		Long: `clinote drives a clinical typing-engine backend: pick a doctor, teach the
style engine with corrected reports, and turn dictations into Word drafts.

The style engine needs at least 5 samples per doctor before it takes effect.

Running 'clinote' without arguments launches the interactive TUI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = e.log.Sync()
		},
		RunE: e.runTUI,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "config file (default is $HOME/.config/clinote/config.yaml)")
	flags.String("backend", "", "typing-engine base URL (default "+backend.DefaultBaseURL+")")
	flags.String("doctor", "", "doctor code to act as")
	flags.String("out", "", "directory for downloaded documents (default ~/Downloads)")
	flags.Bool("verbose", false, "debug logging")

	e.v.BindPFlag("backend.url", flags.Lookup("backend"))
	e.v.BindPFlag("doctor", flags.Lookup("doctor"))
	e.v.BindPFlag("downloads.dir", flags.Lookup("out"))
	e.v.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(
		e.newTUICmd(),
		e.newDoctorsCmd(),
		e.newSamplesCmd(),
		e.newDraftCmd(),
		e.newRestyleCmd(),
		e.newAuditCmd(),
		e.newStatusCmd(),
		e.newInitCmd(),
	)
	return rootCmd
}

// load reads the config file and env vars, then opens the log. A missing
// --config file is only tolerated by init, which is about to create it.
func (e *env) load(cmd *cobra.Command) error {
	config.SetDefaults(e.v)

	if e.cfgFile != "" {
		e.v.SetConfigFile(e.cfgFile)
	} else if dir, err := config.GetConfigDir(); err == nil {
		e.v.AddConfigPath(dir)
		e.v.SetConfigName(strings.TrimSuffix(config.FileName, ".yaml"))
		e.v.SetConfigType("yaml")
	}

	e.v.SetEnvPrefix("CLINOTE")
	e.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	e.v.AutomaticEnv()

	if err := e.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case cmd.Name() == "init" && errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := config.FromViper(e.v)
	if err != nil {
		return err
	}
	e.cfg = cfg

	log, err := logging.New(logging.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Verbose: e.v.GetBool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	e.log = log
	e.log.Debug("config loaded",
		zap.String("backend", cfg.Backend.URL),
		zap.String("config_file", e.v.ConfigFileUsed()))
	return nil
}

func (e *env) client() *backend.Client {
	return backend.New(e.cfg.Backend.URL,
		backend.WithTimeout(e.cfg.Backend.Timeout),
		backend.WithLogger(e.log))
}

func (e *env) downloads() *engine.Downloads {
	return engine.NewDownloads(e.cfg.Downloads.Dir)
}

func (e *env) controller() *engine.Controller {
	return engine.New(e.client(),
		engine.WithLogger(e.log),
		engine.WithSaver(e.downloads()))
}

// activeDoctor selects the configured doctor, or the first listed one.
func (e *env) activeDoctor(ctx context.Context, c *engine.Controller) (string, error) {
	if e.cfg.Doctor != "" {
		c.SelectDoctor(ctx, e.cfg.Doctor)
	} else {
		c.Init(ctx)
	}
	id := c.Snapshot().DoctorID
	if id == "" {
		return "", errors.New("no doctor selected: pass --doctor or create one with 'clinote doctors create'")
	}
	return id, nil
}
