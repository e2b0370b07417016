package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clinote/clinote/internal/backend"
	"github.com/clinote/clinote/internal/engine"
)

func (e *env) newDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draft <dictation>",
		Short: "Turn an audio dictation into draft.docx",
		Long: `Send an audio dictation to the backend and save the returned Word draft
as draft.docx in the downloads directory. An existing draft is never
overwritten: the new one becomes "draft (1).docx" and so on.

Examples:
  clinote --doctor 2056 draft visit.wav
  clinote draft visit.m4a --out ./drafts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("opening dictation: %w", err)
			}

			ctrl := e.controller()
			defer ctrl.Close()

			if _, err := e.activeDoctor(cmd.Context(), ctrl); err != nil {
				return err
			}

			ctrl.SelectDictation(args[0])
			done := make(chan struct{})
			stopped := make(chan struct{})
			go func() {
				reportProgress(cmd.ErrOrStderr(), ctrl, done)
				close(stopped)
			}()
			ctrl.Generate(cmd.Context())
			close(done)
			<-stopped

			d := ctrl.Snapshot().Dictation
			if d.Failed {
				return errors.New(d.Status)
			}
			printSuccess(cmd.ErrOrStderr(), "%s", d.Status)
			fmt.Fprintln(cmd.OutOrStdout(), d.SavedPath)
			return nil
		},
	}
}

// reportProgress echoes the cosmetic progress while a generation runs.
func reportProgress(w io.Writer, ctrl *engine.Controller, done <-chan struct{}) {
	ticker := time.NewTicker(engine.DefaultProgressInterval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := ctrl.Snapshot().Dictation.Progress
			if p != last && p > 0 {
				printStatus(w, "Transcribing", "%d%%", p)
				last = p
			}
		}
	}
}

func (e *env) newRestyleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restyle <raw.txt>",
		Short: "Rewrite a raw draft in the doctor's style",
		Long: `Send a raw draft (plain text) through the doctor's learned style and save
the styled Word document in the downloads directory.

Examples:
  clinote --doctor 2056 restyle raw_draft.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading draft: %w", err)
			}

			ctrl := e.controller()
			defer ctrl.Close()
			id, err := e.activeDoctor(cmd.Context(), ctrl)
			if err != nil {
				return err
			}

			dl, err := e.client().Restyle(cmd.Context(), id, string(raw))
			if err != nil {
				return fmt.Errorf("restyling draft: %w", err)
			}
			return e.save(cmd, dl, "styled_draft.docx")
		},
	}
}

func (e *env) newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <feedback.zip>",
		Short: "Run the MT/ED feedback audit",
		Long: `Upload a zipped feedback folder and save the audit spreadsheet in the
downloads directory.

Examples:
  clinote audit feedback.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening feedback archive: %w", err)
			}
			defer f.Close()

			dl, err := e.client().RunAudit(cmd.Context(), backend.File{Name: filepath.Base(args[0]), Body: f})
			if err != nil {
				return fmt.Errorf("running audit: %w", err)
			}
			return e.save(cmd, dl, "audit_report.xlsx")
		},
	}
}

// save writes a downloaded document, preferring the server's file name.
func (e *env) save(cmd *cobra.Command, dl *backend.Download, fallback string) error {
	name := dl.Filename
	if name == "" {
		name = fallback
	}
	path, err := e.downloads().Save(name, dl.Data)
	if err != nil {
		return err
	}
	e.log.Info("document saved",
		zap.String("path", path),
		zap.String("content_type", dl.ContentType),
		zap.Int("bytes", len(dl.Data)))
	printSuccess(cmd.ErrOrStderr(), "Saved %s", filepath.Base(path))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
