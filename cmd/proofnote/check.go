package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/backupstore"
	"github.com/xxxsen/proofnote/internal/correction"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
)

const defaultBackupDir = ".proofnote"

func newCheckCmd() *cobra.Command {
	var configPath string
	var backupDir string
	var apply bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "review a local file and optionally apply the corrected text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			pipeline, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			review, err := pipeline.Run(ctx, string(raw), correctionHooks(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printReview(out, review)
			if !apply {
				return nil
			}
			if !review.AutoApplyEnabled {
				changedColor.Fprintln(out, "automatic apply is disabled for this review, apply the suggestions manually")
				return nil
			}
			if review.Result.CorrectedText == string(raw) {
				fmt.Fprintln(out, "nothing to apply")
				return nil
			}
			coordinator := backup.NewCoordinator(backupstore.NewLocalStore(backupDir))
			res, err := coordinator.ApplyCorrection(ctx, fileWriter{}, path, string(raw), review.Result.CorrectedText)
			if err != nil {
				return err
			}
			if res.Warning != "" {
				changedColor.Fprintln(out, res.Warning)
			}
			addedColor.Fprintf(out, "applied corrections to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	cmd.Flags().StringVar(&backupDir, "backup-dir", defaultBackupDir, "directory holding pre-apply backups")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the corrected text back to the file")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var backupDir string
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "roll a file back to its pre-apply backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			coordinator := backup.NewCoordinator(backupstore.NewLocalStore(backupDir))
			if _, err := coordinator.RestoreBackup(cmd.Context(), fileWriter{}, path); err != nil {
				if errors.Is(err, appErr.ErrNoBackup) {
					return fmt.Errorf("no backup for %s", args[0])
				}
				return err
			}
			addedColor.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&backupDir, "backup-dir", defaultBackupDir, "directory holding pre-apply backups")
	return cmd
}

// fileWriter treats the note id as a file path.
type fileWriter struct{}

func (fileWriter) WriteContent(_ context.Context, path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}

func correctionHooks(cmd *cobra.Command) correction.Hooks {
	errOut := cmd.ErrOrStderr()
	return correction.Hooks{
		Progress: func(section, sections int) {
			if sections > 1 {
				noticeColor.Fprintf(errOut, "reviewing section %d/%d\n", section, sections)
			}
		},
	}
}
