package main

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/shopboard/internal/bootstrap"
	"github.com/creamcroissant/shopboard/internal/job"
	"github.com/creamcroissant/shopboard/internal/migrations"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

func init() {
	// Migrate
	var migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Database migration management",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenDatabase(cfg.DB, false)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Printf("Using DB path: %s\n", cfg.DB.Path)

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			switch action {
			case "down":
				return migrations.Down(db)
			case "status":
				return migrations.Status(db)
			default:
				return migrations.Up(db)
			}
		},
	}
	rootCmd.AddCommand(migrateCmd)

	// Backup
	var backupOutput string
	var backupCompress bool
	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			target := backupOutput
			if target == "" {
				backupDir := filepath.Join(filepath.Dir(cfg.DB.Path), "backups")
				if err := os.MkdirAll(backupDir, 0o755); err != nil {
					return fmt.Errorf("create backup dir: %w", err)
				}
				ext := ".db"
				if backupCompress {
					ext += ".gz"
				}
				target = filepath.Join(backupDir, fmt.Sprintf("shopboard_%s%s", time.Now().Format("20060102_150405"), ext))
			}

			db, err := bootstrap.OpenDatabase(cfg.DB, false)
			if err != nil {
				return err
			}
			defer db.Close()

			tempFile := target
			if backupCompress {
				tempFile = strings.TrimSuffix(target, ".gz")
				if tempFile == target {
					tempFile = target + ".tmp"
				}
			}
			if _, err := db.Exec("VACUUM INTO ?", tempFile); err != nil {
				return fmt.Errorf("sqlite vacuum into: %w", err)
			}
			if backupCompress {
				err := compressFile(tempFile, target)
				os.Remove(tempFile)
				if err != nil {
					return err
				}
			}

			fmt.Printf("Backup created at %s\n", target)
			return nil
		},
	}
	backupCmd.Flags().StringVar(&backupOutput, "output", "", "Output file path")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", false, "Compress output with gzip")
	rootCmd.AddCommand(backupCmd)

	// Job
	var jobCmd = &cobra.Command{
		Use:   "job",
		Short: "Background job management",
	}
	jobCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "Name\tSchedule")
			for _, entry := range app.Scheduler.Entries() {
				fmt.Fprintf(w, "%s\t%s\n", entry.Name, entry.Spec)
			}
			return w.Flush()
		},
	})
	jobCmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run a job once, now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			name := args[0]
			fmt.Printf("Running job %s...\n", name)
			if err := app.Scheduler.RunNow(cmd.Context(), name); err != nil {
				return fmt.Errorf("job run failed: %w", err)
			}
			// 通知在进程内排队，退出前顺带投递
			if name != "notify.email" {
				if err := app.Scheduler.RunNow(cmd.Context(), "notify.email"); err != nil && !errors.Is(err, job.ErrUnknownJob) {
					return fmt.Errorf("flush notifications: %w", err)
				}
			}
			fmt.Println("Job completed successfully.")
			return nil
		},
	})
	rootCmd.AddCommand(jobCmd)

	// Version
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Shopboard %s\n", Version)
			fmt.Printf("Commit: %s\n", Commit)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	})
}

// openApp 为一次性 CLI 命令装配应用，日志只输出警告以上。
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(logging.Options{Level: slog.LevelWarn, Format: "text", Output: os.Stderr})
	return bootstrap.NewApp(ctx, cfg, logger, buildInfo())
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}
