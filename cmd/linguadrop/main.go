package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/LinguaDrop/internal/config"
	"github.com/dharsanguruparan/LinguaDrop/internal/language"
	"github.com/dharsanguruparan/LinguaDrop/internal/queue"
	"github.com/dharsanguruparan/LinguaDrop/internal/s3storage"
)

var composeFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "linguadrop: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linguadrop",
		Short: "LinguaDrop development CLI",
		Long: `LinguaDrop CLI orchestrates common development workflows such as building the Docker stack,
starting or stopping services, running tests, launching the binaries directly, and
submitting documents for background translation.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&composeFile, "compose-file", "f", "docker-compose.yml", "Compose file to use for stack commands")
	cmd.AddCommand(
		newBuildCmd(),
		newUpCmd(),
		newDownCmd(),
		newLogsCmd(),
		newTestCmd(),
		newRunCmd(),
		newSubmitCmd(),
	)
	return cmd
}

func newBuildCmd() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "build [service...]",
		Short: "Build Docker images via docker compose",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			composeArgs := []string{"compose", "-f", composeFile, "build"}
			if noCache {
				composeArgs = append(composeArgs, "--no-cache")
			}
			composeArgs = append(composeArgs, args...)
			return runCommand(ctx, "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable Docker build cache")
	return cmd
}

func newUpCmd() *cobra.Command {
	var detach bool
	var skipBuild bool
	cmd := &cobra.Command{
		Use:   "up [service...]",
		Short: "Start the full docker-compose stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			composeArgs := []string{"compose", "-f", composeFile, "up"}
			if !skipBuild {
				composeArgs = append(composeArgs, "--build")
			}
			if detach {
				composeArgs = append(composeArgs, "-d")
			}
			composeArgs = append(composeArgs, args...)
			return runCommand(ctx, "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVarP(&detach, "detached", "d", true, "Run docker compose in detached mode")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "Skip rebuilding images before starting")
	return cmd
}

func newDownCmd() *cobra.Command {
	var removeVolumes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop docker-compose stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			composeArgs := []string{"compose", "-f", composeFile, "down"}
			if removeVolumes {
				composeArgs = append(composeArgs, "-v")
			}
			return runCommand(ctx, "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVarP(&removeVolumes, "volumes", "v", false, "Remove stack volumes")
	return cmd
}

func newLogsCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs [service...]",
		Short: "Tail logs from docker-compose services",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			composeArgs := []string{"compose", "-f", composeFile, "logs"}
			if follow {
				composeArgs = append(composeArgs, "-f")
			}
			composeArgs = append(composeArgs, args...)
			return runCommand(ctx, "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream logs continuously")
	return cmd
}

func newTestCmd() *cobra.Command {
	var race bool
	var cover bool
	cmd := &cobra.Command{
		Use:   "test [packages]",
		Short: "Run Go tests (defaults to ./...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pkgs := args
			if len(pkgs) == 0 {
				pkgs = []string{"./..."}
			}
			goArgs := []string{"test"}
			if race {
				goArgs = append(goArgs, "-race")
			}
			if cover {
				goArgs = append(goArgs, "-cover")
			}
			goArgs = append(goArgs, pkgs...)
			return runCommand(ctx, "go", goArgs...)
		},
	}
	cmd.Flags().BoolVar(&race, "race", false, "Enable Go race detector")
	cmd.Flags().BoolVar(&cover, "cover", false, "Collect coverage data")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run individual Go binaries directly",
	}
	cmd.AddCommand(
		newServiceRunner("server", "./cmd/server"),
		newServiceRunner("worker", "./cmd/worker"),
	)
	return cmd
}

func newServiceRunner(name, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("go run %s", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			goArgs := []string{"run", path}
			goArgs = append(goArgs, args...)
			return runCommand(ctx, "go", goArgs...)
		},
	}
}

func newSubmitCmd() *cobra.Command {
	var owner, source, target string
	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Stage a document and enqueue a background translation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !language.ValidPair(source, target) {
				return fmt.Errorf("unsupported language pair %s -> %s", source, target)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := s3storage.New(cfg)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			if err := store.EnsureBuckets(ctx); err != nil {
				return fmt.Errorf("ensure buckets: %w", err)
			}

			filename := filepath.Base(args[0])
			stagingKey := fmt.Sprintf("staging/%s-%s", uuid.NewString(), filename)
			contentType := http.DetectContentType(data)
			if err := store.Put(ctx, cfg.UploadBucket, stagingKey, data, contentType); err != nil {
				return fmt.Errorf("stage upload: %w", err)
			}

			client := asynq.NewClient(asynq.RedisClientOpt{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()
			payload := queue.TranslatePayload{
				Owner:      owner,
				StagingKey: stagingKey,
				FileName:   filename,
				SourceLang: language.Normalize(source),
				TargetLang: language.Normalize(target),
			}
			if err := queue.EnqueueTranslate(ctx, client, payload, cfg.MaxWait); err != nil {
				return err
			}
			fmt.Printf("queued %s for %s (%s -> %s)\n", filename, owner, payload.SourceLang, payload.TargetLang)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner identity for the submission")
	cmd.Flags().StringVar(&source, "source", "", "Source language code")
	cmd.Flags().StringVar(&target, "target", "", "Target language code")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")
	return cmd
}

func runCommand(ctx context.Context, name string, args ...string) error {
	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin
	return execCmd.Run()
}
