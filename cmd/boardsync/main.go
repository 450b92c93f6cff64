package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/nhaumann/boardsync/internal/config"
	"github.com/nhaumann/boardsync/internal/db"
	"github.com/nhaumann/boardsync/internal/logging"
	"github.com/nhaumann/boardsync/internal/service"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "boardsync",
		Short: "Stage LED matrix assets onto the board's CIRCUITPY volume",
	}

	var debug bool
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	var force bool
	var skipAuth bool
	var watch bool
	var deployCmd = &cobra.Command{
		Use:   "deploy",
		Short: "Sync assets, spritesheets and config to the board",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDebug(debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			srv := newService()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Deploy(ctx, service.DeployOptions{Force: force, SkipAuth: skipAuth}); err != nil {
				logging.Fatalf("Deploy failed: %s", err)
			}
			if watch {
				if err := srv.Watch(ctx); err != nil {
					logging.Fatalf("Watch failed: %s", err)
				}
			}
		},
	}
	deployCmd.Flags().BoolVarP(&force, "force", "f", false, "Copy everything regardless of changes")
	deployCmd.Flags().BoolVar(&skipAuth, "skip-auth", false, "Skip the Spotify credential refresh")
	deployCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep watching the source tree and redeploy on change")

	var spritesForce bool
	var spritesCmd = &cobra.Command{
		Use:   "sprites",
		Short: "Regenerate and sync the BMP spritesheets only",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDebug(debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := newService().Sprites(spritesForce); err != nil {
				logging.Fatalf("Spritesheet pipeline failed: %s", err)
			}
		},
	}
	spritesCmd.Flags().BoolVarP(&spritesForce, "force", "f", false, "Regenerate all spritesheets")

	var authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Refresh Spotify credentials in the device config",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDebug(debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := newService().RefreshAuth(context.Background()); err != nil {
				logging.Fatalf("Authentication failed: %s", err)
			}
			fmt.Println("Authentication successful.")
		},
	}

	var historyLimit int
	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recent deployments",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDebug(debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			showHistory(historyLimit)
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of deployments to show")

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the boardsync config interactively",
		PreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDebug(debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := config.GetInteractive(); err != nil {
				logging.Fatalf("Could not initialize config: %s", err)
			}
		},
	}

	rootCmd.AddCommand(deployCmd, spritesCmd, authCmd, historyCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newService() *service.Service {
	cfg, err := config.Get()
	if err != nil {
		logging.Fatalf("Could not load config: %s", err)
	}
	return service.New(cfg)
}

func showHistory(limit int) {
	ctx := context.Background()
	d, err := db.New(ctx)
	if err != nil {
		logging.Fatalf("Could not open journal: %s", err)
	}
	defer func() { _ = d.Close() }()

	deps, err := d.RecentDeployments(ctx, limit)
	if err != nil {
		logging.Fatalf("Could not read journal: %s", err)
	}
	if len(deps) == 0 {
		fmt.Println("No deployments recorded yet.")
		return
	}
	for _, dep := range deps {
		fmt.Printf("%s  %-6s  %3d copied  %3d deleted  %8s  %.1fs\n",
			dep.StartedAt.Format("2006-01-02 15:04:05"),
			dep.Status,
			dep.FilesCopied,
			dep.FilesDeleted,
			humanize.Bytes(uint64(dep.BytesCopied)),
			dep.FinishedAt.Sub(dep.StartedAt).Seconds(),
		)
	}
}
