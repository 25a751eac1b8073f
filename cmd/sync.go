// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/naka-gawa/contrib-tally/internal/config"
	"github.com/naka-gawa/contrib-tally/internal/gateway"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clones or updates the local repository mirrors",
	Long: `Clones any missing mirrors and fetches new commits, branches, and tags
for every repository in the manifest. Attribution runs read the mirrors
as-is, so run sync first when they may be stale.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := commandLogger(cmd)

		manifestPath, _ := cmd.Flags().GetString("manifest")

		cfg, err := config.NewLoader("contrib").Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		manifest, err := config.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		mirror := gateway.NewMirror(cfg.MirrorDir, logger)
		repos := manifest.AllRefs()

		// Mirrors are independent of each other, so sync them concurrently.
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(4)
		for _, repo := range repos {
			repo := repo
			eg.Go(func() error {
				return mirror.Sync(egCtx, repo)
			})
		}
		if err := eg.Wait(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync mirrors: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced %d repositories into %s.\n", len(repos), cfg.MirrorDir)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringP("manifest", "m", "repos.yaml", "Path to the repository manifest")
}
