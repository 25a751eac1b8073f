// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/naka-gawa/contrib-tally/internal/config"
	"github.com/naka-gawa/contrib-tally/internal/domain"
	"github.com/naka-gawa/contrib-tally/internal/gateway"
	"github.com/naka-gawa/contrib-tally/internal/usecase"
	"github.com/spf13/cobra"
)

var attributeCmd = &cobra.Command{
	Use:   "attribute [lower] [upper]",
	Short: "Aggregates commit contributions over a release window",
	Long: `Attributes commit contributions across the configured repositories.

With no arguments, the window runs from the manifest's documented default
lower boundary to the latest point in history. One argument sets the lower
boundary; two arguments set both. Boundaries are tags, branches, or any
revision the primary project understands.`,
	// More than two version identifiers is a configuration error, rejected
	// before any repository work begins.
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := commandLogger(cmd)

		manifestPath, _ := cmd.Flags().GetString("manifest")
		ascending, _ := cmd.Flags().GetBool("ascending")
		jsonOut, _ := cmd.Flags().GetBool("json")

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

		bounds := usecase.Boundaries{}
		switch len(args) {
		case 0:
			bounds.Lower = manifest.DefaultLowerBound
		case 1:
			bounds.Lower = args[0]
		case 2:
			bounds.Lower = args[0]
			bounds.Upper = args[1]
		}

		opener, err := buildOpener(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		policy := domain.DefaultBotPolicy().WithExtraNames(cfg.ExtraBotNames...)
		attributor := usecase.NewAttributor(opener, policy, logger)

		report, err := attributor.Run(ctx, manifest.Primary.Ref(), manifest.SatelliteRefs(), bounds, ascending)
		if err != nil {
			var resErr *usecase.ResolutionError
			if errors.As(err, &resErr) {
				fmt.Fprintf(os.Stderr, "%v\n", resErr)
				fmt.Fprintln(os.Stderr, "Hint: run `contrib-tally sync` if the mirrors are stale.")
			} else {
				fmt.Fprintf(os.Stderr, "Failed to attribute contributions: %v\n", err)
			}
			os.Exit(1)
		}

		if jsonOut {
			jsonData, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
			return
		}
		renderReport(report)
	},
}

// buildOpener selects the history backend from configuration.
func buildOpener(cfg config.Config, logger *log.Logger) (gateway.Opener, error) {
	switch cfg.Backend {
	case "cli":
		return gateway.NewGitCLIOpener(cfg.MirrorDir, logger), nil
	case "native":
		return gateway.NewNativeOpener(cfg.MirrorDir, logger), nil
	case "github":
		opener, err := gateway.NewGitHubOpener(cfg.GithubToken, logger)
		if err != nil {
			return nil, err
		}
		return opener, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func renderReport(report *domain.Report) {
	for _, entry := range report.Entries {
		fmt.Printf("%6d\t%s\n", entry.Count, entry.Name)
	}
	fmt.Printf("\nExcluded %d bot commits.\n", report.BotCommits)
	fmt.Printf("Attributed %d commits to %d contributors (raw log total: %d).\n",
		report.TotalCommits, report.Contributors, report.RawCommits)
	if report.Contributors > 0 {
		fmt.Printf("Mean %.1f / median %.1f commits per contributor.\n",
			report.MeanCommits, report.MedianCommits)
	}
}

func init() {
	rootCmd.AddCommand(attributeCmd)
	attributeCmd.Flags().StringP("manifest", "m", "repos.yaml", "Path to the repository manifest")
	attributeCmd.Flags().BoolP("ascending", "a", false, "Sort contributors by ascending commit count")
	attributeCmd.Flags().Bool("json", false, "Output the report as JSON")
}
