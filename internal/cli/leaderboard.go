package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"cogniquiz-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewLeaderboardCmd groups the leaderboard maintenance commands.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Inspect or manage stored scores",
	}
	cmd.AddCommand(newLeaderboardListCmd(configPath))
	cmd.AddCommand(newLeaderboardClearCmd(configPath))
	cmd.AddCommand(newLeaderboardExportCmd(configPath))
	return cmd
}

func newLeaderboardListCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.service.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return writeTable(cmd.OutOrStdout(), records, rt.service.Categories(cmd.Context()))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "show at most this many records (0 for all)")
	return cmd
}

func newLeaderboardClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored score",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.service.ClearLeaderboard(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
			return nil
		},
	}
}

func newLeaderboardExportCmd(configPath *string) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leaderboard as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.service.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			return exportRecords(out, records, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func exportRecords(w io.Writer, records []domain.ScoreRecord, format string) error {
	if records == nil {
		records = []domain.ScoreRecord{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeTable(w io.Writer, records []domain.ScoreRecord, catalog []domain.Category) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No scores yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tCORRECT\tDIFFICULTY\tCATEGORY\tPLAYED")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%d\t%d/%d\t%s\t%s\t%s\n",
			i+1, r.Score, r.TotalCorrect, r.TotalQuestions,
			r.Difficulty.DisplayName(), domain.CategoryName(r.Category, catalog),
			r.Timestamp.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
