package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/search"
)

var (
	searchName     string
	searchDomain   string
	searchStatuses []string
	searchContent  string
	searchLimit    int
	searchXLSX     string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search researched prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		q := search.Query{
			CompanyName:   searchName,
			Domain:        searchDomain,
			ContentSearch: searchContent,
			Limit:         searchLimit,
		}
		for _, s := range searchStatuses {
			q.Statuses = append(q.Statuses, model.ProspectStatus(s))
		}

		results, total, err := env.Service.SearchProspects(ctx, q)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if searchXLSX != "" {
			if err := export.WriteSearchXLSX(searchXLSX, results); err != nil {
				return eris.Wrap(err, "write xlsx")
			}
			zap.L().Info("search results written",
				zap.String("path", searchXLSX),
				zap.Int("rows", len(results)),
			)
		}

		out := struct {
			Results    []search.Result `json:"results"`
			TotalFound int             `json:"total_found"`
		}{Results: results, TotalFound: total}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchName, "name", "", "company name filter (substring)")
	searchCmd.Flags().StringVar(&searchDomain, "domain", "", "exact domain filter")
	searchCmd.Flags().StringSliceVar(&searchStatuses, "status", nil, "status filter (pending, researched, profiled, failed)")
	searchCmd.Flags().StringVar(&searchContent, "query", "", "free-text search over names and document content")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default 20, capped at 100)")
	searchCmd.Flags().StringVar(&searchXLSX, "xlsx", "", "also write the results to this .xlsx file")
	rootCmd.AddCommand(searchCmd)
}
