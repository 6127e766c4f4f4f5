package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/identity"
)

var researchDepth string

var researchCmd = &cobra.Command{
	Use:   "research <domain-or-company-name>",
	Short: "Research a prospect across the configured source set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		depth, err := resolveDepth(researchDepth)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Research(ctx, identity.ParseIdentifier(args[0]), depth)
		if err != nil {
			return eris.Wrap(err, "research")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchDepth, "depth", "", "research depth: basic, standard, or comprehensive (default from config)")
	rootCmd.AddCommand(researchCmd)
}
