package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/model"
)

var (
	getContent bool
	getKinds   []string
)

var getCmd = &cobra.Command{
	Use:   "get <identity-id>",
	Short: "Show a prospect's identity and document state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		kinds := make([]model.DocumentKind, 0, len(getKinds))
		for _, k := range getKinds {
			kinds = append(kinds, model.DocumentKind(k))
		}

		data, err := env.Service.GetProspectData(ctx, args[0], getContent, kinds)
		if err != nil {
			return eris.Wrap(err, "get prospect")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	},
}

func init() {
	getCmd.Flags().BoolVar(&getContent, "content", false, "include full document bodies")
	getCmd.Flags().StringSliceVar(&getKinds, "kind", nil, "restrict to document kinds (report, profile)")
	rootCmd.AddCommand(getCmd)
}
