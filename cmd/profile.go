package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/notion"
)

var (
	profileFocus  []string
	profileNotion bool
	profileSyncSF bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <identity-id>",
	Short: "Generate a sales profile from a prospect's research report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		identityID := args[0]

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.CreateProfile(ctx, identityID, profileFocus)
		if err != nil {
			return eris.Wrap(err, "create profile")
		}

		if profileNotion || profileSyncSF {
			ident, err := env.Store.GetIdentity(ctx, identityID)
			if err != nil {
				return eris.Wrap(err, "load identity for export")
			}
			doc, err := env.Store.ReadDocument(ctx, identityID, model.KindProfile)
			if err != nil {
				return eris.Wrap(err, "load profile for export")
			}

			// Export trouble degrades to a warning; the profile itself is
			// already persisted.
			if profileNotion {
				switch {
				case cfg.Notion.Token == "" || cfg.Notion.LeadsDB == "":
					zap.L().Warn("notion export skipped: notion.token and notion.leads_db required")
				default:
					exp := export.NewNotionExporter(notion.NewClient(cfg.Notion.Token), cfg.Notion.LeadsDB)
					pageID, err := exp.ExportProfile(ctx, ident, doc)
					if err != nil {
						zap.L().Warn("notion export failed", zap.Error(err))
					} else {
						zap.L().Info("profile exported to notion", zap.String("page_id", pageID))
					}
				}
			}

			if profileSyncSF {
				sfClient, err := initSalesforce()
				if err != nil {
					zap.L().Warn("salesforce sync skipped", zap.Error(err))
				} else if leadID, err := export.NewSalesforceSync(sfClient).SyncProfile(ctx, ident, doc); err != nil {
					zap.L().Warn("salesforce sync failed", zap.Error(err))
				} else {
					zap.L().Info("profile synced to salesforce", zap.String("lead_id", leadID))
				}
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	profileCmd.Flags().StringSliceVar(&profileFocus, "focus", nil, "focus areas to emphasize in the profile")
	profileCmd.Flags().BoolVar(&profileNotion, "notion", false, "export the profile to the Notion leads database")
	profileCmd.Flags().BoolVar(&profileSyncSF, "sync-sf", false, "upsert the profile onto the matching Salesforce lead")
	rootCmd.AddCommand(profileCmd)
}
