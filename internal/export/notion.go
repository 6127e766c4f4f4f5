package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/enhance"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/notion"
)

// NotionExporter writes generated profiles as pages in a Notion leads
// database.
type NotionExporter struct {
	client notion.Client
	dbID   string
}

// NewNotionExporter creates an exporter targeting the given database.
func NewNotionExporter(client notion.Client, dbID string) *NotionExporter {
	return &NotionExporter{client: client, dbID: dbID}
}

// ExportProfile upserts the profile into the leads database: an existing
// page for the company is updated in place, otherwise a new page is created.
func (e *NotionExporter) ExportProfile(ctx context.Context, ident *model.ProspectIdentity, profile *model.Document) (string, error) {
	fields := enhance.ParseProfileFields(profile.Body)

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: ident.CompanyName}},
			},
		},
		"Status": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(string(ident.Status)),
		},
	}
	if ident.Domain != "" {
		props["URL"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  "https://" + ident.Domain,
		}
	}
	for _, name := range []string{"Overview", "Conversation Starter 1", "Conversation Starter 2", "Value Proposition", "Relevance Score"} {
		if v := fields[name]; v != "" {
			props[name] = notionapi.RichTextProperty{
				Type:     notionapi.PropertyTypeRichText,
				RichText: richText(v),
			}
		}
	}

	existing, err := e.findPage(ctx, ident.CompanyName)
	if err != nil {
		return "", err
	}

	if existing != "" {
		page, err := e.client.UpdatePage(ctx, existing, &notionapi.PageUpdateRequest{
			Properties: props,
		})
		if err != nil {
			return "", eris.Wrap(err, "export: update notion page")
		}
		zap.L().Info("export: profile updated in notion",
			zap.String("identity_id", ident.ID),
			zap.String("page_id", string(page.ID)),
		)
		return string(page.ID), nil
	}

	page, err := e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrap(err, "export: create notion page")
	}

	zap.L().Info("export: profile pushed to notion",
		zap.String("identity_id", ident.ID),
		zap.String("page_id", string(page.ID)),
	)
	return string(page.ID), nil
}

// findPage looks up a prior export by company name. The Name title is the
// only stable key the leads database carries.
func (e *NotionExporter) findPage(ctx context.Context, companyName string) (string, error) {
	resp, err := e.client.QueryDatabase(ctx, e.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{
				Equals: companyName,
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", eris.Wrap(err, "export: query notion leads database")
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}},
	}
}
