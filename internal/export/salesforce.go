package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/enhance"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/salesforce"
)

// SalesforceSync pushes generated profiles into Salesforce Lead records,
// matching on website domain and inserting when no match exists.
type SalesforceSync struct {
	client salesforce.Client
}

// NewSalesforceSync creates a sync against the given client.
func NewSalesforceSync(client salesforce.Client) *SalesforceSync {
	return &SalesforceSync{client: client}
}

type leadRecord struct {
	Id      string `json:"Id"`
	Company string `json:"Company"`
	Website string `json:"Website"`
}

// SyncProfile upserts the profile onto a Lead. Returns the Salesforce record ID.
func (s *SalesforceSync) SyncProfile(ctx context.Context, ident *model.ProspectIdentity, profile *model.Document) (string, error) {
	fields := enhance.ParseProfileFields(profile.Body)

	record := map[string]any{
		"Company":            ident.CompanyName,
		"Description":        profile.Body,
		"Prospect_Score__c":  fields["Relevance Score"],
		"Value_Prop__c":      fields["Value Proposition"],
		"Research_Status__c": string(ident.Status),
	}
	if ident.Domain != "" {
		record["Website"] = ident.Domain
	}

	existingID, err := s.findLead(ctx, ident)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		if err := s.client.UpdateOne(ctx, "Lead", existingID, record); err != nil {
			return "", eris.Wrap(err, "export: update lead")
		}
		zap.L().Info("export: profile synced to existing lead",
			zap.String("identity_id", ident.ID), zap.String("sf_id", existingID))
		return existingID, nil
	}

	record["LastName"] = "Unknown"
	record["Status"] = "Open - Not Contacted"
	id, err := s.client.InsertOne(ctx, "Lead", record)
	if err != nil {
		return "", eris.Wrap(err, "export: insert lead")
	}
	zap.L().Info("export: profile synced to new lead",
		zap.String("identity_id", ident.ID), zap.String("sf_id", id))
	return id, nil
}

// findLead looks for an existing Lead by website, then by exact company name.
func (s *SalesforceSync) findLead(ctx context.Context, ident *model.ProspectIdentity) (string, error) {
	var result salesforce.QueryResult[leadRecord]

	if ident.Domain != "" {
		soql := fmt.Sprintf("SELECT Id, Company, Website FROM Lead WHERE Website LIKE '%%%s%%' LIMIT 1", soqlEscape(ident.Domain))
		if err := s.client.Query(ctx, soql, &result); err != nil {
			return "", eris.Wrap(err, "export: lead lookup by website")
		}
		if len(result.Records) > 0 {
			return result.Records[0].Id, nil
		}
	}

	soql := fmt.Sprintf("SELECT Id, Company, Website FROM Lead WHERE Company = '%s' LIMIT 1", soqlEscape(ident.CompanyName))
	if err := s.client.Query(ctx, soql, &result); err != nil {
		return "", eris.Wrap(err, "export: lead lookup by company")
	}
	if len(result.Records) > 0 {
		return result.Records[0].Id, nil
	}
	return "", nil
}

// soqlEscape escapes single quotes and backslashes in a SOQL string literal.
func soqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
