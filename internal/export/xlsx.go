// Package export writes search results and profiles to external sinks:
// spreadsheet files, Notion pages, and Salesforce records.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospector/internal/search"
)

// xlsxHeader is the fixed column set for search exports.
var xlsxHeader = []string{
	"Company Name", "Domain", "Status", "Name Matches", "Content Matches", "Created At", "Updated At",
}

// WriteSearchXLSX writes ranked search results to an .xlsx workbook at path.
// Row order matches result order.
func WriteSearchXLSX(path string, results []search.Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Prospects")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxHeader {
		header.AddCell().SetString(col)
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Identity.CompanyName)
		row.AddCell().SetString(r.Identity.Domain)
		row.AddCell().SetString(string(r.Identity.Status))
		row.AddCell().SetString(fmt.Sprintf("%d", r.NameMatches))
		row.AddCell().SetString(fmt.Sprintf("%d", r.ContentMatches))
		row.AddCell().SetString(r.Identity.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(r.Identity.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}
