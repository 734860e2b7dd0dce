package sink

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"seo-keywords/pkg/logger"
)

// GoogleSheetConfig locates a worksheet. SpreadsheetID wins over
// SpreadsheetName; an empty Worksheet selects the first tab.
type GoogleSheetConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SpreadsheetName string
	Worksheet       string
}

// GoogleSheet implements SheetWriter on the Sheets v4 API
type GoogleSheet struct {
	service       *sheets.Service
	spreadsheetID string
	sheetID       int64
	title         string
}

// OpenGoogleSheet resolves the spreadsheet (by name through Drive when no ID
// is given) and the target worksheet.
func OpenGoogleSheet(ctx context.Context, config GoogleSheetConfig) (*GoogleSheet, error) {
	if config.SpreadsheetID == "" && config.SpreadsheetName == "" {
		return nil, fmt.Errorf("spreadsheet id or name is required")
	}

	opts := []option.ClientOption{
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	id := config.SpreadsheetID
	if id == "" {
		id, err = findSpreadsheetByName(ctx, config.SpreadsheetName, opts)
		if err != nil {
			return nil, err
		}
	}

	spreadsheet, err := service.Spreadsheets.Get(id).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to load spreadsheet %s: %w", id, err)
	}

	for _, sh := range spreadsheet.Sheets {
		if sh.Properties == nil {
			continue
		}
		if config.Worksheet == "" || sh.Properties.Title == config.Worksheet {
			logger.GetLogger().WithFields(map[string]interface{}{
				"component": "sheets",
				"worksheet": sh.Properties.Title,
			}).Debug("Resolved worksheet")
			return &GoogleSheet{
				service:       service,
				spreadsheetID: id,
				sheetID:       sh.Properties.SheetId,
				title:         sh.Properties.Title,
			}, nil
		}
	}
	return nil, fmt.Errorf("worksheet %q not found in spreadsheet %s", config.Worksheet, id)
}

func findSpreadsheetByName(ctx context.Context, name string, opts []option.ClientOption) (string, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create drive service: %w", err)
	}

	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`))
	list, err := driveService.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found", name)
	}
	return list.Files[0].Id, nil
}

// a1 prefixes a range with the quoted worksheet title
func (g *GoogleSheet) a1(cells string) string {
	return "'" + strings.ReplaceAll(g.title, "'", "''") + "'!" + cells
}

func (g *GoogleSheet) IsEmpty(ctx context.Context) (bool, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, g.a1("A1:Z1")).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return len(resp.Values) == 0, nil
}

func (g *GoogleSheet) AppendRows(ctx context.Context, rows [][]interface{}) error {
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, g.a1("A1"), &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (g *GoogleSheet) FormatHeader(ctx context.Context, columns int) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          g.sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
					// zero is a valid sheet id and row/column index
					ForceSendFields: []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{Red: 0.85, Green: 0.85, Blue: 0.85},
						TextFormat:      &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		}},
	}
	_, err := g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return err
}
