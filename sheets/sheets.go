// Package sheets uses a Google Sheets tab as the job work queue and status
// board.
//
// The first row is a header; rows are addressed by their sheet row number
// (the first data row is 2). A row whose "Search Status" reads "Start" asks
// for a scrape of its "Document Types" value.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Header names of the queue columns.
const (
	ColumnCounty       = "County"
	ColumnDocumentType = "Document Types"
	ColumnStatus       = "Search Status"
)

// Status values written back to the sheet.
const (
	StatusRunning  = "Running"
	StatusComplete = "Complete"
	StatusError    = "Error"
)

// Client reads and updates one sheet tab.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	sheetName     string
	statusColumn  string
	resultColumn  string
	logger        *slog.Logger
}

// New connects to the Sheets API with service-account credentials from cfg.
func New(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheets.Service, cfg config.SheetsConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		statusColumn:  cfg.StatusColumn,
		resultColumn:  cfg.ResultColumn,
		logger:        logger,
	}
	if c.sheetName == "" {
		c.sheetName = "Sheet1"
	}
	if c.statusColumn == "" {
		c.statusColumn = "C"
	}
	if c.resultColumn == "" {
		c.resultColumn = "D"
	}
	return c
}

// Rows implements jobs.WorkQueue. Every data row is returned, eligible or not.
func (c *Client) Rows(ctx context.Context) ([]models.QueueRow, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheet(c.sheetName)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}
	return parseRows(resp.Values), nil
}

// parseRows maps raw cell values to queue rows using the header row.
func parseRows(values [][]interface{}) []models.QueueRow {
	rows := make([]models.QueueRow, 0)
	if len(values) == 0 {
		return rows
	}

	index := make(map[string]int)
	for i, h := range values[0] {
		index[strings.TrimSpace(fmt.Sprint(h))] = i
	}
	cell := func(row []interface{}, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	for n, row := range values[1:] {
		rows = append(rows, models.QueueRow{
			RowRef:       strconv.Itoa(n + 2),
			County:       cell(row, ColumnCounty),
			DocumentType: cell(row, ColumnDocumentType),
			Status:       cell(row, ColumnStatus),
		})
	}
	return rows
}

// UpdateStatus writes status to the row's status column, and result to its
// result column when result is non-empty.
func (c *Client) UpdateStatus(ctx context.Context, row int, status, result string) error {
	var res *string
	if result != "" {
		res = &result
	}
	return c.write(ctx, row, status, res)
}

// MarkRunning implements jobs.StatusSink.
func (c *Client) MarkRunning(ctx context.Context, rowRef string) error {
	row, err := parseRowRef(rowRef)
	if err != nil {
		return err
	}
	return c.write(ctx, row, StatusRunning, nil)
}

// MarkComplete implements jobs.StatusSink.
func (c *Client) MarkComplete(ctx context.Context, rowRef, outputRef string) error {
	row, err := parseRowRef(rowRef)
	if err != nil {
		return err
	}
	return c.write(ctx, row, StatusComplete, &outputRef)
}

// MarkError implements jobs.StatusSink.
func (c *Client) MarkError(ctx context.Context, rowRef, message string) error {
	row, err := parseRowRef(rowRef)
	if err != nil {
		return err
	}
	return c.write(ctx, row, StatusError, &message)
}

func (c *Client) write(ctx context.Context, row int, status string, result *string) error {
	data := []*gsheets.ValueRange{{
		Range:  c.cellRange(c.statusColumn, row),
		Values: [][]interface{}{{status}},
	}}
	if result != nil {
		data = append(data, &gsheets.ValueRange{
			Range:  c.cellRange(c.resultColumn, row),
			Values: [][]interface{}{{*result}},
		})
	}

	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet row %d: %w", row, err)
	}
	c.logger.Debug("sheet row updated", "row", row, "status", status)
	return nil
}

func (c *Client) cellRange(column string, row int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(c.sheetName), column, row)
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func parseRowRef(rowRef string) (int, error) {
	row, err := strconv.Atoi(strings.TrimSpace(rowRef))
	if err != nil || row < 2 {
		return 0, fmt.Errorf("invalid sheet row %q", rowRef)
	}
	return row, nil
}
