package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"movewell-assistant/internal/config"
	"movewell-assistant/models"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink appends rows to a Google spreadsheet, authenticating with a
// long-lived OAuth refresh token.
type SheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
	writeRange    string
}

func NewSheetsSink(ctx context.Context, cfg *config.Config) (*SheetsSink, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.GoogleTokenURI},
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})

	service, err := sheets.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newSheetsSink(service, cfg.SheetsSpreadsheetID, cfg.SheetsRange), nil
}

func newSheetsSink(service *sheets.Service, spreadsheetID, writeRange string) *SheetsSink {
	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Append(ctx context.Context, row models.LogRow) error {
	cells := row.Values()
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	// RAW stores cells as typed: no formula evaluation, "+65..." stays text.
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

const activitySheet = "Activity"

// ExcelSink keeps the activity log in a local .xlsx workbook, one row per
// record under a header row.
type ExcelSink struct {
	mu   sync.Mutex
	path string
}

// NewExcelSink opens path, creating the workbook with its header row when it
// does not exist yet.
func NewExcelSink(path string) (*ExcelSink, error) {
	if _, err := os.Stat(path); err == nil {
		return &ExcelSink{path: path}, nil
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(activitySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, header := range models.LogColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(activitySheet, cell, header); err != nil {
			return nil, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to create workbook: %w", err)
	}
	return &ExcelSink{path: path}, nil
}

func (s *ExcelSink) Name() string { return "xlsx" }

func (s *ExcelSink) Append(_ context.Context, row models.LogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(activitySheet)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	next := len(rows) + 1
	for col, value := range row.Values() {
		cell, err := excelize.CoordinatesToCellName(col+1, next)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(activitySheet, cell, value); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// ReadAll returns every logged row, skipping the header.
func (s *ExcelSink) ReadAll() ([]models.LogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(activitySheet)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]models.LogRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row, err := models.LogRowFromValues(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// MongoSink archives rows in the activity_logs collection.
type MongoSink struct {
	collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{collection: db.Collection(config.ActivityLogCollection)}
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Append(ctx context.Context, row models.LogRow) error {
	if _, err := s.collection.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}
