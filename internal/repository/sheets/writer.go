package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/feedlot/internal/config"
)

// Writer appends journal rows to a tab of a spreadsheet.
type Writer interface {
	// EnsureHeader writes header into the first row of tab when that row is empty.
	EnsureHeader(ctx context.Context, tab string, header []interface{}) error
	AppendRow(ctx context.Context, tab string, values []interface{}) error
}

// GoogleSheetWriter implements Writer with the Google Sheets API.
type GoogleSheetWriter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetWriter authenticates with a service-account credentials file.
func NewGoogleSheetWriter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetWriter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// EnsureHeader reads row 1 of tab and writes header there if it is blank.
func (w *GoogleSheetWriter) EnsureHeader(ctx context.Context, tab string, header []interface{}) error {
	headerRange := fmt.Sprintf("%s!1:1", tab)
	current, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", tab, err)
	}
	if len(current.Values) > 0 && len(current.Values[0]) > 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{header}}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, headerRange, payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", tab, err)
	}

	w.logger.Info("sheet header created", zap.String("tab", tab), zap.Int("columns", len(header)))
	return nil
}

// AppendRow adds values below the last row of tab.
func (w *GoogleSheetWriter) AppendRow(ctx context.Context, tab string, values []interface{}) error {
	if tab == "" {
		return fmt.Errorf("tab must not be empty")
	}

	appendRange := fmt.Sprintf("%s!A:%s", tab, column(len(values)))
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := w.service.Spreadsheets.Values.Append(w.spreadsheetID, appendRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into %s: %w", appendRange, err)
	}

	w.logger.Debug("row appended to sheet", zap.String("range", appendRange))
	return nil
}

// column returns the A1 letter of the n-th column, 1-based.
func column(n int) string {
	if n < 1 {
		n = 1
	}
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
