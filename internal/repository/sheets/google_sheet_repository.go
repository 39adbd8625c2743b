package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/wacloud/internal/config"
)

const (
	digestHeaderRange = "Digests!A1:K1"
	digestRange       = "Digests!A:K"
)

// DigestHeader names the columns of the Digests sheet. Rows passed to
// AppendDigest follow the same order.
var DigestHeader = []interface{}{
	"from", "to", "total", "sent", "delivered", "read",
	"failed", "approved", "declined", "inbound", "read_rate_pct",
}

// Repository stores delivery digests in a spreadsheet.
type Repository interface {
	AppendDigest(ctx context.Context, row []interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra options are applied after the credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	}, opts...)

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// EnsureDigestHeader writes DigestHeader into the first row of the Digests
// sheet when that row is empty. An existing header is left untouched.
func (r *GoogleSheetRepository) EnsureDigestHeader(ctx context.Context) error {
	current, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, digestHeaderRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read digest header: %w", err)
	}
	if len(current.Values) > 0 && len(current.Values[0]) > 0 {
		return nil
	}

	header := &sheetsapi.ValueRange{Values: [][]interface{}{DigestHeader}}
	_, err = r.service.Spreadsheets.Values.Update(r.spreadsheetID, digestHeaderRange, header).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write digest header: %w", err)
	}

	r.logger.Info("digest header written", zap.String("spreadsheet", r.spreadsheetID))
	return nil
}

// AppendDigest adds one digest row below the existing ones.
func (r *GoogleSheetRepository) AppendDigest(ctx context.Context, row []interface{}) error {
	if len(row) != len(DigestHeader) {
		return fmt.Errorf("digest row has %d columns, want %d", len(row), len(DigestHeader))
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, digestRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append digest row: %w", err)
	}

	r.logger.Debug("digest row appended", zap.Any("from", row[0]))
	return nil
}
