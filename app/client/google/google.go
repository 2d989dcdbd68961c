package google

import (
	"assistbot/app/config"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/do"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const maxDownloadSize = 20 << 20

var ErrDisabled = errors.New("google access is not configured")

type File struct {
	ID       string
	Name     string
	MimeType string
}

func (f File) IsFolder() bool {
	return f.MimeType == "application/vnd.google-apps.folder"
}

func (f File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// IsDocument reports a native Google Doc, which has to be exported.
func (f File) IsDocument() bool {
	return f.MimeType == "application/vnd.google-apps.document"
}

func (f File) IsText() bool {
	return f.IsDocument() || strings.HasPrefix(f.MimeType, "text/")
}

// Client wraps the Sheets and Drive APIs behind one service account.
type Client struct {
	sheets *sheets.Service
	drive  *drive.Service
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	if !needsGoogle(cfg) {
		slog.Info("Google access disabled")
		return &Client{}, nil
	}

	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.Google.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		sheets: sheetsSvc,
		drive:  driveSvc,
	}, nil
}

func needsGoogle(cfg *config.Config) bool {
	return cfg.Catalog.SheetURL != "" ||
		cfg.Prompt.DocURL != "" ||
		cfg.Orders.Backend == "sheets" ||
		cfg.Examples.BestLocator != ""
}

// ReadSheet returns every row of the first sheet as strings.
func (c *Client) ReadSheet(ctx context.Context, sheetURL string) ([][]string, error) {
	if c.sheets == nil {
		return nil, ErrDisabled
	}

	id, err := SpreadsheetID(sheetURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.sheets.Spreadsheets.Values.Get(id, "A:Z").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (c *Client) AppendRow(ctx context.Context, sheetURL string, row []string) error {
	if c.sheets == nil {
		return ErrDisabled
	}

	id, err := SpreadsheetID(sheetURL)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err = c.sheets.Spreadsheets.Values.
		Append(id, "A1", &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

// ExportDoc downloads a Google Doc as plain text.
func (c *Client) ExportDoc(ctx context.Context, docURL string) (string, error) {
	id, err := DocumentID(docURL)
	if err != nil {
		return "", err
	}

	return c.ExportText(ctx, id)
}

func (c *Client) ExportText(ctx context.Context, fileID string) (string, error) {
	if c.drive == nil {
		return "", ErrDisabled
	}

	resp, err := c.drive.Files.Export(fileID, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("failed to export document: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return "", fmt.Errorf("failed to read exported document: %w", err)
	}

	return strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), nil
}

func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	if c.drive == nil {
		return File{}, ErrDisabled
	}

	f, err := c.drive.Files.Get(fileID).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, fmt.Errorf("failed to get file: %w", err)
	}

	return File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}, nil
}

func (c *Client) ListFolder(ctx context.Context, folderID string) ([]File, error) {
	if c.drive == nil {
		return nil, ErrDisabled
	}

	var result []File
	pageToken := ""

	for {
		call := c.drive.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
			Fields("nextPageToken, files(id, name, mimeType)").
			OrderBy("name").
			PageSize(100).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list folder: %w", err)
		}

		for _, f := range list.Files {
			result = append(result, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}

		if list.NextPageToken == "" {
			return result, nil
		}
		pageToken = list.NextPageToken
	}
}

func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	if c.drive == nil {
		return nil, ErrDisabled
	}

	resp, err := c.drive.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}
