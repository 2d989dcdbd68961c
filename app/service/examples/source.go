package examples

import (
	"assistbot/app/client/google"
	"assistbot/app/client/telegram"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"
	"golang.org/x/sync/errgroup"
)

const (
	maxImages           = 20
	downloadParallelism = 4
)

// Media is what a locator points at. Empty media is valid.
type Media struct {
	Description string
	Images      []telegram.Photo
}

func (m Media) Empty() bool {
	return m.Description == "" && len(m.Images) == 0
}

type Source interface {
	Fetch(ctx context.Context, locator string) (Media, error)
}

type driveClient interface {
	GetFile(ctx context.Context, fileID string) (google.File, error)
	ListFolder(ctx context.Context, folderID string) ([]google.File, error)
	ExportText(ctx context.Context, fileID string) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// DriveSource reads examples from Google Drive. A locator is either a
// single file or a folder; folder contents are read one level deep, texts
// become the description and images are downloaded.
type DriveSource struct {
	client driveClient
}

func NewDriveSource(client driveClient) *DriveSource {
	return &DriveSource{client: client}
}

func (s *DriveSource) Fetch(ctx context.Context, locator string) (Media, error) {
	id, err := google.DriveID(locator)
	if err != nil {
		return Media{}, err
	}

	root, err := s.client.GetFile(ctx, id)
	if err != nil {
		return Media{}, err
	}

	files := []google.File{root}
	if root.IsFolder() {
		if files, err = s.collect(ctx, root.ID); err != nil {
			return Media{}, err
		}
	}

	var texts []string
	for _, f := range pie.Filter(files, google.File.IsText) {
		text, err := s.readText(ctx, f)
		if err != nil {
			slog.Warn("Failed to read example text", "file", f.Name, "error", err)
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	images := pie.Filter(files, google.File.IsImage)
	if len(images) > maxImages {
		slog.Debug("Example has too many images", "locator", locator, "count", len(images))
		images = images[:maxImages]
	}

	photos, err := s.download(ctx, images)
	if err != nil {
		return Media{}, err
	}

	return Media{
		Description: strings.Join(texts, "\n\n"),
		Images:      photos,
	}, nil
}

func (s *DriveSource) collect(ctx context.Context, folderID string) ([]google.File, error) {
	children, err := s.client.ListFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var result []google.File
	for _, child := range children {
		if !child.IsFolder() {
			result = append(result, child)
			continue
		}

		nested, err := s.client.ListFolder(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, pie.Filter(nested, func(f google.File) bool {
			return !f.IsFolder()
		})...)
	}

	return result, nil
}

func (s *DriveSource) readText(ctx context.Context, f google.File) (string, error) {
	if f.IsDocument() {
		return s.client.ExportText(ctx, f.ID)
	}

	data, err := s.client.Download(ctx, f.ID)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

func (s *DriveSource) download(ctx context.Context, images []google.File) ([]telegram.Photo, error) {
	photos := make([]telegram.Photo, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadParallelism)

	for i, f := range images {
		g.Go(func() error {
			data, err := s.client.Download(gctx, f.ID)
			if err != nil {
				return fmt.Errorf("failed to download %s: %w", f.Name, err)
			}

			photos[i] = telegram.Photo{Name: f.Name, Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return photos, nil
}
