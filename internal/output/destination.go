package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/chrisdamba/bentoledger/internal/cloudwriter"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
)

// Destination resolves a table partition to a local file or a bucket object.
type Destination struct {
	basePath string
	folder   string
	factory  cloudwriter.CloudWriterFactory
	bucket   string
}

// NewDestination picks local files or a cloud bucket from the export config.
func NewDestination(ctx context.Context, export models.ExportConfig, storage models.CloudStorageConfig) (Destination, error) {
	d := LocalDestination(export.OutputPath, export.OutputFolder)
	if export.Destination != models.ExportDestinationS3 {
		return d, nil
	}

	switch storage.Provider {
	case "s3", "":
		factory, err := cloudwriter.NewS3WriterFactory(ctx, storage)
		if err != nil {
			return d, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		d.factory = factory
		d.bucket = storage.BucketName
	default:
		return d, fmt.Errorf("unsupported cloud storage provider: %s", storage.Provider)
	}
	return d, nil
}

func LocalDestination(basePath, folder string) Destination {
	return Destination{basePath: basePath, folder: folder}
}

// BucketDestination writes objects under folder in bucket through factory.
func BucketDestination(factory cloudwriter.CloudWriterFactory, bucket, folder string) Destination {
	return Destination{folder: folder, factory: factory, bucket: bucket}
}

// partition is "<table>/week=YYYY-MM-DD/data.<ext>".
func partition(table string, weekStart models.DateKey, ext string) string {
	return path.Join(table, "week="+string(weekStart), "data."+ext)
}

func (d Destination) location(rel string) string {
	if d.factory != nil {
		return d.bucket + "/" + path.Join(d.folder, rel)
	}
	return filepath.Join(d.basePath, d.folder, filepath.FromSlash(rel))
}

func (d Destination) parquetFile(ctx context.Context, rel string) (source.ParquetFile, error) {
	if d.factory != nil {
		w, err := d.factory.NewWriter(ctx, d.bucket, path.Join(d.folder, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return NewCloudParquetFile(w), nil
	}

	full := d.location(rel)
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(full)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

func (d Destination) writer(ctx context.Context, rel string) (io.WriteCloser, error) {
	if d.factory != nil {
		w, err := d.factory.NewWriter(ctx, d.bucket, path.Join(d.folder, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return w, nil
	}

	full := d.location(rel)
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(full)
}
