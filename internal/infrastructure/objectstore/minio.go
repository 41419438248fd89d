package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

const reportTimeLayout = "20060102T150405.000000000Z"

// ReportPublisher writes JSON reports into an S3-compatible bucket for read-only consumers.
type ReportPublisher struct {
	client *minio.Client
	bucket string
}

var _ ports.ReportPublisher = (*ReportPublisher)(nil)

// NewReportPublisher creates the client; no request is made until EnsureBucket or Publish.
func NewReportPublisher(cfg config.ReportsConfig) (*ReportPublisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("report publisher misconfigured: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &ReportPublisher{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (p *ReportPublisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Publish uploads the report body under ObjectName(report).
func (p *ReportPublisher) Publish(ctx context.Context, report domain.Report) error {
	_, err := p.client.PutObject(ctx, p.bucket, ObjectName(report), bytes.NewReader(report.Body), int64(len(report.Body)),
		minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"analysis-id": report.AnalysisID,
				"kind":        report.Kind,
			},
		})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// ObjectName lays reports out as analyses/<id>/<kind>/<timestamp>.json.
func ObjectName(report domain.Report) string {
	return path.Join("analyses", report.AnalysisID, report.Kind, report.CreatedAt.UTC().Format(reportTimeLayout)+".json")
}
