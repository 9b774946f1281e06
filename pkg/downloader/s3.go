package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/pkg/media"
)

func splitS3URI(rawURI string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(rawURI, S3Prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q, want s3://bucket/key", rawURI)
	}
	return parts[0], parts[1], nil
}

func (d *Downloader) s3Client(ctx context.Context) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if d.S3.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(d.S3.Region))
	}
	switch {
	case d.S3.Anonymous:
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case d.S3.AccessKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(d.S3.AccessKey, d.S3.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if d.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(d.S3.Endpoint)
			// Path-style addressing for S3-compatible stores like minio.
			o.UsePathStyle = true
		}
	}), nil
}

func (d *Downloader) fetchS3(ctx context.Context, rawURI, destDir string, status ProgressFunc) (*FetchResult, error) {
	bucket, key, err := splitS3URI(rawURI)
	if err != nil {
		return nil, err
	}

	client, err := d.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	xlog.Info("downloading source from s3", "bucket", bucket, "key", key)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	filePath := filepath.Join(destDir, media.SanitizeName(path.Base(key)))
	tmpFilePath := filePath + ".partial"
	if err := removePartialFile(tmpFilePath); err != nil {
		return nil, err
	}

	outFile, err := os.Create(tmpFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %q: %w", tmpFilePath, err)
	}
	defer outFile.Close()

	progress := &progressWriter{
		total:  aws.ToInt64(out.ContentLength),
		status: status,
		ctx:    ctx,
	}
	if _, err := io.Copy(io.MultiWriter(outFile, progress), out.Body); err != nil {
		return nil, fmt.Errorf("failed to write file %q: %w", filePath, err)
	}

	if err := os.Rename(tmpFilePath, filePath); err != nil {
		return nil, fmt.Errorf("failed to rename temporary file %s -> %s: %w", tmpFilePath, filePath, err)
	}

	filePath = media.NormalizeExtension(filePath)
	return &FetchResult{Path: filePath, Kind: kindOf(filePath), Title: titleOf(filePath)}, nil
}
