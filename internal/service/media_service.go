package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/maheshrc27/autoposter/configs"
)

var ErrMediaDisabled = errors.New("media storage is not configured")

// MediaService turns stored media keys into URLs platforms can fetch.
type MediaService interface {
	ResolveAll(ctx context.Context, refs []string) ([]string, error)
	Upload(ctx context.Context, data []byte) (string, error)
}

type mediaService struct {
	cfg     config.R2
	client  *s3.Client
	presign *s3.PresignClient
}

// NewMediaService builds the R2 client. With R2 unset the service still
// passes absolute URLs through and rejects bare keys.
func NewMediaService(ctx context.Context, cfg config.R2) (MediaService, error) {
	m := &mediaService{cfg: cfg}
	if !cfg.Enabled() {
		return m, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	m.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})
	m.presign = s3.NewPresignClient(m.client)
	return m, nil
}

func (m *mediaService) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if isAbsoluteURL(ref) {
			out = append(out, ref)
			continue
		}
		if m.presign == nil {
			return nil, fmt.Errorf("%w: cannot resolve %q", ErrMediaDisabled, ref)
		}

		req, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(m.cfg.BucketName),
			Key:    aws.String(ref),
		}, s3.WithPresignExpires(m.cfg.URLTTL))
		if err != nil {
			return nil, fmt.Errorf("presign %q: %w", ref, err)
		}
		out = append(out, req.URL)
	}
	return out, nil
}

// Upload stores a media file under a generated key that keeps the detected
// extension, so adapters can classify the presigned URL later.
func (m *mediaService) Upload(ctx context.Context, data []byte) (string, error) {
	if m.client == nil {
		return "", ErrMediaDisabled
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", errors.New("unrecognized media type")
	}
	if !filetype.IsImage(data) && !filetype.IsVideo(data) {
		return "", fmt.Errorf("unsupported media type %s", kind.MIME.Value)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key := fmt.Sprintf("media/%s.%s", id, kind.Extension)

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
