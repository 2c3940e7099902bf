package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/server/config"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig
	presignPutObject     = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type presignInput struct {
	TipID       string `validate:"required,max=128,printascii"`
	ContentType string `validate:"required,startswith=image/"`
	Extension   string `validate:"required,max=8,alphanum"`
}

type ImageUpload struct {
	Key    string
	PutURL string
	GetURL string
}

// ImageService hands out presigned S3 URLs for tip images. Objects are
// keyed by tip id, so re-uploading replaces the previous image.
type ImageService struct {
	cfg    *config.Config
	logger logging.Logger
}

func NewImageService(cfg *config.Config, l logging.Logger) *ImageService {
	return &ImageService{cfg: cfg, logger: l.With("service", "images")}
}

// ImageKey is the object key of a tip image.
func ImageKey(tipID, ext string) string {
	return "tips/" + url.PathEscape(tipID) + "." + strings.ToLower(ext)
}

func (s *ImageService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.S3RootUser,
			s.cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return s3.NewPresignClient(client), nil
}

func (s *ImageService) PresignUpload(ctx context.Context, userID, tipID, contentType, ext string) (*ImageUpload, error) {
	in := presignInput{TipID: tipID, ContentType: contentType, Extension: strings.TrimPrefix(ext, ".")}
	if err := validateInput("images.presign", in); err != nil {
		return nil, err
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.S3Bucket
	key := ImageKey(in.TipID, in.Extension)

	put, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	get, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	s.logger.Info(ctx, "image upload presigned", "tip_id", tipID, "key", key, "user_id", userID)
	return &ImageUpload{Key: key, PutURL: put.URL, GetURL: stripQuery(get.URL)}, nil
}

// stripQuery drops the signature so the stored reference does not expire.
// The bucket is expected to allow anonymous reads of tips/*.
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
