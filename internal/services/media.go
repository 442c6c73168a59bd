package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaService issues pre-signed S3 upload URLs for attachments
type MediaService struct {
	archStore ArchStore
	s3Client  *s3.Client
	s3Bucket  string
	awsRegion string
}

// NewMediaService creates a new media service. With empty access keys the
// default AWS credential chain is used. A non-empty endpoint switches to
// path-style addressing for S3-compatible storage.
func NewMediaService(archStore ArchStore, awsRegion, s3Bucket, accessKey, secretKey, endpoint string) (*MediaService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(awsRegion),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		archStore: archStore,
		s3Client:  client,
		s3Bucket:  s3Bucket,
		awsRegion: awsRegion,
	}, nil
}

// UploadResponse carries a pre-signed PUT URL and the final object location
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	MediaURL  string `json:"media_url"`
	ExpiresIn int    `json:"expires_in"`
}

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// GetUploadURL generates a pre-signed URL for uploading an attachment,
// member-gated on the target arch
func (s *MediaService) GetUploadURL(ctx context.Context, userID, archID, filename, contentType string) (*UploadResponse, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}

	ext, ok := allowedContentTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type", ErrInvalidInput)
	}
	if fromName := strings.ToLower(path.Ext(filename)); fromName != "" {
		ext = fromName
	}

	s3Key := fmt.Sprintf("%s/%s%s", archID, uuid.New().String(), ext)

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(s3Key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 5 * time.Minute
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	mediaURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Bucket, s.awsRegion, s3Key)
	return &UploadResponse{
		UploadURL: request.URL,
		MediaURL:  mediaURL,
		ExpiresIn: 300,
	}, nil
}
