package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StorageService re-hosts customer media on S3. WhatsApp media URLs expire,
// so payment receipts are copied to our bucket before being attached to an
// order.
type StorageService struct {
	s3Client *s3.S3
	bucket   string
	baseURL  string
}

// NewStorageService creates a storage service from S3_* environment variables
func NewStorageService() (*StorageService, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucket := os.Getenv("S3_BUCKET")

	if accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("S3 configuration missing")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("us-east-1"),
		Endpoint: aws.String(endpoint),
		Credentials: credentials.NewStaticCredentials(
			accessKey,
			secretKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		bucket:   bucket,
		baseURL:  fmt.Sprintf("https://%s", bucket),
	}, nil
}

// UploadReceiptImage downloads a receipt image from a transient media URL and
// uploads it to S3, returning the permanent public URL
func (s *StorageService) UploadReceiptImage(mediaURL, phone string) (string, error) {
	data, contentType, err := s.downloadImage(mediaURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch receipt image: %w", err)
	}

	ext := extensionForImage(contentType)
	key := fmt.Sprintf("receipts/%s/%s%s", onlyDigits(phone), uuid.New().String(), ext)

	publicURL, err := s.upload(key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store receipt: %w", err)
	}

	log.Info().Str("phone", onlyDigits(phone)).Str("url", publicURL).Msg("receipt image stored")
	return publicURL, nil
}

// downloadImage fetches a media URL and verifies it is an image
func (s *StorageService) downloadImage(url string) ([]byte, string, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	// 10MB cap keeps a misbehaving media server from exhausting memory
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("file is not an image: %s", contentType)
	}
	return data, contentType, nil
}

func extensionForImage(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// upload puts an object in the bucket and returns its public URL
func (s *StorageService) upload(key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// DeleteFile removes an object from the bucket
func (s *StorageService) DeleteFile(key string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
