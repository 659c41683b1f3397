package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"Audiotheque/config"
	"Audiotheque/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioPrefix is the key prefix of every uploaded track.
const AudioPrefix = "audio/"

// MediaRoute is the HTTP path under which objects are proxied.
const MediaRoute = "/media/"

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("media object not found")

// UploadResult is what the media host reports for a stored upload.
type UploadResult struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"`
	PublicID string `json:"publicId"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// MediaHost stores audio files in a MinIO bucket and hands out the URLs
// under which the server proxies them.
type MediaHost struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

// NewMediaHost 创建 MinIO 客户端
func NewMediaHost(cfg *config.Config) (*MediaHost, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return &MediaHost{
		client:    client,
		bucket:    cfg.MinioBucket,
		region:    cfg.MinioRegion,
		publicURL: cfg.PublicURL,
	}, nil
}

// Bucket returns the bucket name.
func (h *MediaHost) Bucket() string {
	return h.bucket
}

// EnsureBucket 检查存储桶是否存在，不存在则创建
func (h *MediaHost) EnsureBucket(ctx context.Context) error {
	exists, err := h.client.BucketExists(ctx, h.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", h.bucket, err)
	}
	if exists {
		logger.Info("Bucket exists", logger.String("bucket", h.bucket))
		return nil
	}
	if err := h.client.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{Region: h.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", h.bucket, err)
	}
	logger.Info("Bucket created", logger.String("bucket", h.bucket))
	return nil
}

// NewObjectKey returns a fresh audio key that keeps the extension of filename.
func NewObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return AudioPrefix + uuid.New().String() + ext
}

// URL is the address the browser uses to fetch key.
func (h *MediaHost) URL(key string) string {
	return URLFor(h.publicURL, key)
}

// URLFor joins a public base URL and an object key.
func URLFor(publicURL, key string) string {
	return strings.TrimRight(publicURL, "/") + MediaRoute + strings.TrimLeft(key, "/")
}

// Upload stores r under a new key and returns where it can be fetched.
// Duration is left for the caller to fill in.
func (h *MediaHost) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*UploadResult, error) {
	key := NewObjectKey(filename)
	info, err := h.client.PutObject(ctx, h.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &UploadResult{
		URL:      h.URL(key),
		PublicID: key,
		Format:   FormatOf(filename, contentType),
		Size:     info.Size,
	}, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (h *MediaHost) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := h.client.RemoveObject(ctx, h.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Open returns a seekable reader on key.
func (h *MediaHost) Open(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error) {
	obj, err := h.client.GetObject(ctx, h.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, toObjectInfo(stat), nil
}

// List returns every object under prefix with totals.
func (h *MediaHost) List(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range h.client.ListObjects(ctx, h.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, toObjectInfo(object))
	}
	return objects, stats, nil
}

func toObjectInfo(o minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		ContentType:  o.ContentType,
		ETag:         o.ETag,
	}
}

// FormatOf names the audio format from the file extension, falling back to
// the MIME subtype.
func FormatOf(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); ext != "" {
		return ext
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		sub, _, _ = strings.Cut(sub, ";")
		switch sub = strings.TrimSpace(sub); sub {
		case "mpeg":
			return "mp3"
		case "x-wav", "wave":
			return "wav"
		default:
			return sub
		}
	}
	return "unknown"
}

// ContentTypeOf guesses the MIME type of an audio key from its extension.
func ContentTypeOf(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".aac":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".opus":
		return "audio/opus"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
