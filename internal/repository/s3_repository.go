package repository

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	s3config "imagegate/internal/config"
	"imagegate/pkg/imagemeta"
)

// StoredObject is what the remote store reports back for a stored payload.
// ID is a slash-free identifier safe to use in URLs and as the catalog key;
// Key is the full object key inside the bucket and is what Delete expects.
type StoredObject struct {
	ID     string
	Key    string
	URL    string
	Format string
}

// StoreRepository is the remote object store as the orchestrators see it:
// an opaque collaborator that stores a payload and deletes it by key.
// Delete is not assumed idempotent.
type StoreRepository interface {
	Put(ctx context.Context, folder, filename, contentType string, payload []byte) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
}

type s3Repository struct {
	client *s3.Client
	cfg    *s3config.S3Config
	log    *zap.Logger
}

func NewS3Repository(cfg *s3config.S3Config, log *zap.Logger) (StoreRepository, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               endpointURL(cfg),
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	repo := &s3Repository{
		client: client,
		cfg:    cfg,
		log:    log,
	}

	if err := repo.ensureBucketExists(context.Background()); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.Error(err))
	}

	return repo, nil
}

func (r *s3Repository) ensureBucketExists(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.cfg.BucketName),
	})
	if err == nil {
		return nil
	}

	r.log.Info("Creating bucket", zap.String("bucket", r.cfg.BucketName))

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.cfg.BucketName),
		CreateBucketConfiguration: &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(r.cfg.Region),
		},
	})
	if err != nil {
		return err
	}

	r.log.Info("Bucket created successfully", zap.String("bucket", r.cfg.BucketName))
	return nil
}

// Put stores the payload under a fresh key in folder. The returned ID is the
// bare uuid, kept free of path separators; the folder lives only in Key.
func (r *s3Repository) Put(ctx context.Context, folder, filename, contentType string, payload []byte) (*StoredObject, error) {
	id := uuid.New().String()
	key := folder + "/" + id + sanitizeExt(filename)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(payload))),
	})
	if err != nil {
		r.log.Error("Failed to upload object to S3",
			zap.String("key", key),
			zap.Error(err))
		return nil, err
	}

	r.log.Info("Object uploaded to S3",
		zap.String("key", key),
		zap.Int("size", len(payload)))

	return &StoredObject{
		ID:     id,
		Key:    key,
		URL:    r.publicURL(key),
		Format: imagemeta.DetectFormat(payload, filename),
	}, nil
}

// Delete removes the object identified by key (the Key returned from Put).
func (r *s3Repository) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		r.log.Error("Failed to delete object from S3",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	r.log.Info("Object deleted from S3", zap.String("key", key))
	return nil
}

func (r *s3Repository) publicURL(key string) string {
	if r.cfg.PublicBaseURL != "" {
		return strings.TrimRight(r.cfg.PublicBaseURL, "/") + "/" + key
	}
	return endpointURL(r.cfg) + "/" + r.cfg.BucketName + "/" + key
}

func endpointURL(cfg *s3config.S3Config) string {
	if strings.Contains(cfg.Endpoint, "://") {
		return strings.TrimRight(cfg.Endpoint, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}

// sanitizeExt keeps only a plain lowercase extension from the client-supplied
// filename; anything else would end up in the object key.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
