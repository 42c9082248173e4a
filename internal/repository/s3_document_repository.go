package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/util"
)

// S3DocumentRepository : содержимое сниппетов как JSON-объекты в бакете S3 (или MinIO)
type S3DocumentRepository struct {
	client ports.S3Client
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3DocumentRepository(ctx context.Context, cfg *config.S3Config) (*S3DocumentRepository, error) {
	var client *s3.Client

	if cfg.Local {
		accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
		if accessKey == "" {
			accessKey, secretKey = "minioadmin", "minioadmin"
		}
		client = s3.New(s3.Options{
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, util.LogError("[S3DocumentRepo] ошибка создания бакета", err)
		}
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, util.LogError("[S3DocumentRepo] ошибка загрузки AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return NewS3DocumentRepositoryWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewS3DocumentRepositoryWithClient(client ports.S3Client, bucket, prefix string) *S3DocumentRepository {
	return &S3DocumentRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// createBucketIfNotExists создает бакет если он не существует
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return err
	}

	zap.L().Info("[S3DocumentRepo] бакет создан", zap.String("bucket", bucket))
	return nil
}

func (r *S3DocumentRepository) Create(ctx context.Context, content, description string) (*model.SnippetDocument, error) {
	now := r.now()
	document := &model.SnippetDocument{
		ID:          uuid.NewString(),
		Content:     content,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.put(ctx, document); err != nil {
		return nil, util.LogError("[S3DocumentRepo] не удалось сохранить документ", err)
	}

	return document, nil
}

func (r *S3DocumentRepository) GetByID(ctx context.Context, id string) (*model.SnippetDocument, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, util.LogError("[S3DocumentRepo] не удалось получить документ", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, util.LogError("[S3DocumentRepo] не удалось прочитать документ", err)
	}

	var document model.SnippetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, util.LogError("[S3DocumentRepo] ошибка десериализации документа", err)
	}
	document.ID = id

	return &document, nil
}

// Update : S3 не умеет частичное обновление, поэтому читаем, меняем и перезаписываем объект
func (r *S3DocumentRepository) Update(ctx context.Context, id string, content, description *string) error {
	document, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if content != nil {
		document.Content = *content
	}
	if description != nil {
		document.Description = *description
	}
	document.UpdatedAt = r.now()

	if err := r.put(ctx, document); err != nil {
		return util.LogError("[S3DocumentRepo] не удалось обновить документ", err)
	}
	return nil
}

// Delete : DeleteObject в S3 идемпотентен
func (r *S3DocumentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		return util.LogError("[S3DocumentRepo] не удалось удалить документ", err)
	}
	return nil
}

func (r *S3DocumentRepository) put(ctx context.Context, document *model.SnippetDocument) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("ошибка сериализации документа: %w", err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(document.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (r *S3DocumentRepository) key(id string) string {
	return r.prefix + "snippets/" + id + ".json"
}
