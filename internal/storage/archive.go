// Package storage archives generated recipes.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// RecipeArchive stores successful generations for later review.
type RecipeArchive interface {
	Save(ctx context.Context, ingredients []types.IngredientSpec, recipe *types.RecipeResult) error
}

// ObjectPutter is the part of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Record is the archived document.
type Record struct {
	ID          string                 `json:"id"`
	CreatedAt   time.Time              `json:"created_at"`
	Ingredients []types.IngredientSpec `json:"ingredients"`
	Recipe      *types.RecipeResult    `json:"recipe"`
}

// S3Archive writes one JSON object per recipe under
// {prefix}/{yyyy}/{mm}/{dd}/{id}.json.
type S3Archive struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
	newID  func() string
}

func NewS3Archive(cfg *config.S3Config) *S3Archive {
	return newS3Archive(cfg.Client, cfg.BucketName, cfg.Prefix)
}

func newS3Archive(client ObjectPutter, bucket, prefix string) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (a *S3Archive) Save(ctx context.Context, ingredients []types.IngredientSpec, recipe *types.RecipeResult) error {
	rec := Record{
		ID:          a.newID(),
		CreatedAt:   a.now().UTC(),
		Ingredients: ingredients,
		Recipe:      recipe,
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode recipe record: %w", err)
	}

	key := a.key(rec)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

func (a *S3Archive) key(rec Record) string {
	return path.Join(a.prefix, rec.CreatedAt.Format("2006/01/02"), rec.ID+".json")
}

// NopArchive discards everything. Used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Save(context.Context, []types.IngredientSpec, *types.RecipeResult) error {
	return nil
}

// New returns the S3 archive when cfg is set, otherwise a NopArchive.
func New(cfg *config.S3Config) RecipeArchive {
	if cfg == nil || cfg.Client == nil {
		return NopArchive{}
	}
	return NewS3Archive(cfg)
}
