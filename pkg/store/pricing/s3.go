package pricing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// ObjectGetter is the subset of the S3 client used to read price sheets.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source reads a price sheet published to s3://bucket/key.
func NewS3Source(client ObjectGetter, bucket, key string) Source {
	return &s3Source{client: client, bucket: bucket, key: key}
}

func (s *s3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func (s *s3Source) LoadPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get price sheet %s: %w", s.Name(), err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("source", s.Name()).Msg("failed to close price sheet body")
		}
	}()

	return DecodeSheet(out.Body)
}
