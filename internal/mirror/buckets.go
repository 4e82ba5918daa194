package mirror

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// BucketMigrator mirrors object storage buckets. Buckets carry no schema
// to translate, so migration is list, filter and guarded create.
type BucketMigrator struct {
	source S3API
	target S3API
	log    logrus.FieldLogger
}

func NewBucketMigrator(source, target S3API, log logrus.FieldLogger) *BucketMigrator {
	return &BucketMigrator{source: source, target: target, log: log}
}

var _ Migrator = &BucketMigrator{}

func (m *BucketMigrator) Kind() Kind { return KindBuckets }

func (m *BucketMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	out, err := m.source.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		m.log.WithError(err).Error("listing source buckets")
		return []Outcome{kindFailure(m.Kind(), fmt.Errorf("list buckets: %w", err))}
	}

	var outcomes []Outcome
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := ensureCreated(ctx, m.Kind(), name,
			func(ctx context.Context) (bool, error) {
				return bucketExists(ctx, m.target, name)
			},
			func(ctx context.Context) error {
				_, err := m.target.CreateBucket(ctx, &s3.CreateBucketInput{
					Bucket: aws.String(name),
				})
				return err
			})
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

// bucketExists distinguishes "bucket absent" from the head call itself
// failing.
func bucketExists(ctx context.Context, api S3API, name string) (bool, error) {
	_, err := api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
