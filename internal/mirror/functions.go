package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// FunctionMigrator mirrors compute functions. The code payload is fetched
// from the source's presigned download URL, staged into the configured
// target bucket, and the function is created pointing at the staged
// object. The source execution role is replaced with the placeholder
// identity; the emulator does not validate trust policies.
type FunctionMigrator struct {
	source   LambdaAPI
	target   LambdaAPI
	targetS3 S3API
	iam      IAMAPI
	httpc    *http.Client
	bucket   string
	log      logrus.FieldLogger
}

func NewFunctionMigrator(source, target LambdaAPI, targetS3 S3API, targetIAM IAMAPI, stagingBucket string, log logrus.FieldLogger) *FunctionMigrator {
	return &FunctionMigrator{
		source:   source,
		target:   target,
		targetS3: targetS3,
		iam:      targetIAM,
		httpc:    http.DefaultClient,
		bucket:   stagingBucket,
		log:      log,
	}
}

var _ Migrator = &FunctionMigrator{}

func (m *FunctionMigrator) Kind() Kind { return KindFunctions }

func (m *FunctionMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	if err := m.ensureStagingBucket(ctx); err != nil {
		m.log.WithError(err).Error("preparing staging bucket")
		return []Outcome{kindFailure(m.Kind(), fmt.Errorf("staging bucket %s: %w", m.bucket, err))}
	}

	var fns []lambdatypes.FunctionConfiguration
	p := lambda.NewListFunctionsPaginator(m.source, &lambda.ListFunctionsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			m.log.WithError(err).Error("listing source functions")
			return []Outcome{kindFailure(m.Kind(), fmt.Errorf("list functions: %w", err))}
		}
		fns = append(fns, page.Functions...)
	}

	var outcomes []Outcome
	for _, fn := range fns {
		name := aws.ToString(fn.FunctionName)
		if name == "" {
			m.log.Warn("source function without a name, skipping")
			continue
		}
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := m.migrateOne(ctx, fn)
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

func (m *FunctionMigrator) migrateOne(ctx context.Context, fn lambdatypes.FunctionConfiguration) Outcome {
	name := aws.ToString(fn.FunctionName)
	return ensureCreated(ctx, m.Kind(), name,
		func(ctx context.Context) (bool, error) {
			return functionExists(ctx, m.target, name)
		},
		func(ctx context.Context) error {
			key, err := m.stageCode(ctx, name)
			if err != nil {
				return err
			}
			ensureExecutionRole(ctx, m.iam, m.log)
			_, err = m.target.CreateFunction(ctx, &lambda.CreateFunctionInput{
				FunctionName: aws.String(name),
				Runtime:      fn.Runtime,
				Handler:      fn.Handler,
				Role:         aws.String(executionRoleARN),
				Code: &lambdatypes.FunctionCode{
					S3Bucket: aws.String(m.bucket),
					S3Key:    aws.String(key),
				},
				Publish: true,
			})
			return err
		})
}

// stageCode downloads the function's deployment package from the source
// and uploads it under the staging bucket. The local temp file is removed
// on every exit path.
func (m *FunctionMigrator) stageCode(ctx context.Context, name string) (string, error) {
	details, err := m.source.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("describing source function: %w", err)
	}
	if details.Code == nil || aws.ToString(details.Code.Location) == "" {
		return "", &TranslationError{Field: "Code.Location"}
	}

	path, err := m.download(ctx, aws.ToString(details.Code.Location), name)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening code payload: %w", err)
	}
	defer f.Close()

	key := name + ".zip"
	_, err = m.targetS3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("staging code payload: %w", err)
	}
	return key, nil
}

func (m *FunctionMigrator) download(ctx context.Context, url, name string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building code download request: %w", err)
	}
	resp, err := m.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("downloading code payload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading code payload: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "localmirror-"+filepath.Base(name)+"-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temp code file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing temp code file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp code file: %w", err)
	}
	return tmp.Name(), nil
}

func (m *FunctionMigrator) ensureStagingBucket(ctx context.Context) error {
	exists, err := bucketExists(ctx, m.targetS3, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = m.targetS3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(m.bucket),
	})
	if err != nil && !isConflict(err) {
		return err
	}
	return nil
}
