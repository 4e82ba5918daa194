package mirror

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Clients bundles the per-service AWS clients for one environment, source
// or target.
type Clients struct {
	S3      S3API
	Lambda  LambdaAPI
	SQS     SQSAPI
	Dynamo  DynamoAPI
	Cognito CognitoAPI
	RDS     RDSAPI
	IAM     IAMAPI
	STS     STSAPI
}

// NewSourceClients builds clients for the live account using the ambient
// credential chain (env, shared config, instance role).
func NewSourceClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading source aws config: %w", err)
	}
	return newClients(cfg, ""), nil
}

// NewTargetClients builds clients pointed at the local emulator endpoint.
// The emulator does not validate credentials; static test keys keep the
// SDK's request signer satisfied.
func NewTargetClients(ctx context.Context, region, endpoint string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading target aws config: %w", err)
	}
	return newClients(cfg, endpoint), nil
}

func newClients(cfg aws.Config, endpoint string) *Clients {
	var base *string
	if endpoint != "" {
		base = aws.String(endpoint)
	}
	return &Clients{
		S3: s3.NewFromConfig(cfg, func(o *s3.Options) {
			if base != nil {
				o.BaseEndpoint = base
				// Virtual-host addressing does not resolve against localhost.
				o.UsePathStyle = true
			}
		}),
		Lambda: lambda.NewFromConfig(cfg, func(o *lambda.Options) {
			o.BaseEndpoint = base
		}),
		SQS: sqs.NewFromConfig(cfg, func(o *sqs.Options) {
			o.BaseEndpoint = base
		}),
		Dynamo: dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = base
		}),
		Cognito: cognitoidentityprovider.NewFromConfig(cfg, func(o *cognitoidentityprovider.Options) {
			o.BaseEndpoint = base
		}),
		RDS: rds.NewFromConfig(cfg, func(o *rds.Options) {
			o.BaseEndpoint = base
		}),
		IAM: iam.NewFromConfig(cfg, func(o *iam.Options) {
			o.BaseEndpoint = base
		}),
		STS: sts.NewFromConfig(cfg, func(o *sts.Options) {
			o.BaseEndpoint = base
		}),
	}
}
