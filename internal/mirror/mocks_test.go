package mirror

import (
	"context"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

// Hand-rolled fakes implementing the narrow per-service interfaces. Each
// fake serves as either side: source fields feed list/describe calls,
// target fields back existence checks and record creates.

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// --- S3 ---

type fakeS3 struct {
	buckets []string // source listing

	existing  map[string]bool // target state
	created   []string
	putKeys   []string
	listErr   error
	headErr   error
	createErr error
	putErr    error
}

var _ S3API = &fakeS3{}

func (f *fakeS3) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := &s3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if f.existing[aws.ToString(params.Bucket)] {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, apiErr("NotFound")
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.Bucket)
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[name] = true
	f.created = append(f.created, name)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKeys = append(f.putKeys, aws.ToString(params.Key))
	return &s3.PutObjectOutput{}, nil
}

// --- Lambda ---

type fakeLambda struct {
	fns     []lambdatypes.FunctionConfiguration // source listing
	codeURL string                              // source code download URL

	existing  map[string]bool // target state
	created   []*lambda.CreateFunctionInput
	listErr   error
	getErr    error
	createErr error
}

var _ LambdaAPI = &fakeLambda{}

func (f *fakeLambda) ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &lambda.ListFunctionsOutput{Functions: f.fns}, nil
}

func (f *fakeLambda) GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	name := aws.ToString(params.FunctionName)
	if f.existing[name] {
		return &lambda.GetFunctionOutput{}, nil
	}
	for i := range f.fns {
		if aws.ToString(f.fns[i].FunctionName) == name {
			return &lambda.GetFunctionOutput{
				Configuration: &f.fns[i],
				Code:          &lambdatypes.FunctionCodeLocation{Location: aws.String(f.codeURL)},
			}, nil
		}
	}
	return nil, apiErr("ResourceNotFoundException")
}

func (f *fakeLambda) CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[aws.ToString(params.FunctionName)] = true
	f.created = append(f.created, params)
	return &lambda.CreateFunctionOutput{}, nil
}

// --- SQS ---

type fakeSQS struct {
	urls []string // source listing

	existing  map[string]bool // target state
	created   []string
	listErr   error
	createErr error
}

var _ SQSAPI = &fakeSQS{}

func (f *fakeSQS) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &sqs.ListQueuesOutput{QueueUrls: f.urls}, nil
}

func (f *fakeSQS) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	name := aws.ToString(params.QueueName)
	if f.existing[name] {
		return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("http://localhost:4566/000000000000/" + name)}, nil
	}
	return nil, apiErr("AWS.SimpleQueueService.NonExistentQueue")
}

func (f *fakeSQS) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.QueueName)
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[name] = true
	f.created = append(f.created, name)
	return &sqs.CreateQueueOutput{}, nil
}

// --- DynamoDB ---

type fakeDynamo struct {
	tables    map[string]*ddbtypes.TableDescription // source tables
	scanPages []*dynamodb.ScanOutput                // source scan pages, in order
	scanIdx   int

	existing      map[string]bool // target state
	created       []*dynamodb.CreateTableInput
	batches       [][]ddbtypes.WriteRequest
	batchErrOn    map[int]error // fail the n-th batch (0-based)
	unprocessedOn map[int]int   // leave n items unprocessed in the n-th batch
	listErr       error
	describeErr   error
	scanErr       error
}

var _ DynamoAPI = &fakeDynamo{}

func (f *fakeDynamo) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return &dynamodb.ListTablesOutput{TableNames: names}, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	name := aws.ToString(params.TableName)
	if desc, ok := f.tables[name]; ok {
		return &dynamodb.DescribeTableOutput{Table: desc}, nil
	}
	if f.existing[name] {
		return &dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{
			TableName:   aws.String(name),
			TableStatus: ddbtypes.TableStatusActive,
		}}, nil
	}
	return nil, apiErr("ResourceNotFoundException")
}

func (f *fakeDynamo) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	name := aws.ToString(params.TableName)
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[name] = true
	f.created = append(f.created, params)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	if f.scanIdx >= len(f.scanPages) {
		return &dynamodb.ScanOutput{}, nil
	}
	page := f.scanPages[f.scanIdx]
	f.scanIdx++
	return page, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	idx := len(f.batches)
	for table, reqs := range params.RequestItems {
		f.batches = append(f.batches, reqs)
		if err, ok := f.batchErrOn[idx]; ok {
			return nil, err
		}
		if n, ok := f.unprocessedOn[idx]; ok && n > 0 && n <= len(reqs) {
			return &dynamodb.BatchWriteItemOutput{
				UnprocessedItems: map[string][]ddbtypes.WriteRequest{table: reqs[:n]},
			}, nil
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

// scanPage builds one scan page holding count items. more controls the
// paginator's continuation key.
func scanPage(count int, more bool) *dynamodb.ScanOutput {
	out := &dynamodb.ScanOutput{}
	for i := 0; i < count; i++ {
		out.Items = append(out.Items, map[string]ddbtypes.AttributeValue{
			"pk": &ddbtypes.AttributeValueMemberS{Value: "item"},
		})
	}
	if more {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			"pk": &ddbtypes.AttributeValueMemberS{Value: "item"},
		}
	}
	return out
}

// --- Cognito ---

type fakeCognito struct {
	pools map[string]*cognitotypes.UserPoolType // source pools by id

	existingNames []string // target pool names
	created       []*cognito.CreateUserPoolInput
	listErr       error
	describeErr   error
	createErr     error
}

var _ CognitoAPI = &fakeCognito{}

func (f *fakeCognito) ListUserPools(ctx context.Context, params *cognito.ListUserPoolsInput, optFns ...func(*cognito.Options)) (*cognito.ListUserPoolsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := &cognito.ListUserPoolsOutput{}
	var ids []string
	for id := range f.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out.UserPools = append(out.UserPools, cognitotypes.UserPoolDescriptionType{
			Id:   aws.String(id),
			Name: f.pools[id].Name,
		})
	}
	for _, name := range f.existingNames {
		out.UserPools = append(out.UserPools, cognitotypes.UserPoolDescriptionType{
			Id:   aws.String("target-" + name),
			Name: aws.String(name),
		})
	}
	return out, nil
}

func (f *fakeCognito) DescribeUserPool(ctx context.Context, params *cognito.DescribeUserPoolInput, optFns ...func(*cognito.Options)) (*cognito.DescribeUserPoolOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if pool, ok := f.pools[aws.ToString(params.UserPoolId)]; ok {
		return &cognito.DescribeUserPoolOutput{UserPool: pool}, nil
	}
	return nil, apiErr("ResourceNotFoundException")
}

func (f *fakeCognito) CreateUserPool(ctx context.Context, params *cognito.CreateUserPoolInput, optFns ...func(*cognito.Options)) (*cognito.CreateUserPoolOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.existingNames = append(f.existingNames, aws.ToString(params.PoolName))
	f.created = append(f.created, params)
	return &cognito.CreateUserPoolOutput{}, nil
}

// --- RDS ---

type fakeRDS struct {
	instances []rdstypes.DBInstance // source listing

	existing    map[string]bool // target state
	created     []*rds.CreateDBInstanceInput
	describeErr error
	createErr   error
}

var _ RDSAPI = &fakeRDS{}

func (f *fakeRDS) DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if id := aws.ToString(params.DBInstanceIdentifier); id != "" {
		if f.existing[id] {
			return &rds.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{
				{DBInstanceIdentifier: aws.String(id)},
			}}, nil
		}
		return nil, apiErr("DBInstanceNotFound")
	}
	return &rds.DescribeDBInstancesOutput{DBInstances: f.instances}, nil
}

func (f *fakeRDS) CreateDBInstance(ctx context.Context, params *rds.CreateDBInstanceInput, optFns ...func(*rds.Options)) (*rds.CreateDBInstanceOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[aws.ToString(params.DBInstanceIdentifier)] = true
	f.created = append(f.created, params)
	return &rds.CreateDBInstanceOutput{}, nil
}

// --- IAM ---

type fakeIAM struct {
	roles     []string
	createErr error
}

var _ IAMAPI = &fakeIAM{}

func (f *fakeIAM) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.roles = append(f.roles, aws.ToString(params.RoleName))
	return &iam.CreateRoleOutput{}, nil
}

// --- STS ---

type fakeSTS struct {
	err error
}

var _ STSAPI = &fakeSTS{}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}
