package mirror

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"
)

// The target emulator does not validate IAM trust policies, so every
// mirrored or stubbed function runs under one fixed placeholder role.
const (
	executionRoleName = "localmirror-execution"
	executionRoleARN  = "arn:aws:iam::000000000000:role/" + executionRoleName

	stubRuntime = lambdatypes.RuntimeNodejs18x
	stubHandler = "index.handler"
)

const assumeRolePolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"Service": "lambda.amazonaws.com"},
    "Action": "sts:AssumeRole"
  }]
}`

// Stubber guarantees that functions referenced by other resources (user
// pool triggers) exist in the target before the referencing resource is
// created. Referenced functions that are absent get a minimal stand-in
// with an identity handler.
type Stubber struct {
	lambda LambdaAPI
	iam    IAMAPI
	log    logrus.FieldLogger
}

func NewStubber(target LambdaAPI, targetIAM IAMAPI, log logrus.FieldLogger) *Stubber {
	return &Stubber{lambda: target, iam: targetIAM, log: log}
}

// EnsureFunctions walks a trigger-name to function-reference map and stubs
// every referenced function missing from the target. Stub failures are
// logged per reference and never abort the caller; the dependent resource
// creation is still attempted.
func (s *Stubber) EnsureFunctions(ctx context.Context, triggers map[string]string) {
	for trigger, ref := range triggers {
		name, ok := functionNameFromARN(ref)
		if !ok {
			continue
		}
		exists, err := functionExists(ctx, s.lambda, name)
		if err != nil {
			s.log.WithError(err).WithField("function", name).
				Warn("checking stub target, skipping")
			continue
		}
		if exists {
			continue
		}
		if err := s.createStub(ctx, name); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"trigger":  trigger,
				"function": name,
			}).Warn("stubbing referenced function")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"trigger":  trigger,
			"function": name,
		}).Info("stubbed referenced function")
	}
}

func (s *Stubber) createStub(ctx context.Context, name string) error {
	ensureExecutionRole(ctx, s.iam, s.log)
	_, err := s.lambda.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: aws.String(name),
		Runtime:      stubRuntime,
		Handler:      aws.String(stubHandler),
		Role:         aws.String(executionRoleARN),
		Code:         &lambdatypes.FunctionCode{ZipFile: stubZip()},
	})
	if err != nil && !isConflict(err) {
		return err
	}
	return nil
}

// functionNameFromARN extracts the function name from a Lambda ARN such as
// arn:aws:lambda:us-east-1:123456789012:function:my-fn[:qualifier].
// Returns false when the reference carries no recognizable function marker.
func functionNameFromARN(ref string) (string, bool) {
	const marker = ":function:"
	i := strings.LastIndex(ref, marker)
	if i < 0 {
		return "", false
	}
	name := ref[i+len(marker):]
	if j := strings.Index(name, ":"); j >= 0 {
		name = name[:j]
	}
	return name, name != ""
}

func functionExists(ctx context.Context, api LambdaAPI, name string) (bool, error) {
	_, err := api.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(name)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// ensureExecutionRole creates the placeholder execution role in the
// target. Role creation failure is logged only: the emulator accepts
// role ARNs it has never seen.
func ensureExecutionRole(ctx context.Context, api IAMAPI, log logrus.FieldLogger) {
	_, err := api.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(executionRoleName),
		AssumeRolePolicyDocument: aws.String(assumeRolePolicy),
	})
	if err != nil && !isConflict(err) {
		log.WithError(err).Warn("creating placeholder execution role")
	}
}

// stubZip builds the deployment package for a stand-in function: a single
// identity handler.
func stubZip() []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("index.js")
	if err == nil {
		_, _ = f.Write([]byte("exports.handler = async (event) => event;\n"))
	}
	_ = w.Close()
	return buf.Bytes()
}
