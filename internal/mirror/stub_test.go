package mirror

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionNameFromARN(t *testing.T) {
	tests := []struct {
		ref      string
		wantName string
		wantOK   bool
	}{
		{"arn:aws:lambda:us-east-1:123456789012:function:pre-signup", "pre-signup", true},
		{"arn:aws:lambda:us-east-1:123456789012:function:pre-signup:3", "pre-signup", true},
		{"arn:aws:lambda:us-east-1:123456789012:function:pre-signup:$LATEST", "pre-signup", true},
		{"arn:aws:sns:us-east-1:123456789012:some-topic", "", false},
		{"not-an-arn", "", false},
		{"arn:aws:lambda:us-east-1:123456789012:function:", "", false},
	}
	for _, tt := range tests {
		name, ok := functionNameFromARN(tt.ref)
		assert.Equal(t, tt.wantOK, ok, tt.ref)
		assert.Equal(t, tt.wantName, name, tt.ref)
	}
}

func TestStubber_CreatesMissingFunction(t *testing.T) {
	target := &fakeLambda{}
	targetIAM := &fakeIAM{}
	s := NewStubber(target, targetIAM, testLogger())

	s.EnsureFunctions(context.Background(), map[string]string{
		"PreSignUp": "arn:aws:lambda:us-east-1:123456789012:function:pre-signup",
	})

	require.Len(t, target.created, 1)
	created := target.created[0]
	assert.Equal(t, "pre-signup", aws.ToString(created.FunctionName))
	assert.Equal(t, stubRuntime, created.Runtime)
	assert.Equal(t, executionRoleARN, aws.ToString(created.Role))
	assert.NotEmpty(t, created.Code.ZipFile)
	assert.Contains(t, targetIAM.roles, executionRoleName)
}

func TestStubber_NoOpWhenFunctionExists(t *testing.T) {
	target := &fakeLambda{existing: map[string]bool{"pre-signup": true}}
	s := NewStubber(target, &fakeIAM{}, testLogger())

	s.EnsureFunctions(context.Background(), map[string]string{
		"PreSignUp": "arn:aws:lambda:us-east-1:123456789012:function:pre-signup",
	})

	assert.Empty(t, target.created)
}

func TestStubber_IgnoresUnrecognizableReferences(t *testing.T) {
	target := &fakeLambda{}
	s := NewStubber(target, &fakeIAM{}, testLogger())

	s.EnsureFunctions(context.Background(), map[string]string{
		"PreSignUp": "arn:aws:sns:us-east-1:123456789012:some-topic",
	})

	assert.Empty(t, target.created)
}

func TestStubber_CreateFailureDoesNotPanic(t *testing.T) {
	target := &fakeLambda{createErr: apiErr("ServiceException")}
	s := NewStubber(target, &fakeIAM{}, testLogger())

	// Stub failures are logged only; the caller proceeds regardless.
	s.EnsureFunctions(context.Background(), map[string]string{
		"PreSignUp": "arn:aws:lambda:us-east-1:123456789012:function:pre-signup",
	})
}

func TestStubZip_IsValidArchive(t *testing.T) {
	data := stubZip()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.Equal(t, "index.js", r.File[0].Name)
}
