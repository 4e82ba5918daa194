package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// TranslationError reports a source descriptor missing a field the target
// creation request requires. It is a per-instance failure, never fatal to
// the kind.
type TranslationError struct {
	Field string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("descriptor missing required field %s", e.Field)
}

// conflictCodes are API error codes meaning the resource already exists in
// the target. These are expected conditions, not faults.
var conflictCodes = map[string]bool{
	"ResourceConflictException": true, // lambda
	"ResourceInUseException":    true, // dynamodb
	"BucketAlreadyOwnedByYou":   true, // s3
	"BucketAlreadyExists":       true, // s3
	"QueueNameExists":           true, // sqs
	"DBInstanceAlreadyExists":   true, // rds
	"EntityAlreadyExists":       true, // iam
}

// notFoundCodes are API error codes meaning the resource does not exist in
// the environment that was asked.
var notFoundCodes = map[string]bool{
	"ResourceNotFoundException": true, // lambda, dynamodb, cognito
	"NoSuchBucket":              true, // s3
	"NotFound":                  true, // s3 HeadBucket
	"DBInstanceNotFound":        true, // rds
	"DBInstanceNotFoundFault":   true, // rds (wire name variant)
	"NoSuchEntity":              true, // iam
	"AWS.SimpleQueueService.NonExistentQueue": true, // sqs
	"QueueDoesNotExist":                       true, // sqs (smithy name)
}

// isConflict reports whether err means "already exists" in the target.
func isConflict(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return conflictCodes[ae.ErrorCode()] ||
			strings.Contains(ae.ErrorCode(), "AlreadyExists")
	}
	return false
}

// isNotFound reports whether err means the looked-up resource is absent,
// as opposed to the lookup itself failing.
func isNotFound(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return notFoundCodes[ae.ErrorCode()]
	}
	return false
}
