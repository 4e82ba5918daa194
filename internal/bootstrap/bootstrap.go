// Package bootstrap brings up the local emulator stack and waits for it
// to answer before any migration task starts.
package bootstrap

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/acksell/localmirror/internal/retry"
)

// Lister is the trivial call the readiness probe issues.
type Lister interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// Up starts the emulator stack with docker compose. composeFile may be
// empty to use the compose file in the working directory.
func Up(ctx context.Context, composeFile string) error {
	args := []string{"compose"}
	if composeFile != "" {
		args = append(args, "-f", composeFile)
	}
	args = append(args, "up", "-d")

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker compose up failed: %w\n%s", err, output)
	}
	return nil
}

// WaitReady polls the target with a list call until it succeeds. The
// emulator takes a few seconds to accept requests after its container
// reports running.
func WaitReady(ctx context.Context, target Lister, attempts int, backoff retry.BackoffFunc, log logrus.FieldLogger) error {
	err := retry.Do(ctx, attempts, backoff, func(ctx context.Context) error {
		_, err := target.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err != nil {
			log.WithError(err).Debug("target not ready yet")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("target emulator never became ready: %w", err)
	}
	return nil
}

// DefaultBackoff paces the readiness probe: steady 2s between polls.
var DefaultBackoff = retry.Constant(2 * time.Second)
