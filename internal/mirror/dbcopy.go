package mirror

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/acksell/localmirror/internal/retry"
)

// DatabaseEndpoint is one side of the relational copy pipe. Credentials
// come from configuration, never from a resource descriptor.
type DatabaseEndpoint struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

func (e DatabaseEndpoint) addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// DatabaseCopier copies a MySQL-family database by piping an external
// mysqldump into the target instance. The intermediate dump artifact is
// removed on every exit path.
type DatabaseCopier struct {
	attempts int
	backoff  retry.BackoffFunc

	// runCommand and dial are swapped out in tests.
	runCommand func(ctx context.Context, name string, args []string, stdinPath, stdoutPath string) error
	dial       func(addr string, timeout time.Duration) error

	log logrus.FieldLogger
}

func NewDatabaseCopier(log logrus.FieldLogger) *DatabaseCopier {
	return &DatabaseCopier{
		attempts:   12,
		backoff:    retry.Constant(5 * time.Second),
		runCommand: runCommand,
		dial: func(addr string, timeout time.Duration) error {
			conn, err := net.DialTimeout("tcp", addr, timeout)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		log: log,
	}
}

// Copy dumps source into a temp artifact, waits for the target to become
// reachable, then restores the artifact into the target database.
func (c *DatabaseCopier) Copy(ctx context.Context, source, target DatabaseEndpoint) error {
	if source.Name == "" {
		return &TranslationError{Field: "DBName"}
	}

	dump, err := os.CreateTemp("", "localmirror-dump-*.sql")
	if err != nil {
		return fmt.Errorf("creating dump artifact: %w", err)
	}
	dumpPath := dump.Name()
	dump.Close()
	defer func() {
		if err := os.Remove(dumpPath); err != nil && !os.IsNotExist(err) {
			c.log.WithError(err).Warn("removing dump artifact")
		}
	}()

	c.log.WithFields(logrus.Fields{
		"database": source.Name,
		"host":     source.Host,
	}).Info("dumping source database")
	if err := c.runCommand(ctx, "mysqldump", []string{
		"-h", source.Host,
		"-P", strconv.Itoa(source.Port),
		"-u", source.User,
		"-p" + source.Password,
		"--single-transaction",
		source.Name,
	}, "", dumpPath); err != nil {
		return fmt.Errorf("dumping %s: %w", source.Name, err)
	}

	if err := c.waitReachable(ctx, target); err != nil {
		return fmt.Errorf("target database unreachable: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"database": target.Name,
		"host":     target.Host,
	}).Info("restoring into target database")
	if err := c.runCommand(ctx, "mysql", []string{
		"-h", target.Host,
		"-P", strconv.Itoa(target.Port),
		"-u", target.User,
		"-p" + target.Password,
		target.Name,
	}, dumpPath, ""); err != nil {
		return fmt.Errorf("restoring %s: %w", target.Name, err)
	}
	return nil
}

func (c *DatabaseCopier) waitReachable(ctx context.Context, target DatabaseEndpoint) error {
	return retry.Do(ctx, c.attempts, c.backoff, func(ctx context.Context) error {
		return c.dial(target.addr(), 2*time.Second)
	})
}

// runCommand executes an external binary with optional file-backed stdin
// and stdout. Stderr ends up in the returned error.
func runCommand(ctx context.Context, name string, args []string, stdinPath, stdoutPath string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	if stdinPath != "" {
		in, err := os.Open(stdinPath)
		if err != nil {
			return err
		}
		defer in.Close()
		cmd.Stdin = in
	}
	if stdoutPath != "" {
		out, err := os.Create(stdoutPath)
		if err != nil {
			return err
		}
		defer out.Close()
		cmd.Stdout = out
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, stderr.String())
	}
	return nil
}
