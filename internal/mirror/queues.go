package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sirupsen/logrus"
)

// QueueMigrator mirrors message queues. Queue identity is the trailing
// segment of the source queue URL.
type QueueMigrator struct {
	source SQSAPI
	target SQSAPI
	log    logrus.FieldLogger
}

func NewQueueMigrator(source, target SQSAPI, log logrus.FieldLogger) *QueueMigrator {
	return &QueueMigrator{source: source, target: target, log: log}
}

var _ Migrator = &QueueMigrator{}

func (m *QueueMigrator) Kind() Kind { return KindQueues }

func (m *QueueMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	var urls []string
	var next *string
	for {
		out, err := m.source.ListQueues(ctx, &sqs.ListQueuesInput{NextToken: next})
		if err != nil {
			m.log.WithError(err).Error("listing source queues")
			return []Outcome{kindFailure(m.Kind(), fmt.Errorf("list queues: %w", err))}
		}
		urls = append(urls, out.QueueUrls...)
		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}

	var outcomes []Outcome
	for _, url := range urls {
		name := queueNameFromURL(url)
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := ensureCreated(ctx, m.Kind(), name,
			func(ctx context.Context) (bool, error) {
				return queueExists(ctx, m.target, name)
			},
			func(ctx context.Context) error {
				_, err := m.target.CreateQueue(ctx, &sqs.CreateQueueInput{
					QueueName: aws.String(name),
				})
				return err
			})
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

func queueNameFromURL(url string) string {
	i := strings.LastIndex(url, "/")
	return url[i+1:]
}

func queueExists(ctx context.Context, api SQSAPI, name string) (bool, error) {
	_, err := api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
