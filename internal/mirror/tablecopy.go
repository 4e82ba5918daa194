package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// maxBatchItems is the BatchWriteItem request limit.
const maxBatchItems = 25

// TableCopier streams every item of a source table into its target twin:
// a paginated scan feeding fixed-size write batches. Every source item is
// attempted exactly once, in scan order. A failed batch is recorded and
// the remaining batches continue; there is no automatic retry and no
// deduplication.
type TableCopier struct {
	source DynamoAPI
	target DynamoAPI
	log    logrus.FieldLogger
}

func NewTableCopier(source, target DynamoAPI, log logrus.FieldLogger) *TableCopier {
	return &TableCopier{source: source, target: target, log: log}
}

// CopyStats counts the items that flowed through one copy.
type CopyStats struct {
	Scanned int
	Written int
}

// Copy scans table in the source and batch-writes its items into the
// same-named target table. The returned error joins all batch failures;
// a scan failure aborts the copy at the point reached.
func (c *TableCopier) Copy(ctx context.Context, table string) (CopyStats, error) {
	var (
		stats CopyStats
		batch []types.WriteRequest
		errs  []error
	)

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		n := len(batch)
		res, err := c.target.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: batch},
		})
		batch = nil
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"table": table,
				"items": n,
			}).Error("batch write failed")
			errs = append(errs, fmt.Errorf("batch of %d items: %w", n, err))
			return
		}
		if unprocessed := len(res.UnprocessedItems[table]); unprocessed > 0 {
			errs = append(errs, fmt.Errorf("batch left %d of %d items unprocessed", unprocessed, n))
			n -= unprocessed
		}
		stats.Written += n
	}

	p := dynamodb.NewScanPaginator(c.source, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			flush(ctx)
			errs = append(errs, fmt.Errorf("scanning %s: %w", table, err))
			return stats, errors.Join(errs...)
		}
		for _, item := range page.Items {
			stats.Scanned++
			batch = append(batch, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
			if len(batch) == maxBatchItems {
				flush(ctx)
			}
		}
	}
	flush(ctx)

	c.log.WithFields(logrus.Fields{
		"table":   table,
		"scanned": stats.Scanned,
		"written": stats.Written,
	}).Info("table copy finished")
	return stats, errors.Join(errs...)
}
