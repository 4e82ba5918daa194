package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// TableMigrator mirrors tabular stores: table schema first, then, when
// data copy is requested, a full streaming copy of the items.
type TableMigrator struct {
	source DynamoAPI
	target DynamoAPI
	copier *TableCopier

	// waitReady blocks until a freshly created target table accepts
	// writes. The target is eventually consistent after create.
	waitReady func(ctx context.Context, table string) error

	log logrus.FieldLogger
}

func NewTableMigrator(source, target DynamoAPI, log logrus.FieldLogger) *TableMigrator {
	return &TableMigrator{
		source: source,
		target: target,
		copier: NewTableCopier(source, target, log),
		waitReady: func(ctx context.Context, table string) error {
			waiter := dynamodb.NewTableExistsWaiter(target)
			return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
				TableName: aws.String(table),
			}, 2*time.Minute)
		},
		log: log,
	}
}

var _ Migrator = &TableMigrator{}

func (m *TableMigrator) Kind() Kind { return KindTables }

func (m *TableMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	var names []string
	var start *string
	for {
		out, err := m.source.ListTables(ctx, &dynamodb.ListTablesInput{
			ExclusiveStartTableName: start,
		})
		if err != nil {
			m.log.WithError(err).Error("listing source tables")
			return []Outcome{kindFailure(m.Kind(), fmt.Errorf("list tables: %w", err))}
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			break
		}
		start = out.LastEvaluatedTableName
	}

	var outcomes []Outcome
	for _, name := range names {
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := m.migrateOne(ctx, name, req.CopyData)
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

func (m *TableMigrator) migrateOne(ctx context.Context, name string, copyData bool) Outcome {
	desc, err := m.source.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return failed(m.Kind(), name, fmt.Errorf("describe table: %w", err))
	}

	input, err := translateTable(desc.Table)
	if err != nil {
		return failed(m.Kind(), name, err)
	}

	oc := ensureCreated(ctx, m.Kind(), name,
		func(ctx context.Context) (bool, error) {
			return tableExists(ctx, m.target, name)
		},
		func(ctx context.Context) error {
			_, err := m.target.CreateTable(ctx, input)
			return err
		})

	// Items are copied only for freshly created tables; a re-run against a
	// populated target would rewrite the same keys for nothing.
	if copyData && oc.Status == StatusCreated {
		oc.Copy = m.copyItems(ctx, name)
	}
	return oc
}

func (m *TableMigrator) copyItems(ctx context.Context, name string) *CopyOutcome {
	if err := m.waitReady(ctx, name); err != nil {
		return &CopyOutcome{Err: fmt.Errorf("waiting for target table: %w", err)}
	}
	stats, err := m.copier.Copy(ctx, name)
	return &CopyOutcome{Scanned: stats.Scanned, Written: stats.Written, Err: err}
}

// translateTable derives the target creation request from a source table
// descriptor. Key schema and attribute definitions carry over verbatim.
// On-demand tables emit no throughput fields; provisioned tables floor
// read and write capacity at 1 everywhere, since the target rejects
// zero-capacity tables and indexes.
func translateTable(desc *types.TableDescription) (*dynamodb.CreateTableInput, error) {
	if desc == nil || aws.ToString(desc.TableName) == "" {
		return nil, &TranslationError{Field: "TableName"}
	}
	if len(desc.KeySchema) == 0 {
		return nil, &TranslationError{Field: "KeySchema"}
	}

	onDemand := desc.BillingModeSummary != nil &&
		desc.BillingModeSummary.BillingMode == types.BillingModePayPerRequest

	input := &dynamodb.CreateTableInput{
		TableName:            desc.TableName,
		KeySchema:            desc.KeySchema,
		AttributeDefinitions: desc.AttributeDefinitions,
	}

	if onDemand {
		input.BillingMode = types.BillingModePayPerRequest
	} else {
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = flooredThroughput(desc.ProvisionedThroughput)
	}

	for _, gsi := range desc.GlobalSecondaryIndexes {
		out := types.GlobalSecondaryIndex{
			IndexName:  gsi.IndexName,
			KeySchema:  gsi.KeySchema,
			Projection: gsi.Projection,
		}
		if !onDemand {
			out.ProvisionedThroughput = flooredThroughput(gsi.ProvisionedThroughput)
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, out)
	}

	for _, lsi := range desc.LocalSecondaryIndexes {
		input.LocalSecondaryIndexes = append(input.LocalSecondaryIndexes, types.LocalSecondaryIndex{
			IndexName:  lsi.IndexName,
			KeySchema:  lsi.KeySchema,
			Projection: lsi.Projection,
		})
	}

	return input, nil
}

// flooredThroughput clamps provisioned capacity to the target's minimum
// of one unit. Descriptors for on-demand tables report zero here.
func flooredThroughput(tp *types.ProvisionedThroughputDescription) *types.ProvisionedThroughput {
	read, write := int64(1), int64(1)
	if tp != nil {
		if v := aws.ToInt64(tp.ReadCapacityUnits); v > 1 {
			read = v
		}
		if v := aws.ToInt64(tp.WriteCapacityUnits); v > 1 {
			write = v
		}
	}
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(read),
		WriteCapacityUnits: aws.Int64(write),
	}
}

func tableExists(ctx context.Context, api DynamoAPI, name string) (bool, error) {
	_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
