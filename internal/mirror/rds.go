package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/sirupsen/logrus"
)

// DBInstanceMigrator mirrors managed relational database instances.
// Instance class and engine carry over verbatim; the master credential
// pair is replaced with target-local credentials, source credentials are
// never written into a target creation request. Data copy is a dump and
// restore pipe, MySQL-family engines only.
type DBInstanceMigrator struct {
	source RDSAPI
	target RDSAPI
	copier *DatabaseCopier

	sourceDB DatabaseEndpoint
	targetDB DatabaseEndpoint

	log logrus.FieldLogger
}

func NewDBInstanceMigrator(source, target RDSAPI, copier *DatabaseCopier, sourceDB, targetDB DatabaseEndpoint, log logrus.FieldLogger) *DBInstanceMigrator {
	return &DBInstanceMigrator{
		source:   source,
		target:   target,
		copier:   copier,
		sourceDB: sourceDB,
		targetDB: targetDB,
		log:      log,
	}
}

var _ Migrator = &DBInstanceMigrator{}

func (m *DBInstanceMigrator) Kind() Kind { return KindDBInstances }

func (m *DBInstanceMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	var instances []rdstypes.DBInstance
	var marker *string
	for {
		out, err := m.source.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
			Marker: marker,
		})
		if err != nil {
			m.log.WithError(err).Error("listing source db instances")
			return []Outcome{kindFailure(m.Kind(), fmt.Errorf("describe db instances: %w", err))}
		}
		instances = append(instances, out.DBInstances...)
		if out.Marker == nil {
			break
		}
		marker = out.Marker
	}

	var outcomes []Outcome
	for _, inst := range instances {
		name := aws.ToString(inst.DBInstanceIdentifier)
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := m.migrateOne(ctx, inst, req.CopyData)
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

func (m *DBInstanceMigrator) migrateOne(ctx context.Context, inst rdstypes.DBInstance, copyData bool) Outcome {
	name := aws.ToString(inst.DBInstanceIdentifier)

	input, err := translateDBInstance(inst, m.targetDB)
	if err != nil {
		return failed(m.Kind(), name, err)
	}

	oc := ensureCreated(ctx, m.Kind(), name,
		func(ctx context.Context) (bool, error) {
			return dbInstanceExists(ctx, m.target, name)
		},
		func(ctx context.Context) error {
			_, err := m.target.CreateDBInstance(ctx, input)
			return err
		})

	if copyData && oc.Status == StatusCreated {
		oc.Copy = m.copyDatabase(ctx, inst)
	}
	return oc
}

func (m *DBInstanceMigrator) copyDatabase(ctx context.Context, inst rdstypes.DBInstance) *CopyOutcome {
	engine := aws.ToString(inst.Engine)
	if !mysqlFamily(engine) {
		m.log.WithFields(logrus.Fields{
			"instance": aws.ToString(inst.DBInstanceIdentifier),
			"engine":   engine,
		}).Info("engine not mysql-family, skipping data copy")
		return &CopyOutcome{Skipped: true}
	}

	source := m.sourceDB
	if source.Name == "" {
		source.Name = aws.ToString(inst.DBName)
	}
	if source.Host == "" && inst.Endpoint != nil {
		source.Host = aws.ToString(inst.Endpoint.Address)
	}

	if err := m.copier.Copy(ctx, source, m.targetDB); err != nil {
		return &CopyOutcome{Err: err}
	}
	return &CopyOutcome{}
}

// translateDBInstance derives the target creation request. creds supplies
// the master credential pair local to the target environment.
func translateDBInstance(inst rdstypes.DBInstance, creds DatabaseEndpoint) (*rds.CreateDBInstanceInput, error) {
	if aws.ToString(inst.DBInstanceIdentifier) == "" {
		return nil, &TranslationError{Field: "DBInstanceIdentifier"}
	}
	if aws.ToString(inst.DBName) == "" {
		return nil, &TranslationError{Field: "DBName"}
	}
	return &rds.CreateDBInstanceInput{
		DBInstanceIdentifier: inst.DBInstanceIdentifier,
		DBInstanceClass:      inst.DBInstanceClass,
		Engine:               inst.Engine,
		DBName:               inst.DBName,
		MasterUsername:       aws.String(creds.User),
		MasterUserPassword:   aws.String(creds.Password),
	}, nil
}

// mysqlFamily reports whether the dump/restore pipe can handle engine.
func mysqlFamily(engine string) bool {
	engine = strings.ToLower(engine)
	return strings.Contains(engine, "mysql") || strings.Contains(engine, "mariadb")
}

func dbInstanceExists(ctx context.Context, api RDSAPI, id string) (bool, error) {
	_, err := api.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}
