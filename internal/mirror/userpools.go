package mirror

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// listPoolsPageSize is the ListUserPools maximum page size.
const listPoolsPageSize = 60

// UserPoolMigrator mirrors identity pools. Pools may reference compute
// functions through their trigger configuration; those references are
// stubbed into the target before the pool itself is created so the target
// never holds a dangling trigger.
type UserPoolMigrator struct {
	source  CognitoAPI
	target  CognitoAPI
	stubber *Stubber
	log     logrus.FieldLogger
}

func NewUserPoolMigrator(source, target CognitoAPI, stubber *Stubber, log logrus.FieldLogger) *UserPoolMigrator {
	return &UserPoolMigrator{source: source, target: target, stubber: stubber, log: log}
}

var _ Migrator = &UserPoolMigrator{}

func (m *UserPoolMigrator) Kind() Kind { return KindUserPools }

func (m *UserPoolMigrator) Migrate(ctx context.Context, req Request) []Outcome {
	pools, err := listUserPools(ctx, m.source)
	if err != nil {
		m.log.WithError(err).Error("listing source user pools")
		return []Outcome{kindFailure(m.Kind(), fmt.Errorf("list user pools: %w", err))}
	}

	var outcomes []Outcome
	for _, pool := range pools {
		name := aws.ToString(pool.Name)
		if !req.Filter.Matches(name) {
			outcomes = append(outcomes, skipped(m.Kind(), name))
			continue
		}
		oc := m.migrateOne(ctx, aws.ToString(pool.Id), name)
		logOutcome(m.log, oc)
		outcomes = append(outcomes, oc)
	}
	return outcomes
}

func (m *UserPoolMigrator) migrateOne(ctx context.Context, id, name string) Outcome {
	desc, err := m.source.DescribeUserPool(ctx, &cognito.DescribeUserPoolInput{
		UserPoolId: aws.String(id),
	})
	if err != nil {
		return failed(m.Kind(), name, fmt.Errorf("describe user pool: %w", err))
	}

	input, err := translateUserPool(desc.UserPool)
	if err != nil {
		return failed(m.Kind(), name, err)
	}

	// Trigger targets must exist before the pool references them.
	if triggers := triggerReferences(desc.UserPool.LambdaConfig); len(triggers) > 0 {
		m.stubber.EnsureFunctions(ctx, triggers)
	}

	return ensureCreated(ctx, m.Kind(), name,
		func(ctx context.Context) (bool, error) {
			return userPoolExists(ctx, m.target, name)
		},
		func(ctx context.Context) error {
			_, err := m.target.CreateUserPool(ctx, input)
			return err
		})
}

// translateUserPool carries over policies, auto-verified attributes and
// the trigger configuration, plus one minimal custom schema attribute for
// compatibility with targets that reject empty schemas.
func translateUserPool(pool *cognitotypes.UserPoolType) (*cognito.CreateUserPoolInput, error) {
	if pool == nil || aws.ToString(pool.Name) == "" {
		return nil, &TranslationError{Field: "Name"}
	}
	return &cognito.CreateUserPoolInput{
		PoolName:               pool.Name,
		Policies:               pool.Policies,
		AutoVerifiedAttributes: pool.AutoVerifiedAttributes,
		LambdaConfig:           pool.LambdaConfig,
		Schema: []cognitotypes.SchemaAttributeType{{
			Name:              aws.String("mirrored"),
			AttributeDataType: cognitotypes.AttributeDataTypeString,
			Mutable:           aws.Bool(true),
		}},
	}, nil
}

// triggerReferences flattens the pool's trigger configuration into a
// trigger-name to function-reference map for the stubber.
func triggerReferences(cfg *cognitotypes.LambdaConfigType) map[string]string {
	if cfg == nil {
		return nil
	}
	refs := map[string]*string{
		"PreSignUp":                   cfg.PreSignUp,
		"CustomMessage":               cfg.CustomMessage,
		"PostConfirmation":            cfg.PostConfirmation,
		"PreAuthentication":           cfg.PreAuthentication,
		"PostAuthentication":          cfg.PostAuthentication,
		"DefineAuthChallenge":         cfg.DefineAuthChallenge,
		"CreateAuthChallenge":         cfg.CreateAuthChallenge,
		"VerifyAuthChallengeResponse": cfg.VerifyAuthChallengeResponse,
		"PreTokenGeneration":          cfg.PreTokenGeneration,
		"UserMigration":               cfg.UserMigration,
	}
	out := make(map[string]string)
	for trigger, arn := range refs {
		if v := aws.ToString(arn); v != "" {
			out[trigger] = v
		}
	}
	return out
}

func listUserPools(ctx context.Context, api CognitoAPI) ([]cognitotypes.UserPoolDescriptionType, error) {
	var pools []cognitotypes.UserPoolDescriptionType
	var next *string
	for {
		out, err := api.ListUserPools(ctx, &cognito.ListUserPoolsInput{
			MaxResults: aws.Int32(listPoolsPageSize),
			NextToken:  next,
		})
		if err != nil {
			return nil, err
		}
		pools = append(pools, out.UserPools...)
		if out.NextToken == nil {
			return pools, nil
		}
		next = out.NextToken
	}
}

// userPoolExists matches by pool name: the target assigns its own pool
// ids, so name is the only stable identity across environments.
func userPoolExists(ctx context.Context, api CognitoAPI, name string) (bool, error) {
	pools, err := listUserPools(ctx, api)
	if err != nil {
		return false, err
	}
	for _, p := range pools {
		if aws.ToString(p.Name) == name {
			return true, nil
		}
	}
	return false, nil
}
