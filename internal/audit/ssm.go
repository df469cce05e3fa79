package audit

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/pkg/param"
)

// describeBatchSize is the most values a single Name filter accepts
const describeBatchSize = 10

// SSMClientAPI is the subset of the SSM client used by the checker
type SSMClientAPI interface {
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// STSClientAPI is the subset of the STS client used to validate credentials
type STSClientAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// SSMConfig selects the AWS account and region
type SSMConfig struct {
	Region  string
	Profile string
}

// SSMOption configures an SSMChecker
type SSMOption func(*SSMChecker)

// WithSSMClient sets a custom SSM client
func WithSSMClient(client SSMClientAPI) SSMOption {
	return func(c *SSMChecker) {
		c.ssm = client
	}
}

// WithSTSClient sets a custom STS client
func WithSTSClient(client STSClientAPI) SSMOption {
	return func(c *SSMChecker) {
		c.sts = client
	}
}

// WithSSMLogger sets the logger
func WithSSMLogger(logger *logging.Logger) SSMOption {
	return func(c *SSMChecker) {
		c.logger = logger
	}
}

// SSMChecker looks parameters up in AWS Systems Manager Parameter Store
type SSMChecker struct {
	ssm    SSMClientAPI
	sts    STSClientAPI
	logger *logging.Logger
}

// NewSSMChecker creates a checker. Clients not supplied through options are built from
// the default AWS configuration chain.
func NewSSMChecker(ctx context.Context, cfg SSMConfig, opts ...SSMOption) (*SSMChecker, error) {
	c := &SSMChecker{logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	if c.ssm != nil && c.sts != nil {
		return c, nil
	}

	var configOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, dserrors.UserError{
			Message:    "Failed to load AWS configuration",
			Details:    err.Error(),
			Suggestion: "Check AWS_PROFILE, AWS_REGION or the aws section of paramdocs.yaml",
			Err:        err,
		}
	}
	if c.ssm == nil {
		c.ssm = ssm.NewFromConfig(awsCfg)
	}
	if c.sts == nil {
		c.sts = sts.NewFromConfig(awsCfg)
	}
	return c, nil
}

// Kind implements Checker
func (c *SSMChecker) Kind() param.Kind {
	return param.KindRemoteStore
}

// Validate implements Checker by resolving the caller identity
func (c *SSMChecker) Validate(ctx context.Context) error {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return dserrors.UserError{
			Message:    "Failed to verify AWS credentials",
			Details:    err.Error(),
			Suggestion: "Check AWS credentials and permissions to call sts:GetCallerIdentity",
			Err:        err,
		}
	}
	c.logger.Debug("Auditing as %s", aws.ToString(out.Arn))
	return nil
}

// Exists implements Checker. Names are described in batches with an exact-match
// filter, following pagination.
func (c *SSMChecker) Exists(ctx context.Context, names []string) (map[string]bool, error) {
	found := make(map[string]bool, len(names))
	for start := 0; start < len(names); start += describeBatchSize {
		end := start + describeBatchSize
		if end > len(names) {
			end = len(names)
		}
		batch := names[start:end]

		input := &ssm.DescribeParametersInput{
			ParameterFilters: []types.ParameterStringFilter{
				{
					Key:    aws.String("Name"),
					Option: aws.String("Equals"),
					Values: batch,
				},
			},
		}
		for {
			out, err := c.ssm.DescribeParameters(ctx, input)
			if err != nil {
				return nil, dserrors.UserError{
					Message:    "Failed to describe SSM parameters",
					Details:    err.Error(),
					Suggestion: ssmErrorSuggestion(err),
					Err:        err,
				}
			}
			for _, p := range out.Parameters {
				found[aws.ToString(p.Name)] = true
			}
			if aws.ToString(out.NextToken) == "" {
				break
			}
			input.NextToken = out.NextToken
		}
		c.logger.Debug("Described %d SSM parameter name(s)", len(batch))
	}
	return found, nil
}

func ssmErrorSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "accessdenied"):
		return "Check IAM permissions: ssm:DescribeParameters"
	case strings.Contains(errStr, "throttl"):
		return "Request was throttled. Retry later or audit fewer parameters at once"
	case strings.Contains(errStr, "region"):
		return "Check that you're using the correct AWS region where the parameters are stored"
	case strings.Contains(errStr, "invalidfilter"):
		return "Parameter names may only contain letters, digits, and the characters _.-/"
	default:
		return "Check AWS credentials, region, and IAM permissions for SSM Parameter Store"
	}
}
