package fakes

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSSMClient is an in-memory SSM Parameter Store answering DescribeParameters
type FakeSSMClient struct {
	mu sync.Mutex

	// Parameters maps parameter names to their metadata
	Parameters map[string]ssmtypes.ParameterMetadata
	// Err is returned by every call when set
	Err error
	// PageSize splits results into pages linked by NextToken when positive
	PageSize int
	// DescribeParametersFunc allows custom behavior for DescribeParameters
	DescribeParametersFunc func(ctx context.Context, params *ssm.DescribeParametersInput) (*ssm.DescribeParametersOutput, error)
	// Calls records every input received
	Calls []*ssm.DescribeParametersInput
}

// NewFakeSSMClient creates an empty fake
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]ssmtypes.ParameterMetadata),
	}
}

// AddParameter stores a String parameter under each name
func (f *FakeSSMClient) AddParameter(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, name := range names {
		f.Parameters[name] = ssmtypes.ParameterMetadata{
			Name:             aws.String(name),
			Type:             ssmtypes.ParameterTypeString,
			Version:          1,
			LastModifiedDate: &now,
			ARN:              aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
			Tier:             ssmtypes.ParameterTierStandard,
		}
	}
}

// DescribeParameters mocks the DescribeParameters operation. Only Name filters with
// the Equals option are understood.
func (f *FakeSSMClient) DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *params
	f.Calls = append(f.Calls, &copied)

	if f.DescribeParametersFunc != nil {
		return f.DescribeParametersFunc(ctx, params)
	}
	if f.Err != nil {
		return nil, f.Err
	}

	var matched []ssmtypes.ParameterMetadata
	for _, filter := range params.ParameterFilters {
		if aws.ToString(filter.Key) != "Name" {
			continue
		}
		if opt := aws.ToString(filter.Option); opt != "" && opt != "Equals" {
			return nil, fmt.Errorf("fake: unsupported filter option %q", opt)
		}
		if len(filter.Values) > 10 {
			return nil, fmt.Errorf("InvalidFilterValue: at most 10 values, got %d", len(filter.Values))
		}
		for _, v := range filter.Values {
			if meta, ok := f.Parameters[v]; ok {
				matched = append(matched, meta)
			}
		}
	}

	if f.PageSize <= 0 {
		return &ssm.DescribeParametersOutput{Parameters: matched}, nil
	}

	offset := 0
	if tok := aws.ToString(params.NextToken); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("fake: bad token %q", tok)
		}
		offset = n
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + f.PageSize
	out := &ssm.DescribeParametersOutput{}
	if end < len(matched) {
		out.NextToken = aws.String(strconv.Itoa(end))
	} else {
		end = len(matched)
	}
	out.Parameters = matched[offset:end]
	return out, nil
}

// CallCount returns how many DescribeParameters calls were made
func (f *FakeSSMClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeSTSClient answers GetCallerIdentity
type FakeSTSClient struct {
	// Arn is the identity returned
	Arn string
	// Err is returned when set
	Err error
}

// NewFakeSTSClient creates a fake with a fixed test identity
func NewFakeSTSClient() *FakeSTSClient {
	return &FakeSTSClient{Arn: "arn:aws:iam::123456789012:user/paramdocs-test"}
}

// GetCallerIdentity mocks the GetCallerIdentity operation
func (f *FakeSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String(f.Arn),
		UserId:  aws.String("AIDAEXAMPLE"),
	}, nil
}
