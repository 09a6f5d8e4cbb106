package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client satisfies it.
type ssmAPI interface {
	GetParameters(ctx context.Context, in *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// Client reads decrypted SecureString parameters from AWS SSM Parameter Store
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameters fetches the named parameters in a single call.
// Blank names are skipped; any name SSM does not know fails the whole lookup.
func (c *Client) GetParameters(ctx context.Context, names ...string) (map[string]string, error) {
	if c.api == nil {
		return nil, errors.New("paramstore: client not initialized")
	}

	wanted := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			wanted = append(wanted, name)
		}
	}
	if len(wanted) == 0 {
		return map[string]string{}, nil
	}

	out, err := c.api.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          wanted,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("paramstore: get parameters: %w", err)
	}
	if len(out.InvalidParameters) > 0 {
		return nil, fmt.Errorf("paramstore: unknown parameters: %s", strings.Join(out.InvalidParameters, ", "))
	}

	values := make(map[string]string, len(out.Parameters))
	for _, p := range out.Parameters {
		if p.Name == nil || p.Value == nil {
			return nil, errors.New("paramstore: parameter missing value")
		}
		values[*p.Name] = *p.Value
	}

	return values, nil
}
