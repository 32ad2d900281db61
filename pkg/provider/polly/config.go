package polly

import (
	"context"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
)

type Config struct {
	region string

	accessKey string
	secretKey string

	model string

	client *http.Client
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

func WithRegion(region string) Option {
	return func(c *Config) {
		c.region = region
	}
}

func WithCredentials(accessKey, secretKey string) Option {
	return func(c *Config) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

func (c *Config) newClient(ctx context.Context) (*polly.Client, error) {
	var options []func(*awsconfig.LoadOptions) error

	if c.region != "" {
		options = append(options, awsconfig.WithRegion(c.region))
	}

	if c.accessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.accessKey, c.secretKey, "")))
	}

	if c.client != nil {
		options = append(options, awsconfig.WithHTTPClient(c.client))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)

	if err != nil {
		return nil, err
	}

	return polly.NewFromConfig(cfg), nil
}
