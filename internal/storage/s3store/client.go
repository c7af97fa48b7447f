package s3store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig holds the pieces needed to reach an S3-compatible endpoint.
type ClientConfig struct {
	Region string
	// Endpoint overrides the AWS endpoint for R2/MinIO deployments.
	Endpoint string
	// UsePathStyle is required by MinIO; R2 accepts virtual-hosted style.
	UsePathStyle bool
	Credentials  aws.CredentialsProvider
}

// NewClient builds an S3 client from the given configuration, falling
// back to the default credential chain when none is supplied.
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Credentials != nil {
		opts = append(opts, awsconfig.WithCredentialsProvider(cfg.Credentials))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// NewR2Client builds a client for a Cloudflare R2 account. Credentials
// are R2 API tokens.
func NewR2Client(ctx context.Context, accountID, accessKeyID, secretAccessKey string) (*s3.Client, error) {
	return NewClient(ctx, ClientConfig{
		Region:      "auto",
		Endpoint:    "https://" + accountID + ".r2.cloudflarestorage.com",
		Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
	})
}
