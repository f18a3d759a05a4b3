package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/logger"
)

// fallbackRegion is used when neither the profile nor the flag sets one.
// ListBuckets answers from any region.
const fallbackRegion = "us-east-1"

// S3Config holds the configuration for S3 connection. Region is only used
// when the profile and the environment set none.
type S3Config struct {
	Profile         string `json:"profile"`
	CredentialsFile string `json:"credentials_file"`
	EndpointURL     string `json:"endpoint_url"`
	Region          string `json:"region"`
}

// S3Operations interface for dependency injection
type S3Operations interface {
	ListBuckets(ctx context.Context) ([]string, error)
	TestConnection(ctx context.Context) error
}

// S3ServiceCreator is a function type for creating S3 services
type S3ServiceCreator func(ctx context.Context, cfg S3Config) (S3Operations, error)

// AWSS3Service implements S3Operations using AWS SDK
type AWSS3Service struct {
	client *s3.Client
	config S3Config
}

// NewS3Service creates an S3Operations backed by the shared credentials file
// named in cfg.
func NewS3Service(ctx context.Context, cfg S3Config) (S3Operations, error) {
	var options []func(*config.LoadOptions) error

	if cfg.Profile != "" {
		options = append(options, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.CredentialsFile != "" {
		options = append(options, config.WithSharedCredentialsFiles([]string{cfg.CredentialsFile}))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsConfig.Region == "" {
		awsConfig.Region = cfg.Region
	}
	if awsConfig.Region == "" {
		awsConfig.Region = fallbackRegion
	}

	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services
	if cfg.EndpointURL != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		})
	}

	return &AWSS3Service{
		client: s3.NewFromConfig(awsConfig, s3Options...),
		config: cfg,
	}, nil
}

// ListBuckets returns a list of all buckets
func (s *AWSS3Service) ListBuckets(ctx context.Context) ([]string, error) {
	result, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]string, len(result.Buckets))
	for i, bucket := range result.Buckets {
		if bucket.Name != nil {
			buckets[i] = *bucket.Name
		}
	}

	return buckets, nil
}

// TestConnection verifies that the S3 service accepts the credentials
func (s *AWSS3Service) TestConnection(ctx context.Context) error {
	if _, err := s.ListBuckets(ctx); err != nil {
		return fmt.Errorf("failed to connect to S3: %w", err)
	}
	return nil
}

// CredentialChecker proves that a profile's key material is accepted by AWS
type CredentialChecker struct {
	create S3ServiceCreator
	logger *slog.Logger
}

// NewCredentialChecker creates a checker using create to build S3 clients
func NewCredentialChecker(create S3ServiceCreator, log *slog.Logger) *CredentialChecker {
	return &CredentialChecker{
		create: create,
		logger: logger.WithComponent(log, "checker"),
	}
}

// Check calls S3 with the credentials of cfg.Profile
func (c *CredentialChecker) Check(ctx context.Context, cfg S3Config) error {
	svc, err := c.create(ctx, cfg)
	if err != nil {
		return swerrors.NewConnectionError(cfg.Profile, err)
	}
	if err := svc.TestConnection(ctx); err != nil {
		return swerrors.NewConnectionError(cfg.Profile, err)
	}

	c.logger.Info("Credentials accepted", "profile", cfg.Profile, "endpoint", cfg.EndpointURL)
	return nil
}
