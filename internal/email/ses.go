package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"bookbliss/internal/types"
)

// SESAPI defines the subset of the SES v2 client used by SESProvider.
// Extracted for testability; tests provide a mock implementation.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProvider implements Provider using AWS SES v2. Authentication is handled
// via IAM roles; the SDK provides built-in retry logic.
type SESProvider struct {
	api           SESAPI
	configSetName string
}

// SESProviderConfig holds the configuration for creating an SESProvider.
type SESProviderConfig struct {
	// ConfigSetName is the SES configuration set for delivery tracking.
	// Optional; if empty, no configuration set is used.
	ConfigSetName string
}

// NewSESProvider creates an SESProvider from an AWS config.
func NewSESProvider(awsCfg aws.Config, cfg SESProviderConfig) *SESProvider {
	return &SESProvider{
		api:           sesv2.NewFromConfig(awsCfg),
		configSetName: cfg.ConfigSetName,
	}
}

// NewSESProviderWithAPI creates an SESProvider with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESProviderWithAPI(api SESAPI, cfg SESProviderConfig) *SESProvider {
	return &SESProvider{
		api:           api,
		configSetName: cfg.ConfigSetName,
	}
}

// Send transmits a plain-text email via SES v2 SendEmail.
//
// Error mapping:
//   - MessageRejected → ErrCodeEmailBlocked
//   - TooManyRequestsException → ErrCodeUpstreamRateLimit
//   - SendingPausedException → ErrCodeUpstreamEmail
//   - Other → ErrCodeUpstreamEmail
func (p *SESProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	fromAddr := input.From.Address
	if input.From.Name != "" {
		fromAddr = fmt.Sprintf("%s <%s>", input.From.Name, input.From.Address)
	}

	emailInput := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddr),
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(input.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Text: &sestypes.Content{
						Data:    aws.String(input.Body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if p.configSetName != "" {
		emailInput.ConfigurationSetName = aws.String(p.configSetName)
	}

	// Tag the message with the order reference for correlation.
	if input.ReferenceID != "" {
		emailInput.EmailTags = []sestypes.MessageTag{
			{
				Name:  aws.String("ReferenceID"),
				Value: aws.String(input.ReferenceID),
			},
		}
	}

	result, err := p.api.SendEmail(ctx, emailInput)
	if err != nil {
		return "", mapSESError(err)
	}

	msgID := ""
	if result.MessageId != nil {
		msgID = *result.MessageId
	}
	return msgID, nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeEmailBlocked,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimit,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(
			types.ErrCodeUpstreamEmail,
			fmt.Sprintf("SES account sending paused: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamEmail,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESProvider satisfies Provider.
var _ Provider = (*SESProvider)(nil)
