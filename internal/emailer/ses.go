package emailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/models"
	"github.com/vinciere/coming-soon/pkg/logger"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	client sesAPI
	from   string
	logger zerolog.Logger
}

// NewSESSender loads the default AWS credential chain, preferring static keys
// when both are configured.
func NewSESSender(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SES.Region),
	}
	if cfg.SES.AccessKey != "" && cfg.SES.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SES.AccessKey, cfg.SES.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newSESSender(sesv2.NewFromConfig(awsCfg), cfg.Sender(), l), nil
}

func newSESSender(client sesAPI, from string, l zerolog.Logger) *SESSender {
	return &SESSender{
		client: client,
		from:   from,
		logger: l.With().Str("component", "SESSender").Logger(),
	}
}

func (s *SESSender) Send(ctx context.Context, msg models.Message) error {
	from := msg.From
	if from == "" {
		from = s.from
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("to", logger.RedactEmail(msg.To)).
			Msg("ses send failed")
		return fmt.Errorf("ses: failed to send email: %w", err)
	}

	sesID := ""
	if out != nil && out.MessageId != nil {
		sesID = *out.MessageId
	}
	s.logger.Info().
		Str("message_id", msg.ID).
		Str("ses_id", sesID).
		Str("to", logger.RedactEmail(msg.To)).
		Msg("email sent successfully")
	return nil
}
