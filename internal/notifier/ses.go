package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"pubcheck/internal/check"
)

const charset = "UTF-8"

// SESAPI is the part of the SES v2 client the mailer calls.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends plain text email through Amazon SES.
type SES struct {
	api    SESAPI
	cfgSet string
}

func NewSES(api SESAPI, configurationSet string) *SES {
	return &SES{api: api, cfgSet: strings.TrimSpace(configurationSet)}
}

func NewSESFromConfig(awsCfg aws.Config, cfg SESConfig) *SES {
	var opts []func(*sesv2.Options)
	if ep := strings.TrimSpace(cfg.AWS.Endpoint); ep != "" {
		opts = append(opts, func(o *sesv2.Options) { o.BaseEndpoint = aws.String(ep) })
	}
	return NewSES(sesv2.NewFromConfig(awsCfg, opts...), cfg.ConfigurationSet)
}

func (s *SES) Send(ctx context.Context, msg check.Message) (string, error) {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: recipients(msg.To)},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String(charset)},
				},
			},
		},
	}
	if rp := strings.TrimSpace(msg.ReturnPath); rp != "" {
		in.FeedbackForwardingEmailAddress = aws.String(rp)
	}
	if s.cfgSet != "" {
		in.ConfigurationSetName = aws.String(s.cfgSet)
	}
	out, err := s.api.SendEmail(ctx, in)
	if err != nil {
		return "", fmt.Errorf("ses: send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

var _ check.Mailer = (*SES)(nil)
