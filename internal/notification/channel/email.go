package channel

import (
	"context"

	apperrors "expense-approvals/internal/common/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmail struct {
	client SESService
	from   string
}

func NewSESEmail(client SESService, fromEmail string) *SESEmail {
	return &SESEmail{client: client, from: fromEmail}
}

func (e *SESEmail) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := e.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(e.from),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}
