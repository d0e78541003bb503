package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// ErrNoPlatformApplication marks a device whose platform has no SNS
// platform application configured. It is a configuration gap, not a
// failure of the device.
var ErrNoPlatformApplication = errors.New("no platform application configured")

type SNSService interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPush delivers to device tokens through SNS mobile push. Each token is
// registered once as a platform endpoint; the endpoint ARN is cached.
type SNSPush struct {
	client       SNSService
	applications map[models.Platform]string

	mu        sync.Mutex
	endpoints map[string]string
}

// NewSNSPush takes platform application ARNs keyed by platform name.
func NewSNSPush(client SNSService, applications map[string]string) *SNSPush {
	apps := make(map[models.Platform]string, len(applications))
	for platform, arn := range applications {
		apps[models.Platform(platform)] = arn
	}
	return &SNSPush{client: client, applications: apps, endpoints: make(map[string]string)}
}

func (p *SNSPush) Send(ctx context.Context, device models.DeviceEndpoint, msg Message) error {
	arn, err := p.endpointFor(ctx, device)
	if err != nil {
		return err
	}

	payload, err := snsPayload(device.Platform, msg)
	if err != nil {
		return apperrors.NewNotificationSendFailedError("push", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(arn),
		MessageStructure: aws.String("json"),
		Message:          aws.String(payload),
	})
	if err != nil {
		p.forget(device.Token)
		return apperrors.NewNotificationSendFailedError("push", err)
	}
	return nil
}

func (p *SNSPush) endpointFor(ctx context.Context, device models.DeviceEndpoint) (string, error) {
	p.mu.Lock()
	arn, ok := p.endpoints[device.Token]
	p.mu.Unlock()
	if ok {
		return arn, nil
	}

	app, ok := p.applications[device.Platform]
	if !ok || app == "" {
		return "", apperrors.NewNotificationSendFailedError("push",
			fmt.Errorf("%w: %s", ErrNoPlatformApplication, device.Platform))
	}

	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(app),
		Token:                  aws.String(device.Token),
		CustomUserData:         aws.String(device.OwnerUserID),
	})
	if err != nil {
		return "", apperrors.NewNotificationSendFailedError("push", err)
	}
	if out.EndpointArn == nil {
		return "", apperrors.NewNotificationSendFailedError("push", errors.New("empty endpoint arn"))
	}

	p.mu.Lock()
	p.endpoints[device.Token] = *out.EndpointArn
	p.mu.Unlock()
	return *out.EndpointArn, nil
}

func (p *SNSPush) forget(token string) {
	p.mu.Lock()
	delete(p.endpoints, token)
	p.mu.Unlock()
}

// snsPayload builds the per-protocol message document SNS expects with
// MessageStructure=json.
func snsPayload(platform models.Platform, msg Message) (string, error) {
	data := msg.Data()

	var inner interface{}
	var key string
	switch platform {
	case models.PlatformIOS:
		key = "APNS"
		inner = map[string]interface{}{
			"aps": map[string]interface{}{
				"alert": map[string]string{"title": msg.Title, "body": msg.Body},
				"sound": "default",
			},
			"data": data,
		}
	default:
		key = "GCM"
		inner = map[string]interface{}{
			"notification": map[string]string{"title": msg.Title, "body": msg.Body, "icon": msg.Icon},
			"data":         data,
		}
	}

	encoded, err := json.Marshal(inner)
	if err != nil {
		return "", err
	}
	doc := map[string]string{
		"default": msg.Body,
		key:       string(encoded),
	}
	if platform == models.PlatformIOS {
		doc["APNS_SANDBOX"] = string(encoded)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
