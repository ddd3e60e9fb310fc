package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"wellness/internal/infra"
)

// Pusher registers devices and publishes push messages.
type Pusher interface {
	Register(ctx context.Context, platform, token string) (string, error)
	Publish(ctx context.Context, endpoint, title, body string) error
}

// PushAPI is the subset of the SNS client the pusher uses.
type PushAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPusher sends through one SNS platform application.
type SNSPusher struct {
	client      PushAPI
	platformARN string
	logger      infra.Logger
}

func NewSNSPusher(client PushAPI, platformARN string, logger *infra.Logger) *SNSPusher {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &SNSPusher{client: client, platformARN: platformARN, logger: infra.Component(*logger, "sns")}
}

// NewSNSClient builds the AWS client used by the pusher.
func NewSNSClient(cfg aws.Config) *sns.Client {
	return sns.NewFromConfig(cfg)
}

func (p *SNSPusher) Register(ctx context.Context, platform, token string) (string, error) {
	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformARN),
		Token:                  aws.String(token),
		CustomUserData:         aws.String(platform),
	})
	if err != nil {
		return "", fmt.Errorf("notify: create endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

func (p *SNSPusher) Publish(ctx context.Context, endpoint, title, body string) error {
	msg, err := pushMessage(title, body)
	if err != nil {
		return err
	}
	if _, err := p.client.Publish(ctx, &sns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(msg),
		TargetArn:        aws.String(endpoint),
	}); err != nil {
		p.logger.Error().Err(err).Msg("publish failed")
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// pushMessage builds the per-platform SNS envelope. Each platform payload is
// itself a JSON string.
func pushMessage(title, body string) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]string{"title": title, "body": body}},
	})
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// LogPusher logs pushes instead of sending them.
type LogPusher struct {
	logger infra.Logger
}

func NewLogPusher(logger infra.Logger) *LogPusher {
	return &LogPusher{logger: infra.Component(logger, "push")}
}

func (p *LogPusher) Register(_ context.Context, platform, token string) (string, error) {
	p.logger.Info().Str("platform", platform).Msg("push device registration (not sent)")
	return "local:" + platform + ":" + token, nil
}

func (p *LogPusher) Publish(_ context.Context, endpoint, title, _ string) error {
	p.logger.Info().Str("endpoint", endpoint).Str("title", title).Msg("push (not sent)")
	return nil
}
