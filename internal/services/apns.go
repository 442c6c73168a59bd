package services

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// APNsProvider delivers notifications through Apple Push Notification service
type APNsProvider struct {
	client *apns2.Client
	topic  string
}

// NewAPNsProvider loads the .p12 certificate and builds the APNs client
func NewAPNsProvider(certFile, certPassword, topic string, production bool) (*APNsProvider, error) {
	cert, err := certificate.FromP12File(certFile, certPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsProvider{client: client, topic: topic}, nil
}

// Send implements PushProvider
func (p *APNsProvider) Send(ctx context.Context, token string, n Notification) error {
	pl := payload.NewPayload().
		AlertTitle(n.Title).
		AlertBody(n.Body).
		Sound("default").
		Custom("type", n.Type)
	for k, v := range n.Data {
		pl = pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: token,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if res.Sent() {
		return nil
	}

	switch res.Reason {
	case apns2.ReasonUnregistered, apns2.ReasonBadDeviceToken, apns2.ReasonDeviceTokenNotForTopic:
		return ErrTokenInvalid
	default:
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
}

var _ PushProvider = (*APNsProvider)(nil)
