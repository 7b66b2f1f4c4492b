package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/events"
)

// NotificationService handles out-of-band delivery for domain events: the
// staff activation link, task alerts, and webhook fan-out.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserInvited, n.handleUserInvited)
	n.dispatcher.Subscribe(events.EventTaskCreated, n.handleTaskEvent)
	n.dispatcher.Subscribe(events.EventTaskResolved, n.handleTaskEvent)
	n.dispatcher.Subscribe(events.EventDeviceEnrolled, n.handleDeviceEnrolled)
}

func (n *NotificationService) handleUserInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserInvitedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("UserInvited", zap.String("email", payload.Email), zap.String("role", string(payload.Role)))
	n.sendEmailStub(ctx, payload.Email, n.activationLink(payload.Token))
	return nil
}

func (n *NotificationService) handleTaskEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDeviceEnrolled(ctx context.Context, event events.Event) error {
	n.logger.Info("DeviceEnrolled", zap.Any("payload", event.Payload))
	return nil
}

// activationLink embeds the verification token in a clickable link; the
// invitee lands on the registration page with the token prefilled.
func (n *NotificationService) activationLink(token string) string {
	base := strings.TrimRight(n.cfg.PortalURL, "/")
	if base == "" {
		return token
	}
	return base + "/activate?token=" + token
}

func (n *NotificationService) sendEmailStub(_ context.Context, to, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("link", link))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
