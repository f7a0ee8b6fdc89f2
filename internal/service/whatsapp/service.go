package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/domain/models"
	client "github.com/mamadbah2/feedlot/pkg/clients/whatsapp"
)

// Notifier pushes a text message to the feedlot operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	Notifier
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// Notify sends message to the configured operator.
func (s *MetaWhatsAppService) Notify(ctx context.Context, message string) error {
	return s.SendOutbound(ctx, models.OutboundMessageRequest{Message: message})
}

// SendOutbound lets internal operators push quick notifications via HTTP. An
// empty recipient defaults to the operator.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return models.NewValidationError("message", "must not be empty")
	}
	to := req.To
	if to == "" {
		to = s.cfg.OperatorID
	}
	if to == "" {
		return errors.New("no recipient and no operator configured")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, to, req.Message)
	if err != nil {
		return fmt.Errorf("notify %s: %w", to, err)
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

// NopService drops every message. It is used when WhatsApp is not configured.
type NopService struct {
	logger *zap.Logger
}

// NewNopService builds a NopService.
func NewNopService(logger *zap.Logger) *NopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopService{logger: logger}
}

// Notify logs and discards message.
func (n *NopService) Notify(_ context.Context, message string) error {
	n.logger.Debug("notification dropped", zap.String("message", message))
	return nil
}

// SendOutbound logs and discards the request.
func (n *NopService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return models.NewValidationError("message", "must not be empty")
	}
	return n.Notify(ctx, req.Message)
}
