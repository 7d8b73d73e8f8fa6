package messaging

import (
	"context"
	"log/slog"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// DefaultChannelBufferSize is the buffer for the inbound event channel.
const DefaultChannelBufferSize = 100

// WhatsAppService implements Service using the Whatsmeow-based client. It
// also surfaces inbound chat messages as models.Inbound events.
type WhatsAppService struct {
	client   whatsapp.Sender
	waClient *whatsapp.Client // nil when constructed with a mock
	inbound  chan models.Inbound
}

// NewWhatsAppService wraps a whatsapp Sender. When the sender is a full
// client, Start wires the inbound event handler.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	s := &WhatsAppService{
		client:  client,
		inbound: make(chan models.Inbound, DefaultChannelBufferSize),
	}
	if waClient, ok := client.(*whatsapp.Client); ok {
		s.waClient = waClient
		slog.Debug("WhatsAppService created with full client")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}
	return s
}

// ValidateAndCanonicalizeRecipient applies the shared digits rule.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeDigits(recipient)
}

// SendMessage delivers a message through the WhatsApp client.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	slog.Debug("WhatsAppService SendMessage", "to", to, "body_length", len(body))
	return s.client.SendMessage(ctx, to, body)
}

// Start registers the inbound event handler when a full client is available.
func (s *WhatsAppService) Start(ctx context.Context) error {
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Debug("WhatsAppService Start: no full client, skipping event handling")
		return nil
	}
	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		msg, ok := evt.(*events.Message)
		if !ok {
			return
		}
		s.handleIncomingMessage(msg)
	})
	slog.Debug("WhatsAppService event handler registered")
	return nil
}

// Inbound returns the channel of incoming chat events.
func (s *WhatsAppService) Inbound() <-chan models.Inbound {
	return s.inbound
}

// handleIncomingMessage converts a whatsmeow message event into a
// models.Inbound. Image attachments are recorded as opaque references; the
// flow only counts them for the photo-collection step.
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}

	var body string
	var media []string
	if msg := evt.Message; msg != nil {
		switch {
		case msg.GetConversation() != "":
			body = msg.GetConversation()
		case msg.GetExtendedTextMessage().GetText() != "":
			body = msg.GetExtendedTextMessage().GetText()
		}
		if img := msg.GetImageMessage(); img != nil {
			body = img.GetCaption()
			media = append(media, "wa-media:"+evt.Info.ID)
		}
	}
	if body == "" && len(media) == 0 {
		slog.Debug("WhatsAppService ignoring unsupported message type", "from", evt.Info.Sender.User)
		return
	}

	in := models.Inbound{
		Sender: evt.Info.Sender.User,
		WaID:   evt.Info.Sender.User,
		Body:   body,
		Media:  media,
	}
	select {
	case s.inbound <- in:
		slog.Debug("WhatsAppService inbound queued", "from", in.Sender, "body_length", len(in.Body))
	default:
		slog.Warn("WhatsAppService inbound channel full, dropping message", "from", in.Sender)
	}
}
