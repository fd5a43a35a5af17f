package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"

	"github.com/lewisedginton/support_relay/internal/store"
	"github.com/lewisedginton/support_relay/internal/translate"
	"github.com/lewisedginton/support_relay/internal/wecom"
	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/lewisedginton/support_relay/pkg/metrics"
)

// HandleWeComMessage relays one decrypted enterprise message to the
// administrator. Enterprise senders get no ticket or header card, only a
// per-message relay.
func (e *Engine) HandleWeComMessage(ctx context.Context, msg *wecom.Message) {
	e.count(metrics.RelayInboundWeCom)

	now := time.Now().UTC()
	log := e.log.WithFields(logger.StringField("member_id", msg.FromUser))

	state := e.store.Load(ctx)
	meta := state.TouchMember(msg.FromUser, now)

	var relayText string
	if msg.IsText() {
		if lang := translate.DetectLanguage(msg.Content); lang != "" {
			meta.Language = lang
		}
		relayText = fmt.Sprintf("🏢 WeCom message from %s:\n\n%s", msg.FromUser, msg.Content)
	} else {
		relayText = fmt.Sprintf("🏢 WeCom message from %s: unsupported kind %q. Ask the member to resend as plain text.", msg.FromUser, msg.MsgType)
	}

	sent, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.opts.AdminChatID,
		Text:   relayText,
	})
	if err != nil {
		e.count(metrics.RelayDeliveryFailures)
		log.Error("Failed to relay enterprise message to administrator", logger.ErrorField(err))
		return
	}
	state.Routes.Record(sent.ID, store.WeComRoute(msg.FromUser))

	if msg.IsText() {
		e.postTranslationFollowUp(ctx, msg.Content, meta.Language, sent.ID, log)
	}

	if err := e.store.Save(ctx, state); err != nil {
		log.Error("Failed to persist state", logger.ErrorField(err))
	}
}
