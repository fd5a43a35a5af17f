package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/lewisedginton/support_relay/internal/store"
	"github.com/lewisedginton/support_relay/internal/translate"
	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/lewisedginton/support_relay/pkg/metrics"
)

// handleAdminReply resolves the replied-to message through the reverse
// index and dispatches the administrator's reply to the remote party.
// Failures are reported back as chat messages, never propagated.
func (e *Engine) handleAdminReply(ctx context.Context, msg *models.Message) {
	e.count(metrics.RelayAdminReplies)

	state := e.store.Load(ctx)
	route, ok := state.Routes.Resolve(msg.ReplyToMessage.ID)
	if !ok {
		e.replyToAdmin(ctx, msg.ID, "⚠️ No target identified for this reply. Reply to a relayed message or a ticket card.")
		return
	}

	log := e.log.WithFields(logger.StringField("route", route.String()))

	switch route.Kind {
	case store.RouteWeCom:
		e.dispatchToWeCom(ctx, state, msg, route, log)
	case store.RouteTelegram:
		e.dispatchToUser(ctx, state, msg, route, log)
	default:
		e.replyToAdmin(ctx, msg.ID, "⚠️ No target identified for this reply.")
		return
	}

	if err := e.store.Save(ctx, state); err != nil {
		log.Error("Failed to persist state", logger.ErrorField(err))
	}
}

// dispatchToWeCom sends a plain text reply to an enterprise member. Richer
// payloads cannot cross that transport and are rejected with guidance.
func (e *Engine) dispatchToWeCom(ctx context.Context, state *store.State, msg *models.Message, route store.Route, log logger.Logger) {
	if msg.Text == "" {
		e.replyToAdmin(ctx, msg.ID, "⚠️ Only plain text can be delivered to enterprise members. Send the reply as text.")
		return
	}
	if e.wecom == nil {
		e.replyToAdmin(ctx, msg.ID, "⚠️ The enterprise channel is not configured.")
		return
	}

	text := msg.Text
	if meta := state.Members[route.WeComMemberID]; meta != nil {
		text = e.translateOutbound(ctx, text, meta.Language, log)
	}

	if err := e.wecom.SendText(ctx, route.WeComMemberID, text); err != nil {
		e.count(metrics.RelayDeliveryFailures)
		log.Error("Failed to deliver reply to enterprise member", logger.ErrorField(err))
		e.replyToAdmin(ctx, msg.ID, fmt.Sprintf("❌ Delivery to %s failed: %v", route.WeComMemberID, err))
		return
	}
	e.replyToAdmin(ctx, msg.ID, fmt.Sprintf("✅ Sent to %s", route.WeComMemberID))
}

// dispatchToUser sends the administrator's reply to a Telegram end-user.
// Text replies are translated when needed; media replies are copied
// verbatim with the caption translated as a follow-up.
func (e *Engine) dispatchToUser(ctx context.Context, state *store.State, msg *models.Message, route store.Route, log logger.Logger) {
	userID := route.TelegramUserID
	var userLang string
	if meta := state.Users[userID]; meta != nil {
		userLang = meta.Language
	}

	if msg.Text != "" {
		text := e.translateOutbound(ctx, msg.Text, userLang, log)
		if _, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{ChatID: userID, Text: text}); err != nil {
			e.count(metrics.RelayDeliveryFailures)
			log.Error("Failed to deliver reply to user", logger.ErrorField(err))
			e.replyToAdmin(ctx, msg.ID, fmt.Sprintf("❌ Delivery failed: %v", err))
			return
		}
		e.replyToAdmin(ctx, msg.ID, "✅ Sent")
		return
	}

	// Media reply: copy the original message as-is.
	if _, err := e.tg.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     userID,
		FromChatID: msg.Chat.ID,
		MessageID:  msg.ID,
	}); err != nil {
		e.count(metrics.RelayDeliveryFailures)
		log.Error("Failed to copy reply to user", logger.ErrorField(err))
		e.replyToAdmin(ctx, msg.ID, fmt.Sprintf("❌ Delivery failed: %v", err))
		return
	}
	if msg.Caption != "" {
		caption := e.translateOutbound(ctx, msg.Caption, userLang, log)
		if _, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{ChatID: userID, Text: caption}); err != nil {
			log.Warn("Failed to deliver translated caption", logger.ErrorField(err))
		}
	}
	e.replyToAdmin(ctx, msg.ID, "✅ Sent")
}

// translateOutbound translates administrator text into the remote party's
// last-detected language. The original text is used when translation does
// not apply or is unavailable.
func (e *Engine) translateOutbound(ctx context.Context, text, targetLang string, log logger.Logger) string {
	if e.translator == nil || !e.translator.Available() {
		return text
	}
	if targetLang == "" || targetLang == e.opts.AdminLanguage {
		return text
	}
	if translate.DetectLanguage(text) != e.opts.AdminLanguage {
		return text
	}

	tctx, cancel := e.translateContext(ctx)
	defer cancel()
	translated, err := e.translator.Translate(tctx, text, targetLang)
	if err != nil {
		e.count(metrics.RelayTranslationFallbacks)
		log.Debug("Outbound translation unavailable, sending original", logger.ErrorField(err))
		return text
	}
	e.count(metrics.RelayTranslations)
	return translated
}

// handleCallback applies a status action from the header card keyboard.
// Callers other than the administrator are silently ignored.
func (e *Engine) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	answer := func(text string) {
		_, err := e.tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cb.ID,
			Text:            text,
		})
		if err != nil {
			e.log.Debug("Failed to answer callback query", logger.ErrorField(err))
		}
	}

	if cb.From.ID != e.opts.AdminChatID {
		answer("")
		return
	}

	action, userID, value, err := parseCallbackData(cb.Data)
	if err != nil {
		e.log.Warn("Ignoring malformed callback data", logger.StringField("data", cb.Data))
		answer("")
		return
	}

	log := e.log.WithFields(logger.Int64Field("user_id", userID), logger.StringField("action", action))
	state := e.store.Load(ctx)
	ticket, ok := state.Tickets[userID]
	if !ok {
		answer("No ticket for this user")
		return
	}

	switch action {
	case actionStatus:
		if !store.ValidStatus(value) {
			answer("Unknown status")
			return
		}
		ticket.Status = value
		answer("Status: " + value)
	case actionClear:
		ticket.Status = ""
		answer("Status cleared")
	case actionProfile:
		sent, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: e.opts.AdminChatID,
			Text:   renderProfile(state, userID),
		})
		if err != nil {
			log.Warn("Failed to send profile", logger.ErrorField(err))
		} else {
			state.Routes.Record(sent.ID, store.TelegramRoute(userID))
		}
		answer("")
	default:
		answer("")
		return
	}

	if err := e.store.Save(ctx, state); err != nil {
		log.Error("Failed to persist state", logger.ErrorField(err))
	}
	e.refreshHeader(ctx, state, userID, log)
}

func parseCallbackData(data string) (action string, userID int64, value string, err error) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) < 2 {
		return "", 0, "", fmt.Errorf("malformed callback data %q", data)
	}
	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("malformed callback user id %q", parts[1])
	}
	if len(parts) == 3 {
		value = parts[2]
	}
	return parts[0], userID, value, nil
}

// replyToAdmin posts a threaded status note under the administrator's own
// message.
func (e *Engine) replyToAdmin(ctx context.Context, replyTo int, text string) {
	_, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          e.opts.AdminChatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		e.log.Warn("Failed to report back to administrator", logger.ErrorField(err))
	}
}
