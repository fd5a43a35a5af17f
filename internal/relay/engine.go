// Package relay contains the routing engine: inbound messages from either
// channel are multiplexed into the administrator's chat, and administrator
// replies are demultiplexed back to the originating remote party through
// the reverse message index.
package relay

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/lewisedginton/support_relay/internal/store"
	"github.com/lewisedginton/support_relay/internal/translate"
	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/lewisedginton/support_relay/pkg/metrics"
)

// TelegramAPI is the slice of the bot API the engine needs. *bot.Bot
// satisfies it.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*models.Message, error)
	CopyMessage(ctx context.Context, params *bot.CopyMessageParams) (*models.MessageID, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// WeComSender delivers plain text to an enterprise member.
type WeComSender interface {
	SendText(ctx context.Context, memberID, text string) error
}

// Options holds the engine's behavioural knobs.
type Options struct {
	AdminChatID      int64
	AdminLanguage    string
	AckInterval      time.Duration
	AckText          string
	TranslateTimeout time.Duration
}

// Engine is the routing core. It holds no conversation state of its own;
// every handled event loads the full store snapshot, mutates it and writes
// it back.
type Engine struct {
	tg         TelegramAPI
	wecom      WeComSender
	store      *store.Store
	translator *translate.Gateway
	metrics    *metrics.Metrics
	log        logger.Logger
	opts       Options
}

// NewEngine wires the routing engine. wecomSender may be nil when the
// enterprise side is not configured.
func NewEngine(tg TelegramAPI, wecomSender WeComSender, st *store.Store, translator *translate.Gateway, m *metrics.Metrics, log logger.Logger, opts Options) *Engine {
	return &Engine{
		tg:         tg,
		wecom:      wecomSender,
		store:      st,
		translator: translator,
		metrics:    m,
		log:        log,
		opts:       opts,
	}
}

func (e *Engine) count(idx int) {
	if e.metrics != nil {
		e.metrics.IncrementRelayCounter(idx)
	}
}

// HandleUpdate dispatches one Telegram update. Unroutable updates are
// ignored, never an error.
func (e *Engine) HandleUpdate(ctx context.Context, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		e.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		if msg.Chat.ID == e.opts.AdminChatID {
			if msg.ReplyToMessage != nil {
				e.handleAdminReply(ctx, msg)
			}
			return
		}
		if msg.Chat.Type != models.ChatTypePrivate {
			return
		}
		e.handleUserMessage(ctx, msg)
	}
}

// handleUserMessage relays one end-user message to the administrator.
func (e *Engine) handleUserMessage(ctx context.Context, msg *models.Message) {
	e.count(metrics.RelayInboundTelegram)

	userID := msg.From.ID
	now := time.Now().UTC()
	log := e.log.WithFields(logger.Int64Field("user_id", userID))

	state := e.store.Load(ctx)
	meta := state.TouchUser(userID, displayName(msg.From), msg.From.Username, now)

	text := messageText(msg)
	if text != "" {
		if lang := translate.DetectLanguage(text); lang != "" {
			meta.Language = lang
		}
	}

	headerID := e.ensureTicket(ctx, state, userID)

	adminMsgID := e.deliverToAdmin(ctx, msg, log)
	if adminMsgID != 0 {
		state.Routes.Record(adminMsgID, store.TelegramRoute(userID))
	}
	if headerID != 0 {
		state.Routes.Record(headerID, store.TelegramRoute(userID))
	}

	if text != "" && adminMsgID != 0 {
		e.postTranslationFollowUp(ctx, text, meta.Language, adminMsgID, log)
	}

	if e.opts.AckInterval > 0 && now.Sub(state.Cooldowns[userID]) >= e.opts.AckInterval {
		_, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   e.opts.AckText,
		})
		if err != nil {
			log.Warn("Failed to send auto acknowledgment", logger.ErrorField(err))
		} else {
			state.Cooldowns[userID] = now
		}
	}

	if err := e.store.Save(ctx, state); err != nil {
		log.Error("Failed to persist state", logger.ErrorField(err))
	}

	e.refreshHeader(ctx, state, userID, log)
}

// ensureTicket returns the user's header message id, sending a fresh header
// card and allocating a new ticket when none exists or the header reference
// was lost. The previous status survives re-creation.
func (e *Engine) ensureTicket(ctx context.Context, state *store.State, userID int64) int {
	ticket, ok := state.Tickets[userID]
	if ok && ticket.HeaderMessageID != 0 {
		return ticket.HeaderMessageID
	}

	status := ""
	if ok {
		status = ticket.Status
	}
	id := state.AllocateTicketID()
	fresh := &store.Ticket{
		TicketID:  id,
		CreatedAt: time.Now().UTC(),
		Status:    status,
	}
	state.Tickets[userID] = fresh

	sent, err := e.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      e.opts.AdminChatID,
		Text:        renderHeader(state, userID),
		ReplyMarkup: headerKeyboard(userID),
	})
	if err != nil {
		e.log.Error("Failed to send header card",
			logger.Int64Field("user_id", userID),
			logger.ErrorField(err),
		)
		return 0
	}
	fresh.HeaderMessageID = sent.ID
	return sent.ID
}

// deliverToAdmin forwards the original message, falling back to a copy when
// the transport rejects forwarding. Returns the administrator-side message
// id, or 0 if both attempts failed.
func (e *Engine) deliverToAdmin(ctx context.Context, msg *models.Message, log logger.Logger) int {
	fwd, err := e.tg.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     e.opts.AdminChatID,
		FromChatID: msg.Chat.ID,
		MessageID:  msg.ID,
	})
	if err == nil {
		return fwd.ID
	}
	log.Debug("Forward rejected, copying instead", logger.ErrorField(err))

	copied, err := e.tg.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     e.opts.AdminChatID,
		FromChatID: msg.Chat.ID,
		MessageID:  msg.ID,
	})
	if err != nil {
		e.count(metrics.RelayDeliveryFailures)
		log.Error("Failed to relay message to administrator", logger.ErrorField(err))
		return 0
	}
	return copied.ID
}

// postTranslationFollowUp posts a translation threaded under the relayed
// message when the detected language differs from the administrator's.
// Translation failures are swallowed; the original is already delivered.
func (e *Engine) postTranslationFollowUp(ctx context.Context, text, lang string, adminMsgID int, log logger.Logger) {
	if e.translator == nil || !e.translator.Available() {
		return
	}
	if lang == "" || lang == e.opts.AdminLanguage {
		return
	}

	tctx, cancel := e.translateContext(ctx)
	defer cancel()
	translated, err := e.translator.Translate(tctx, text, e.opts.AdminLanguage)
	if err != nil {
		e.count(metrics.RelayTranslationFallbacks)
		log.Debug("No translation available", logger.ErrorField(err))
		return
	}
	e.count(metrics.RelayTranslations)

	_, err = e.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          e.opts.AdminChatID,
		Text:            "💬 " + translated,
		ReplyParameters: &models.ReplyParameters{MessageID: adminMsgID},
	})
	if err != nil {
		log.Warn("Failed to post translation follow-up", logger.ErrorField(err))
	}
}

// refreshHeader re-renders the header card in place to reflect updated
// metadata and status. "Not modified" responses from the transport are
// expected and ignored.
func (e *Engine) refreshHeader(ctx context.Context, state *store.State, userID int64, log logger.Logger) {
	ticket, ok := state.Tickets[userID]
	if !ok || ticket.HeaderMessageID == 0 {
		return
	}
	_, err := e.tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      e.opts.AdminChatID,
		MessageID:   ticket.HeaderMessageID,
		Text:        renderHeader(state, userID),
		ReplyMarkup: headerKeyboard(userID),
	})
	if err != nil {
		log.Debug("Header refresh skipped", logger.ErrorField(err))
	}
}

func (e *Engine) translateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.TranslateTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.TranslateTimeout)
}

func displayName(u *models.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

func messageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}
