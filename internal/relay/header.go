package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/lewisedginton/support_relay/internal/store"
)

// Callback data layout: "<action>|<user_id>[|<value>]". Telegram caps
// callback data at 64 bytes, which this fits comfortably.
const (
	actionStatus  = "status"
	actionClear   = "clear"
	actionProfile = "profile"
)

// renderHeader builds the ticket card text shown to the administrator.
func renderHeader(state *store.State, userID int64) string {
	ticket := state.Tickets[userID]
	meta := state.Users[userID]

	var b strings.Builder
	fmt.Fprintf(&b, "🎫 Ticket #%d\n", ticket.TicketID)
	if meta != nil {
		if meta.DisplayName != "" {
			fmt.Fprintf(&b, "👤 %s", meta.DisplayName)
			if meta.Username != "" {
				fmt.Fprintf(&b, " (@%s)", meta.Username)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "🆔 %d\n", userID)
	fmt.Fprintf(&b, "📊 Status: %s\n", state.UserStatus(userID))
	if meta != nil {
		if meta.Language != "" {
			fmt.Fprintf(&b, "🗣 Language: %s\n", meta.Language)
		}
		fmt.Fprintf(&b, "✉️ Messages: %d\n", meta.MessageCount)
		fmt.Fprintf(&b, "🕐 First seen: %s\n", meta.FirstSeen.Format(time.DateTime))
		fmt.Fprintf(&b, "🕑 Last seen: %s", meta.LastSeen.Format(time.DateTime))
	}
	return b.String()
}

// headerKeyboard builds the inline status actions attached to the card.
func headerKeyboard(userID int64) models.ReplyMarkup {
	statusRow := make([]models.InlineKeyboardButton, 0, len(store.Statuses))
	for _, s := range store.Statuses {
		statusRow = append(statusRow, models.InlineKeyboardButton{
			Text:         s,
			CallbackData: fmt.Sprintf("%s|%d|%s", actionStatus, userID, s),
		})
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			statusRow[:2],
			statusRow[2:],
			{
				{Text: "↩️ clear status", CallbackData: fmt.Sprintf("%s|%d", actionClear, userID)},
				{Text: "👤 profile", CallbackData: fmt.Sprintf("%s|%d", actionProfile, userID)},
			},
		},
	}
}

// renderProfile builds the standalone profile message for the profile action.
func renderProfile(state *store.State, userID int64) string {
	meta := state.Users[userID]
	if meta == nil {
		return fmt.Sprintf("No profile recorded for user %d", userID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s", meta.DisplayName)
	if meta.Username != "" {
		fmt.Fprintf(&b, " (@%s)", meta.Username)
	}
	fmt.Fprintf(&b, "\n🆔 %d\n", userID)
	fmt.Fprintf(&b, "📊 Status: %s\n", state.UserStatus(userID))
	fmt.Fprintf(&b, "✉️ Messages: %d since %s", meta.MessageCount, meta.FirstSeen.Format(time.DateOnly))
	return b.String()
}
