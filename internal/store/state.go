// Package store owns the persisted relay state: tickets, per-user metadata,
// the reverse message index, and the acknowledgment cooldown ledger. The
// whole state is one JSON document, loaded fully per handled event and
// written back wholesale.
package store

import "time"

// Status values assignable to a ticket. Exactly one is active per remote
// user; only the administrator changes it.
const (
	StatusNew         = "new inquiry"
	StatusOrdered     = "ordered"
	StatusRefund      = "refund/return"
	StatusRefunded    = "refunded"
	StatusBlacklisted = "blacklisted"
)

// Statuses lists the explicit statuses the administrator can set, in the
// order they appear on the header card. StatusNew is the implicit default
// and is restored by the clear action.
var Statuses = []string{StatusOrdered, StatusRefund, StatusRefunded, StatusBlacklisted}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s string) bool {
	if s == StatusNew {
		return true
	}
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Ticket is the per-remote-user session. Tickets are created lazily on the
// first inbound message and never deleted; a new one is allocated only when
// the header message reference has been lost.
type Ticket struct {
	TicketID        int64     `json:"ticket_id"`
	CreatedAt       time.Time `json:"created_at"`
	HeaderMessageID int       `json:"header_message_id,omitempty"`
	Status          string    `json:"status,omitempty"`
}

// UserMeta tracks a Telegram end-user across messages.
type UserMeta struct {
	DisplayName  string    `json:"display_name,omitempty"`
	Username     string    `json:"username,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	MessageCount int       `json:"message_count"`
	Language     string    `json:"language,omitempty"`
}

// MemberMeta tracks an enterprise platform member. Members get per-message
// relays only, no ticket or header card.
type MemberMeta struct {
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	MessageCount int       `json:"message_count"`
	Language     string    `json:"language,omitempty"`
}

// State is the full persisted snapshot.
type State struct {
	NextTicketID int64                  `json:"next_ticket_id"`
	Tickets      map[int64]*Ticket      `json:"tickets"`
	Users        map[int64]*UserMeta    `json:"users"`
	Members      map[string]*MemberMeta `json:"members"`
	Routes       *RouteIndex            `json:"routes"`
	Cooldowns    map[int64]time.Time    `json:"cooldowns"`
}

// NewState returns an empty, fully initialized state.
func NewState(routeCapacity int) *State {
	return &State{
		NextTicketID: 1,
		Tickets:      make(map[int64]*Ticket),
		Users:        make(map[int64]*UserMeta),
		Members:      make(map[string]*MemberMeta),
		Routes:       NewRouteIndex(routeCapacity),
		Cooldowns:    make(map[int64]time.Time),
	}
}

// AllocateTicketID returns the next ticket id and advances the sequence.
// Ids are monotonically increasing and never reused.
func (s *State) AllocateTicketID() int64 {
	id := s.NextTicketID
	s.NextTicketID++
	return id
}

// TouchUser updates per-user metadata for an inbound message and returns the
// record, creating it on first contact.
func (s *State) TouchUser(userID int64, displayName, username string, now time.Time) *UserMeta {
	meta, ok := s.Users[userID]
	if !ok {
		meta = &UserMeta{FirstSeen: now}
		s.Users[userID] = meta
	}
	if displayName != "" {
		meta.DisplayName = displayName
	}
	if username != "" {
		meta.Username = username
	}
	meta.LastSeen = now
	meta.MessageCount++
	return meta
}

// TouchMember updates enterprise-member metadata for an inbound message.
func (s *State) TouchMember(memberID string, now time.Time) *MemberMeta {
	meta, ok := s.Members[memberID]
	if !ok {
		meta = &MemberMeta{FirstSeen: now}
		s.Members[memberID] = meta
	}
	meta.LastSeen = now
	meta.MessageCount++
	return meta
}

// UserStatus returns the active status for a user, defaulting to StatusNew.
func (s *State) UserStatus(userID int64) string {
	if t, ok := s.Tickets[userID]; ok && t.Status != "" {
		return t.Status
	}
	return StatusNew
}
