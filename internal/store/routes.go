package store

import (
	"encoding/json"
	"fmt"
)

// Route kinds.
const (
	RouteTelegram = "telegram"
	RouteWeCom    = "wecom"
)

// Route identifies the remote party an administrator reply should reach.
// It is a tagged union: exactly one of the identity fields is meaningful
// depending on Kind.
type Route struct {
	Kind           string `json:"kind"`
	TelegramUserID int64  `json:"telegram_user_id,omitempty"`
	WeComMemberID  string `json:"wecom_member_id,omitempty"`
}

// TelegramRoute builds a route to a Telegram end-user.
func TelegramRoute(userID int64) Route {
	return Route{Kind: RouteTelegram, TelegramUserID: userID}
}

// WeComRoute builds a route to an enterprise member.
func WeComRoute(memberID string) Route {
	return Route{Kind: RouteWeCom, WeComMemberID: memberID}
}

func (r Route) String() string {
	switch r.Kind {
	case RouteTelegram:
		return fmt.Sprintf("telegram:%d", r.TelegramUserID)
	case RouteWeCom:
		return fmt.Sprintf("wecom:%s", r.WeComMemberID)
	default:
		return "unknown"
	}
}

type routeEntry struct {
	MessageID int   `json:"message_id"`
	Route     Route `json:"route"`
}

// RouteIndex maps administrator-channel message ids back to routes. It is a
// bounded FIFO: once the capacity ceiling is exceeded the oldest-inserted
// entries are evicted first. Only recent administrator messages are
// plausible reply targets, so FIFO is enough and LRU bookkeeping is not
// worth carrying.
type RouteIndex struct {
	capacity int
	order    []int
	byID     map[int]Route
}

// NewRouteIndex creates an empty index with the given capacity ceiling.
func NewRouteIndex(capacity int) *RouteIndex {
	return &RouteIndex{
		capacity: capacity,
		order:    make([]int, 0),
		byID:     make(map[int]Route),
	}
}

// SetCapacity adjusts the ceiling and evicts immediately if over it.
// Used after deserialization, where capacity comes from config rather than
// from the snapshot.
func (ri *RouteIndex) SetCapacity(capacity int) {
	ri.capacity = capacity
	ri.evict()
}

// Record inserts or refreshes one entry. A refreshed entry moves to the
// back of the eviction queue so re-recording a header id keeps it alive.
func (ri *RouteIndex) Record(messageID int, route Route) {
	if _, ok := ri.byID[messageID]; ok {
		for i, id := range ri.order {
			if id == messageID {
				ri.order = append(ri.order[:i], ri.order[i+1:]...)
				break
			}
		}
	}
	ri.byID[messageID] = route
	ri.order = append(ri.order, messageID)
	ri.evict()
}

// Resolve returns the route recorded for an administrator message id.
func (ri *RouteIndex) Resolve(messageID int) (Route, bool) {
	route, ok := ri.byID[messageID]
	return route, ok
}

// Len returns the number of live entries.
func (ri *RouteIndex) Len() int {
	return len(ri.order)
}

func (ri *RouteIndex) evict() {
	if ri.capacity <= 0 {
		return
	}
	for len(ri.order) > ri.capacity {
		oldest := ri.order[0]
		ri.order = ri.order[1:]
		delete(ri.byID, oldest)
	}
}

// MarshalJSON serializes entries in insertion order so the FIFO survives a
// round trip through the state file.
func (ri *RouteIndex) MarshalJSON() ([]byte, error) {
	entries := make([]routeEntry, 0, len(ri.order))
	for _, id := range ri.order {
		entries = append(entries, routeEntry{MessageID: id, Route: ri.byID[id]})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON restores entries preserving insertion order. Capacity is
// not part of the snapshot; callers apply it via SetCapacity.
func (ri *RouteIndex) UnmarshalJSON(data []byte) error {
	var entries []routeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	ri.order = make([]int, 0, len(entries))
	ri.byID = make(map[int]Route, len(entries))
	for _, e := range entries {
		if _, ok := ri.byID[e.MessageID]; !ok {
			ri.order = append(ri.order, e.MessageID)
		}
		ri.byID[e.MessageID] = e.Route
	}
	return nil
}
