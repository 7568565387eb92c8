package models

const (
	EventUserAdded       = "user_added"
	EventUserRenamed     = "user_renamed"
	EventUserRemoved     = "user_removed"
	EventBalanceAdjusted = "balance_adjusted"
	EventWeekSettled     = "week_settled"
	EventRosterSettled   = "roster_settled"
	EventMenuUpdated     = "menu_updated"

	TopicLedgerEvents = "ledger_events"
)

// LedgerEvent is published for every change to balances or the roster.
type LedgerEvent struct {
	ID        string  `json:"id"`
	Type      string  `json:"eventType"`
	Timestamp int64   `json:"timestamp"`
	UserName  string  `json:"userName,omitempty"`
	Previous  string  `json:"previousName,omitempty"`
	WeekStart DateKey `json:"weekStart,omitempty"`
	Amount    int64   `json:"amount,omitempty"`
	Balance   int64   `json:"balance"`
	Users     int     `json:"users,omitempty"`
	Orphans   int     `json:"orphanedReferences,omitempty"`
}
