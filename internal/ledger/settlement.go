package ledger

import (
	"github.com/chrisdamba/bentoledger/internal/models"
)

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// WeeklyTotal is the user's spend over the week: quantity x price for every
// selection on the five days. Items missing from the menu count as zero, and
// negative quantities or prices are clamped, so the total is never negative.
func WeeklyTotal(user models.UserAccount, week Week, menu Menu) int64 {
	prices := menu.Prices()
	var total int64
	for _, day := range week {
		for id, qty := range user.Selections[day.Date] {
			price, ok := prices[id]
			if !ok {
				continue
			}
			total += clamp(int64(qty)) * clamp(price)
		}
	}
	return total
}

// OrphanedReferences counts the week's selections whose item is no longer on
// the menu.
func OrphanedReferences(user models.UserAccount, week Week, menu Menu) int {
	prices := menu.Prices()
	count := 0
	for _, day := range week {
		for id := range user.Selections[day.Date] {
			if _, ok := prices[id]; !ok {
				count++
			}
		}
	}
	return count
}

// Settle deducts the week's spend from the balance and clears the week's
// selections. The balance may go negative. Other weeks are untouched. The
// input is not modified; the result replaces the stored account as a whole.
//
// Settling the same week again spends nothing, because the week is empty.
func Settle(user models.UserAccount, week Week, menu Menu) models.UserAccount {
	settled := user.Clone()
	settled.Balance -= WeeklyTotal(user, week, menu)
	for _, day := range week {
		delete(settled.Selections, day.Date)
	}
	return settled
}

// AccountSettlement records what settlement did to one account.
type AccountSettlement struct {
	UserName           string `json:"userName"`
	PreviousBalance    int64  `json:"previousBalance"`
	Spend              int64  `json:"spend"`
	NewBalance         int64  `json:"newBalance"`
	OrphanedReferences int    `json:"orphanedReferences"`
}

// SettlementReport summarizes a roster settlement.
type SettlementReport struct {
	WeekStart          models.DateKey      `json:"weekStart"`
	Accounts           []AccountSettlement `json:"accounts"`
	TotalSpend         int64               `json:"totalSpend"`
	OrphanedReferences int                 `json:"orphanedReferences"`
	NegativeBalances   int                 `json:"negativeBalances"`
}

// SettleRoster settles every account. Nothing is written here: the caller
// commits the returned roster in a single write so that readers never see a
// partly settled roster.
func SettleRoster(roster Roster, week Week, menu Menu) (Roster, SettlementReport) {
	report := SettlementReport{
		WeekStart: week.Start(),
		Accounts:  make([]AccountSettlement, 0, len(roster)),
	}
	settled := make(Roster, len(roster))
	for i, user := range roster {
		spend := WeeklyTotal(user, week, menu)
		orphans := OrphanedReferences(user, week, menu)
		settled[i] = Settle(user, week, menu)

		report.Accounts = append(report.Accounts, AccountSettlement{
			UserName:           user.UserName,
			PreviousBalance:    user.Balance,
			Spend:              spend,
			NewBalance:         settled[i].Balance,
			OrphanedReferences: orphans,
		})
		report.TotalSpend += spend
		report.OrphanedReferences += orphans
		if settled[i].Balance < 0 {
			report.NegativeBalances++
		}
	}
	return settled, report
}
