package ledger

import (
	"sort"

	"github.com/chrisdamba/bentoledger/internal/models"
)

// Summary holds per-day item totals across the roster.
type Summary map[models.DateKey]map[string]int

// DailySummary sums quantities across all users for each day of the week.
// Every weekday is present; items with a zero total are left out. The menu is
// not consulted: items no longer on it are still counted, only pricing skips
// them.
func DailySummary(roster Roster, week Week, _ Menu) Summary {
	summary := make(Summary, len(week))
	for _, day := range week {
		totals := make(map[string]int)
		for _, user := range roster {
			for id, qty := range user.Selections[day.Date] {
				if qty > 0 {
					totals[id] += qty
				}
			}
		}
		summary[day.Date] = totals
	}
	return summary
}

// DailyRevenue prices each day of a summary. Unknown item ids add nothing.
func DailyRevenue(summary Summary, menu Menu) map[models.DateKey]int64 {
	prices := menu.Prices()
	revenue := make(map[models.DateKey]int64, len(summary))
	for date, items := range summary {
		var total int64
		for id, qty := range items {
			if price, ok := prices[id]; ok {
				total += clamp(int64(qty)) * clamp(price)
			}
		}
		revenue[date] = total
	}
	return revenue
}

// WeeklyGrandTotal adds up the daily revenue.
func WeeklyGrandTotal(revenue map[models.DateKey]int64) int64 {
	var total int64
	for _, amount := range revenue {
		total += amount
	}
	return total
}

// UserWeek is one row of the per-user weekly table.
type UserWeek struct {
	UserName           string
	Balance            int64
	WeeklyTotal        int64
	Negative           bool
	OrphanedReferences int
}

// ReportLine is one user/day/item order, priced.
type ReportLine struct {
	WeekStart models.DateKey
	Date      models.DateKey
	Weekday   string
	UserName  string
	ItemID    string
	ItemName  string
	Quantity  int
	UnitPrice int64
	Amount    int64
	Orphaned  bool
}

// WeeklyReport bundles everything the summary and wallet views show for one
// week.
type WeeklyReport struct {
	Week               Week
	Summary            Summary
	Revenue            map[models.DateKey]int64
	GrandTotal         int64
	Users              []UserWeek
	OrphanedReferences int

	lines []ReportLine
}

// BuildWeeklyReport projects the roster and menu onto one week.
func BuildWeeklyReport(roster Roster, week Week, menu Menu) WeeklyReport {
	summary := DailySummary(roster, week, menu)
	revenue := DailyRevenue(summary, menu)
	report := WeeklyReport{
		Week:       week,
		Summary:    summary,
		Revenue:    revenue,
		GrandTotal: WeeklyGrandTotal(revenue),
		Users:      make([]UserWeek, 0, len(roster)),
	}

	for _, user := range roster {
		orphans := OrphanedReferences(user, week, menu)
		report.Users = append(report.Users, UserWeek{
			UserName:           user.UserName,
			Balance:            user.Balance,
			WeeklyTotal:        WeeklyTotal(user, week, menu),
			Negative:           user.Balance < 0,
			OrphanedReferences: orphans,
		})
		report.OrphanedReferences += orphans

		for _, day := range week {
			order := user.Selections[day.Date]
			ids := make([]string, 0, len(order))
			for id := range order {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				qty := order[id]
				line := ReportLine{
					WeekStart: week.Start(),
					Date:      day.Date,
					Weekday:   day.Label,
					UserName:  user.UserName,
					ItemID:    id,
					Quantity:  qty,
				}
				if item, ok := menu.Lookup(id); ok {
					line.ItemName = item.Name
					line.UnitPrice = item.Price
					line.Amount = clamp(int64(qty)) * clamp(item.Price)
				} else {
					line.Orphaned = true
				}
				report.lines = append(report.lines, line)
			}
		}
	}
	return report
}

// Lines lists every order in the week, by user then day then item id.
func (r WeeklyReport) Lines() []ReportLine {
	return r.lines
}

// ItemIDs lists the item ids that appear in the summary, menu order first,
// then unknown ids sorted.
func (r WeeklyReport) ItemIDs(menu Menu) []string {
	seen := make(map[string]bool)
	for _, items := range r.Summary {
		for id := range items {
			seen[id] = true
		}
	}
	var ids []string
	for _, item := range menu {
		if seen[item.ID] {
			ids = append(ids, item.ID)
			delete(seen, item.ID)
		}
	}
	rest := make([]string, 0, len(seen))
	for id := range seen {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
