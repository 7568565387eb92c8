package output

import (
	"github.com/chrisdamba/bentoledger/internal/ledger"
)

const (
	TableOrders   = "orders"
	TableBalances = "balances"
)

// OrderRow is one priced user/day/item order.
type OrderRow struct {
	WeekStart string `json:"weekStart" parquet:"name=week_start, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date      string `json:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Weekday   string `json:"weekday" parquet:"name=weekday, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	UserName  string `json:"userName" parquet:"name=user_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemID    string `json:"itemId" parquet:"name=item_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemName  string `json:"itemName" parquet:"name=item_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity  int32  `json:"quantity" parquet:"name=quantity, type=INT32"`
	UnitPrice int64  `json:"unitPrice" parquet:"name=unit_price, type=INT64"`
	Amount    int64  `json:"amount" parquet:"name=amount, type=INT64"`
	Orphaned  bool   `json:"orphaned" parquet:"name=orphaned, type=BOOLEAN"`
}

// BalanceRow is one account's position for the week.
type BalanceRow struct {
	WeekStart          string `json:"weekStart" parquet:"name=week_start, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	UserName           string `json:"userName" parquet:"name=user_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Balance            int64  `json:"balance" parquet:"name=balance, type=INT64"`
	WeeklyTotal        int64  `json:"weeklyTotal" parquet:"name=weekly_total, type=INT64"`
	Negative           bool   `json:"negative" parquet:"name=negative, type=BOOLEAN"`
	OrphanedReferences int32  `json:"orphanedReferences" parquet:"name=orphaned_references, type=INT32"`
}

func orderRows(report ledger.WeeklyReport) []OrderRow {
	lines := report.Lines()
	rows := make([]OrderRow, len(lines))
	for i, line := range lines {
		rows[i] = OrderRow{
			WeekStart: string(line.WeekStart),
			Date:      string(line.Date),
			Weekday:   line.Weekday,
			UserName:  line.UserName,
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Quantity:  int32(line.Quantity),
			UnitPrice: line.UnitPrice,
			Amount:    line.Amount,
			Orphaned:  line.Orphaned,
		}
	}
	return rows
}

func balanceRows(report ledger.WeeklyReport) []BalanceRow {
	weekStart := string(report.Week.Start())
	rows := make([]BalanceRow, len(report.Users))
	for i, user := range report.Users {
		rows[i] = BalanceRow{
			WeekStart:          weekStart,
			UserName:           user.UserName,
			Balance:            user.Balance,
			WeeklyTotal:        user.WeeklyTotal,
			Negative:           user.Negative,
			OrphanedReferences: int32(user.OrphanedReferences),
		}
	}
	return rows
}
