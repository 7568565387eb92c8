package ledger

import (
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/models"
)

// Quantity returns how many of itemID the user ordered on date.
func Quantity(user models.UserAccount, date models.DateKey, itemID string) int {
	return user.Selections[date][itemID]
}

// SetQuantity stores n of itemID on date. Values below zero clamp to zero, a
// zero quantity removes the item, and an emptied day removes the date.
func SetQuantity(user *models.UserAccount, date models.DateKey, itemID string, n int) {
	if n < 0 {
		n = 0
	}
	if user.Selections == nil {
		user.Selections = make(map[models.DateKey]models.DailyOrder)
	}

	day := user.Selections[date]
	if n == 0 {
		if day == nil {
			return
		}
		delete(day, itemID)
		if len(day) == 0 {
			delete(user.Selections, date)
		}
		return
	}

	if day == nil {
		day = make(models.DailyOrder)
		user.Selections[date] = day
	}
	day[itemID] = n
}

// AdjustQuantity shifts the quantity by delta, as the +/- steppers do.
func AdjustQuantity(user *models.UserAccount, date models.DateKey, itemID string, delta int) {
	SetQuantity(user, date, itemID, Quantity(*user, date, itemID)+delta)
}

// Recharge adds amount to the balance. Negative amounts are corrections.
func Recharge(user *models.UserAccount, amount int64) {
	user.Balance += amount
}

// DepositDelta converts a deposit-dialog entry into a balance delta: add and
// sub move the balance by amount, set targets an absolute balance.
func DepositDelta(current int64, mode string, amount int64) (int64, error) {
	switch mode {
	case models.RechargeModeAdd, "":
		return amount, nil
	case models.RechargeModeSub:
		return -amount, nil
	case models.RechargeModeSet:
		return amount - current, nil
	default:
		return 0, fmt.Errorf("%w: %s", models.ErrInvalidMode, mode)
	}
}

// ApplyDeposit applies a deposit-dialog entry and returns the delta used.
func ApplyDeposit(user *models.UserAccount, mode string, amount int64) (int64, error) {
	delta, err := DepositDelta(user.Balance, mode, amount)
	if err != nil {
		return 0, err
	}
	Recharge(user, delta)
	return delta, nil
}

// Normalize enforces the storage invariants on an account loaded from
// elsewhere: a non-nil selections map, no zero or negative quantities, no
// empty days.
func Normalize(user *models.UserAccount) {
	if user.Selections == nil {
		user.Selections = make(map[models.DateKey]models.DailyOrder)
		return
	}
	for date, day := range user.Selections {
		for id, qty := range day {
			if qty <= 0 {
				delete(day, id)
			}
		}
		if len(day) == 0 {
			delete(user.Selections, date)
		}
	}
}
