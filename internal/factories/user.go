package factories

import (
	"fmt"
	"math/rand"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/jaswdr/faker"
)

// RosterFactory builds demo colleagues with balances and a week of orders.
type RosterFactory struct {
	fake faker.Faker
	// OrderRatio is the chance that someone orders on a given weekday.
	OrderRatio float64
}

func NewRosterFactory(seed int64) *RosterFactory {
	return &RosterFactory{
		fake:       faker.NewWithSeed(rand.NewSource(seed)),
		OrderRatio: 0.7,
	}
}

func (rf *RosterFactory) uniqueName(taken map[string]bool) string {
	name := rf.fake.Person().FirstName()
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s %d", rf.fake.Person().FirstName(), i)
	}
	taken[name] = true
	return name
}

// randomBalance is mostly a prepaid amount in tens, sometimes overdrawn.
func (rf *RosterFactory) randomBalance() int64 {
	if rf.fake.IntBetween(1, 10) == 1 {
		return -10 * rf.fake.Int64Between(1, 20)
	}
	return 10 * rf.fake.Int64Between(0, 100)
}

func (rf *RosterFactory) fillWeek(user *models.UserAccount, week ledger.Week, menu ledger.Menu) {
	if len(menu) == 0 {
		return
	}
	for _, day := range week {
		if rf.fake.Float64(2, 0, 1) >= rf.OrderRatio {
			continue
		}
		item := menu[rf.fake.IntBetween(0, len(menu)-1)]
		qty := 1
		if rf.fake.IntBetween(1, 5) == 1 {
			qty = 2
		}
		ledger.AdjustQuantity(user, day.Date, item.ID, qty)
	}
}

// CreateAccount returns an account whose name is not in taken, and records
// the name there.
func (rf *RosterFactory) CreateAccount(taken map[string]bool, week ledger.Week, menu ledger.Menu) models.UserAccount {
	user := models.NewUserAccount(rf.uniqueName(taken))
	user.Balance = rf.randomBalance()
	rf.fillWeek(&user, week, menu)
	return user
}

// CreateRoster builds n accounts whose names avoid taken, which may be nil.
// onCreate, if set, is called after each one.
func (rf *RosterFactory) CreateRoster(n int, taken map[string]bool, week ledger.Week, menu ledger.Menu, onCreate func()) ledger.Roster {
	if taken == nil {
		taken = make(map[string]bool, n)
	}
	roster := make(ledger.Roster, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, rf.CreateAccount(taken, week, menu))
		if onCreate != nil {
			onCreate()
		}
	}
	return roster
}
