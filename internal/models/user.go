package models

// DateKey is a calendar day in YYYY-MM-DD form.
type DateKey string

// DateKeyLayout is the time layout of a DateKey.
const DateKeyLayout = "2006-01-02"

// DailyOrder maps a menu item id to a positive quantity.
type DailyOrder map[string]int

// UserAccount is one colleague on the roster. UserName is the primary key.
type UserAccount struct {
	UserName   string                 `json:"userName"`
	Balance    int64                  `json:"balance"`
	Selections map[DateKey]DailyOrder `json:"selections"`
}

// NewUserAccount returns an account with a zero balance and no selections.
func NewUserAccount(name string) UserAccount {
	return UserAccount{
		UserName:   name,
		Selections: make(map[DateKey]DailyOrder),
	}
}

// Clone returns a deep copy of the account.
func (u UserAccount) Clone() UserAccount {
	c := UserAccount{
		UserName:   u.UserName,
		Balance:    u.Balance,
		Selections: make(map[DateKey]DailyOrder, len(u.Selections)),
	}
	for date, order := range u.Selections {
		day := make(DailyOrder, len(order))
		for id, qty := range order {
			day[id] = qty
		}
		c.Selections[date] = day
	}
	return c
}
