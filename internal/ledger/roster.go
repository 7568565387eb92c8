package ledger

import (
	"github.com/chrisdamba/bentoledger/internal/models"
)

// Roster is the ordered list of accounts. UserName is unique within it.
type Roster []models.UserAccount

// DefaultRoster seeds one empty account per name.
func DefaultRoster(names []string) Roster {
	roster := make(Roster, 0, len(names))
	for _, name := range names {
		if roster.index(name) >= 0 {
			continue
		}
		roster = append(roster, models.NewUserAccount(name))
	}
	return roster
}

func (r Roster) index(name string) int {
	for i := range r {
		if r[i].UserName == name {
			return i
		}
	}
	return -1
}

// Find returns a pointer to the named account inside the roster.
func (r Roster) Find(name string) (*models.UserAccount, error) {
	i := r.index(name)
	if i < 0 {
		return nil, models.ErrUserNotFound
	}
	return &r[i], nil
}

// Names lists user names in roster order.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].UserName
	}
	return names
}

// Clone deep-copies every account.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	for i := range r {
		out[i] = r[i].Clone()
	}
	return out
}

// AddUser appends an empty account.
func (r *Roster) AddUser(name string) error {
	if name == "" {
		return models.ErrInvalidName
	}
	if r.index(name) >= 0 {
		return &models.DuplicateNameError{Name: name}
	}
	*r = append(*r, models.NewUserAccount(name))
	return nil
}

// RenameUser changes an account's key. Balance and selections move with it.
func (r *Roster) RenameUser(oldName, newName string) error {
	if newName == "" {
		return models.ErrInvalidName
	}
	i := r.index(oldName)
	if i < 0 {
		return models.ErrUserNotFound
	}
	if newName == oldName {
		return nil
	}
	if r.index(newName) >= 0 {
		return &models.DuplicateNameError{Name: newName}
	}
	(*r)[i].UserName = newName
	return nil
}

// RemoveUser deletes an account and its history.
func (r *Roster) RemoveUser(name string) error {
	i := r.index(name)
	if i < 0 {
		return models.ErrUserNotFound
	}
	*r = append((*r)[:i:i], (*r)[i+1:]...)
	return nil
}
