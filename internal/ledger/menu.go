package ledger

import (
	"strings"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/lucsky/cuid"
)

// Menu is the ordered menu catalog.
type Menu []models.MenuItem

// Lookup finds an item by id.
func (m Menu) Lookup(id string) (models.MenuItem, bool) {
	for _, item := range m {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}

// Prices indexes prices by item id.
func (m Menu) Prices() map[string]int64 {
	prices := make(map[string]int64, len(m))
	for _, item := range m {
		prices[item.ID] = item.Price
	}
	return prices
}

// Clone copies the catalog.
func (m Menu) Clone() Menu {
	if m == nil {
		return nil
	}
	out := make(Menu, len(m))
	copy(out, m)
	return out
}

func validateItem(item models.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return models.ErrInvalidName
	}
	if item.Price < 0 {
		return models.ErrInvalidPrice
	}
	return nil
}

// Add appends an item. An empty id gets a generated one.
func (m *Menu) Add(item models.MenuItem) (models.MenuItem, error) {
	if err := validateItem(item); err != nil {
		return item, err
	}
	if item.ID == "" {
		item.ID = cuid.New()
	}
	if _, ok := m.Lookup(item.ID); ok {
		return item, models.ErrDuplicateMenuItem
	}
	*m = append(*m, item)
	return item, nil
}

// Update replaces the item with the same id, keeping its position.
func (m *Menu) Update(item models.MenuItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	for i := range *m {
		if (*m)[i].ID == item.ID {
			(*m)[i] = item
			return nil
		}
	}
	return models.ErrMenuItemNotFound
}

// Remove drops an item. Selections that reference it become orphaned.
func (m *Menu) Remove(id string) error {
	for i, item := range *m {
		if item.ID == id {
			*m = append((*m)[:i:i], (*m)[i+1:]...)
			return nil
		}
	}
	return models.ErrMenuItemNotFound
}
