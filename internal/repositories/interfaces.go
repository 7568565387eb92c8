package repositories

import (
	"context"
	"errors"

	"github.com/chrisdamba/bentoledger/internal/models"
)

// ErrNotFound means the document has never been written.
var ErrNotFound = errors.New("document not found")

type MenuRepository interface {
	LoadMenu(ctx context.Context) ([]models.MenuItem, error)
	SaveMenu(ctx context.Context, items []models.MenuItem) error
}

type RosterRepository interface {
	LoadRoster(ctx context.Context) ([]models.UserAccount, error)
	// SaveRoster replaces the whole roster in one write.
	SaveRoster(ctx context.Context, accounts []models.UserAccount) error
}

// Unsubscribe stops a change subscription.
type Unsubscribe func()

// ChangeFeed pushes the full replacement value of a document whenever it
// changes in the store, including changes made by the subscriber itself.
type ChangeFeed interface {
	Subscribe(ctx context.Context, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) (Unsubscribe, error)
}

type Store interface {
	MenuRepository
	RosterRepository
	ChangeFeed
	Close() error
}
