package ledger

import (
	"testing"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserDuplicate(t *testing.T) {
	var roster Roster
	require.NoError(t, roster.AddUser("Alice"))

	err := roster.AddUser("Alice")
	var dup *models.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Alice", dup.Name)
	assert.Equal(t, []string{"Alice"}, roster.Names())

	require.NoError(t, roster.AddUser("alice"), "names are case-sensitive")
	assert.Len(t, roster, 2)
}

func TestAddUserStartsEmpty(t *testing.T) {
	var roster Roster
	require.NoError(t, roster.AddUser("Alice"))

	user, err := roster.Find("Alice")
	require.NoError(t, err)
	assert.Zero(t, user.Balance)
	assert.NotNil(t, user.Selections)
	assert.Empty(t, user.Selections)

	assert.ErrorIs(t, roster.AddUser(""), models.ErrInvalidName)
}

func TestRenameUser(t *testing.T) {
	roster := DefaultRoster([]string{"Alice", "Bob"})
	alice, _ := roster.Find("Alice")
	alice.Balance = 250
	SetQuantity(alice, "2024-01-01", "bento", 1)

	require.NoError(t, roster.RenameUser("Alice", "Alicia"))
	_, err := roster.Find("Alice")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	renamed, err := roster.Find("Alicia")
	require.NoError(t, err)
	assert.Equal(t, int64(250), renamed.Balance)
	assert.Equal(t, 1, Quantity(*renamed, "2024-01-01", "bento"))
	assert.Equal(t, []string{"Alicia", "Bob"}, roster.Names())
}

func TestRenameUserCollisions(t *testing.T) {
	roster := DefaultRoster([]string{"Alice", "Bob"})

	var dup *models.DuplicateNameError
	assert.ErrorAs(t, roster.RenameUser("Alice", "Bob"), &dup)
	assert.NoError(t, roster.RenameUser("Bob", "Bob"))
	assert.ErrorIs(t, roster.RenameUser("Carol", "Dave"), models.ErrUserNotFound)
	assert.Equal(t, []string{"Alice", "Bob"}, roster.Names())
}

func TestRemoveUser(t *testing.T) {
	roster := DefaultRoster([]string{"Alice", "Bob", "Carol"})

	require.NoError(t, roster.RemoveUser("Bob"))
	assert.Equal(t, []string{"Alice", "Carol"}, roster.Names())
	assert.ErrorIs(t, roster.RemoveUser("Bob"), models.ErrUserNotFound)
}

func TestDefaultRosterSkipsDuplicates(t *testing.T) {
	roster := DefaultRoster([]string{"A", "B", "A"})
	assert.Equal(t, []string{"A", "B"}, roster.Names())
	for _, user := range roster {
		assert.Zero(t, user.Balance)
	}
}

func TestRosterCloneIsDeep(t *testing.T) {
	roster := DefaultRoster([]string{"Alice"})
	SetQuantity(&roster[0], "2024-01-01", "bento", 1)

	clone := roster.Clone()
	SetQuantity(&clone[0], "2024-01-01", "bento", 5)

	assert.Equal(t, 1, Quantity(roster[0], "2024-01-01", "bento"))
}
