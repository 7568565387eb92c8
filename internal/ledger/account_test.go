package ledger

import (
	"testing"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetQuantity(t *testing.T) {
	user := models.NewUserAccount("Alice")

	SetQuantity(&user, "2024-01-01", "bento", 2)
	SetQuantity(&user, "2024-01-01", "dumplings", 1)
	assert.Equal(t, 2, Quantity(user, "2024-01-01", "bento"))

	SetQuantity(&user, "2024-01-01", "bento", 0)
	assert.Equal(t, 0, Quantity(user, "2024-01-01", "bento"))
	assert.Contains(t, user.Selections, models.DateKey("2024-01-01"))

	SetQuantity(&user, "2024-01-01", "dumplings", -4)
	assert.NotContains(t, user.Selections, models.DateKey("2024-01-01"))
}

func TestSetQuantityOnNilSelections(t *testing.T) {
	user := models.UserAccount{UserName: "Bob"}
	SetQuantity(&user, "2024-01-01", "bento", 0)
	assert.Empty(t, user.Selections)

	SetQuantity(&user, "2024-01-01", "bento", 3)
	assert.Equal(t, 3, Quantity(user, "2024-01-01", "bento"))
}

func TestAdjustQuantityRemovesLastItem(t *testing.T) {
	user := models.NewUserAccount("Alice")
	SetQuantity(&user, "2024-01-02", "bento", 1)

	AdjustQuantity(&user, "2024-01-02", "bento", -1)

	assert.Equal(t, 0, Quantity(user, "2024-01-02", "bento"))
	assert.NotContains(t, user.Selections, models.DateKey("2024-01-02"))
}

func TestAdjustQuantityNeverStoresNegative(t *testing.T) {
	user := models.NewUserAccount("Alice")
	AdjustQuantity(&user, "2024-01-02", "bento", -1)
	assert.Empty(t, user.Selections)

	AdjustQuantity(&user, "2024-01-02", "bento", 1)
	AdjustQuantity(&user, "2024-01-02", "bento", 1)
	assert.Equal(t, 2, Quantity(user, "2024-01-02", "bento"))
}

func TestApplyDeposit(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		mode      string
		amount    int64
		want      int64
		wantDelta int64
	}{
		{"add", 100, models.RechargeModeAdd, 500, 600, 500},
		{"sub", 100, models.RechargeModeSub, 300, -200, -300},
		{"set", 100, models.RechargeModeSet, 40, 40, -60},
		{"set same", 100, models.RechargeModeSet, 100, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := models.UserAccount{UserName: "A", Balance: tt.balance}
			delta, err := ApplyDeposit(&user, tt.mode, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, user.Balance)
			assert.Equal(t, tt.wantDelta, delta)
		})
	}

	user := models.UserAccount{UserName: "A"}
	_, err := ApplyDeposit(&user, "double", 1)
	assert.ErrorIs(t, err, models.ErrInvalidMode)
}

func TestNormalize(t *testing.T) {
	user := models.UserAccount{
		UserName: "A",
		Selections: map[models.DateKey]models.DailyOrder{
			"2024-01-01": {"bento": 0, "dumplings": -1},
			"2024-01-02": {"bento": 2, "riceNoodle": 0},
			"2024-01-03": {},
		},
	}
	Normalize(&user)
	assert.Equal(t, map[models.DateKey]models.DailyOrder{
		"2024-01-02": {"bento": 2},
	}, user.Selections)

	empty := models.UserAccount{UserName: "B"}
	Normalize(&empty)
	assert.NotNil(t, empty.Selections)
}
