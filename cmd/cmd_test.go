package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/bentoledger/internal/auth"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const alice = "張芷涵"

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// execute runs one CLI invocation against a fresh in-memory store.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BENTO_STORE_DRIVER", models.StoreDriverMemory)
	t.Setenv("BENTO_TIME_ZONE", "UTC")

	rootCmd, opts := newRootCmd()
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := run(context.Background(), rootCmd, opts)
	return stdout.String(), stderr.String(), err
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := &models.Config{
		StoreDriver:  models.StoreDriverMemory,
		Debounce:     time.Hour,
		TimeZone:     "UTC",
		InitialNames: []string{"Alice", "Bob"},
		LogLevel:     "error",
		LogFormat:    "text",
		Export: models.ExportConfig{
			Format:       models.ExportFormatJSON,
			Destination:  models.ExportDestinationLocal,
			OutputPath:   t.TempDir(),
			OutputFolder: "reports",
		},
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, false, io.Discard)
	require.NoError(t, err)
	require.NoError(t, a.login(nil, io.Discard, true))
	require.NoError(t, a.openSession(ctx))
	t.Cleanup(func() { a.close(context.Background()) })
	return a
}

func TestMenuListShowsDefaultMenu(t *testing.T) {
	out, _, err := execute(t, "", "menu", "list")
	require.NoError(t, err)
	for _, item := range models.DefaultMenu {
		assert.Contains(t, out, item.ID)
		assert.Contains(t, out, item.Name)
	}
}

func TestMutationNeedsCredential(t *testing.T) {
	_, _, err := execute(t, "", "user", "add", "Zed")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestMutationWithCredential(t *testing.T) {
	t.Setenv("BENTO_ADMIN_PASSWORD", "lunch")
	t.Setenv("BENTO_LOGIN_SECRET", "lunch")

	out, _, err := execute(t, "", "user", "add", "Zed")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Zed")
}

func TestMutationWithWrongSecret(t *testing.T) {
	t.Setenv("BENTO_ADMIN_PASSWORD", "lunch")
	t.Setenv("BENTO_LOGIN_SECRET", "dinner")

	_, _, err := execute(t, "", "user", "add", "Zed")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestDeposit(t *testing.T) {
	out, _, err := execute(t, "", "deposit", alice, "150", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, alice+" balance: 150")

	out, _, err = execute(t, "", "deposit", alice, "40", "--mode", "sub", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, alice+" balance: -40")

	_, _, err = execute(t, "", "deposit", alice, "40", "--mode", "double", "--bypass")
	assert.ErrorIs(t, err, models.ErrInvalidMode)
}

func TestOrderSetByWeekdayLabel(t *testing.T) {
	out, _, err := execute(t, "", "order", "set", alice, "mon", "bento", "2", "--week", "2024-01-03", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-01 bento x2")

	out, _, err = execute(t, "", "order", "add", alice, "2024-01-05", "dumplings", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-05 dumplings x1")
}

func TestOrderRejectsBadInput(t *testing.T) {
	_, _, err := execute(t, "", "order", "set", alice, "someday", "bento", "1", "--bypass")
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, _, err = execute(t, "", "order", "set", alice, "2024-01-01", "pizza", "1", "--bypass")
	assert.ErrorIs(t, err, models.ErrMenuItemNotFound)

	_, _, err = execute(t, "", "order", "set", "Nobody", "2024-01-01", "bento", "1", "--bypass")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestSettleAsksFirst(t *testing.T) {
	out, _, err := execute(t, "n\n", "settle", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")

	out, _, err = execute(t, "", "settle", "--week", "2024-01-03", "--yes", "--bypass")
	require.NoError(t, err)
	assert.Contains(t, out, "Settled week of 2024-01-01")
}

func TestReport(t *testing.T) {
	out, _, err := execute(t, "", "report", "--week", "2024-01-10", "--offset", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Week 2024-01-01 ~ 2024-01-05")
	assert.Contains(t, out, "Grand total: 0")
	assert.Contains(t, out, alice)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BENTO_EXPORT_OUTPUT_PATH", dir)

	out, _, err := execute(t, "", "export", "--format", "json", "--week", "2024-01-03")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.FileExists(t, filepath.Join(dir, "reports", "balances", "week=2024-01-01", "data.json"))
}

func TestUnknownStoreDriver(t *testing.T) {
	_, _, err := execute(t, "", "menu", "list", "--store", "sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestPasswd(t *testing.T) {
	out, _, err := execute(t, "hunter2\nhunter2\n", "passwd")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	_, _, err = execute(t, "hunter2\nhunter3\n", "passwd")
	assert.EqualError(t, err, "passwords do not match")
}

func TestWeekOfAndDayOf(t *testing.T) {
	a := &app{loc: time.UTC}

	start, err := a.weekOf("2024-01-04", 0)
	require.NoError(t, err)
	assert.Equal(t, monday, start)

	start, err = a.weekOf("2024-01-04", 2)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 14), start)

	_, err = a.weekOf("04/01/2024", 0)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	for value, want := range map[string]models.DateKey{
		"Monday":     "2024-01-01",
		"fri":        "2024-01-05",
		"WEDNESDAY":  "2024-01-03",
		"2024-02-14": "2024-02-14",
	} {
		got, err := a.dayOf(value, monday)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}
	_, err = a.dayOf("saturday", monday)
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestSeedGoesThroughSession(t *testing.T) {
	a := newTestApp(t)

	steps := 0
	users, items, err := seed(a.session, monday, seedOptions{users: 4, menuItems: 2, seed: 7}, func() { steps++ })
	require.NoError(t, err)
	assert.Equal(t, 4, users)
	assert.Equal(t, 2, items)
	assert.Equal(t, 6, steps)

	assert.Len(t, a.session.Roster(), 6)
	assert.Len(t, a.session.Menu(), len(models.DefaultMenu)+2)
	assert.True(t, a.session.Pending())

	names := make(map[string]bool)
	for _, name := range a.session.Roster().Names() {
		assert.False(t, names[name], "duplicate %s", name)
		names[name] = true
	}
}

func TestExportWeeksOldestFirst(t *testing.T) {
	a := newTestApp(t)

	weeks := 0
	paths, err := exportWeeks(context.Background(), a, monday, 2, func() { weeks++ })
	require.NoError(t, err)
	assert.Equal(t, 2, weeks)
	require.Len(t, paths, 4)
	assert.Contains(t, paths[0], "week=2023-12-25")
	assert.Contains(t, paths[3], "week=2024-01-01")
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestPrintReportFlagsUnpricedOrders(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.session.SetQuantity("Alice", "2024-01-02", "bento", 2))
	require.NoError(t, a.session.SetQuantity("Bob", "2024-01-02", "dumplings", 1))
	require.NoError(t, a.session.RemoveMenuItem("bento"))

	var out bytes.Buffer
	require.NoError(t, printReport(&out, a.session.Report(monday), a.session.Menu()))
	assert.Contains(t, out.String(), "Grand total: 70")
	assert.Contains(t, out.String(), models.OrphanIcon+" bento")
	assert.Contains(t, out.String(), "1 orders reference items no longer on the menu")
}
