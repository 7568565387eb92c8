package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/bentoledger/internal/cloudwriter"
	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func sampleReport() ledger.WeeklyReport {
	menu := ledger.Menu{
		{ID: "bento", Name: "便當", Price: 95},
		{ID: "dumplings", Name: "水餃", Price: 70},
	}
	roster := ledger.Roster{
		{
			UserName: "Alice",
			Balance:  500,
			Selections: map[models.DateKey]models.DailyOrder{
				"2024-01-01": {"bento": 2},
				"2024-01-03": {"ghost": 1},
			},
		},
		{
			UserName: "Bob",
			Balance:  -20,
			Selections: map[models.DateKey]models.DailyOrder{
				"2024-01-02": {"dumplings": 1},
			},
		},
	}
	week := ledger.WeekDates(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return ledger.BuildWeeklyReport(roster, week, menu)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, "orders/week=2024-01-01/data.parquet", partition(TableOrders, "2024-01-01", "parquet"))
}

func TestParquetReportWriterLocal(t *testing.T) {
	dir := t.TempDir()
	w := NewParquetReportWriter(LocalDestination(dir, "reports"))

	paths, err := w.WriteReport(context.Background(), sampleReport())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "reports", "orders", "week=2024-01-01", "data.parquet"), paths[0])

	fr, err := local.NewLocalFileReader(paths[0])
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(OrderRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	require.Equal(t, 3, n)
	rows := make([]OrderRow, n)
	require.NoError(t, pr.Read(&rows))

	assert.Equal(t, OrderRow{
		WeekStart: "2024-01-01",
		Date:      "2024-01-01",
		Weekday:   "Monday",
		UserName:  "Alice",
		ItemID:    "bento",
		ItemName:  "便當",
		Quantity:  2,
		UnitPrice: 95,
		Amount:    190,
	}, rows[0])
	assert.True(t, rows[1].Orphaned)
	assert.Equal(t, "Bob", rows[2].UserName)

	br, err := local.NewLocalFileReader(paths[1])
	require.NoError(t, err)
	defer br.Close()
	bpr, err := reader.NewParquetReader(br, new(BalanceRow), 1)
	require.NoError(t, err)
	defer bpr.ReadStop()

	balances := make([]BalanceRow, bpr.GetNumRows())
	require.NoError(t, bpr.Read(&balances))
	require.Len(t, balances, 2)
	assert.Equal(t, int64(190), balances[0].WeeklyTotal)
	assert.Equal(t, int32(1), balances[0].OrphanedReferences)
	assert.True(t, balances[1].Negative)
}

func TestJSONReportWriterLocal(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(models.ExportFormatJSON, LocalDestination(dir, "reports"))
	require.NoError(t, err)

	paths, err := w.WriteReport(context.Background(), sampleReport())
	require.NoError(t, err)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()

	var rows []BalanceRow
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row BalanceRow
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].UserName)
	assert.Equal(t, int64(-20), rows[1].Balance)
}

func TestReportWriterBucket(t *testing.T) {
	factory := cloudwriter.NewMemoryWriterFactory()
	dest := BucketDestination(factory, "ledger", "reports")

	paths, err := NewJSONReportWriter(dest).WriteReport(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "ledger/reports/orders/week=2024-01-01/data.json", paths[0])

	body, ok := factory.Object("ledger/reports/orders/week=2024-01-01/data.json")
	require.True(t, ok)
	assert.Equal(t, 3, bytes.Count(body, []byte("\n")))

	_, err = NewParquetReportWriter(dest).WriteReport(context.Background(), sampleReport())
	require.NoError(t, err)
	body, ok = factory.Object("ledger/reports/balances/week=2024-01-01/data.parquet")
	require.True(t, ok)
	assert.Equal(t, []byte("PAR1"), body[:4])
}

func TestNewReportWriterRejectsUnknownFormat(t *testing.T) {
	_, err := NewReportWriter("xml", LocalDestination(t.TempDir(), ""))
	assert.Error(t, err)
}
