package models

import "time"

const (
	RechargeModeAdd = "add"
	RechargeModeSub = "sub"
	RechargeModeSet = "set"

	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"

	ExportFormatParquet = "parquet"
	ExportFormatJSON    = "json"

	ExportDestinationLocal = "local"
	ExportDestinationS3    = "s3"

	DocumentMenu   = "settings/menu"
	DocumentRoster = "data/users"

	DefaultDebounce = 1500 * time.Millisecond
)

// DefaultMenu is the catalog a fresh store starts with.
var DefaultMenu = []MenuItem{
	{ID: "bento", Name: "便當", Price: 95},
	{ID: "riceNoodle", Name: "米粉", Price: 80},
	{ID: "friedNoodle", Name: "炒麵", Price: 80},
	{ID: "dumplings", Name: "水餃", Price: 70},
}

// DefaultInitialNames seeds the roster when the store has none.
var DefaultInitialNames = []string{
	"張芷涵", "陳怡君", "劉宛蓉", "吳思潔", "蔡欣怡",
	"周承翰", "許雅婷", "楊佳穎", "羅慧玲", "鄭志宏",
}
