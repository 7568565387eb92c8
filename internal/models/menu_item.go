package models

// MenuItem is a purchasable lunch item. Prices are whole currency units.
type MenuItem struct {
	ID    string `json:"id" mapstructure:"id"`
	Name  string `json:"name" mapstructure:"name"`
	Price int64  `json:"price" mapstructure:"price"`
}

var menuIcons = map[string]string{
	"bento":       "🍱",
	"riceNoodle":  "🍜",
	"friedNoodle": "🍝",
	"dumplings":   "🥟",
}

// MenuIcon resolves the display icon for an item id. Icons are a display
// concern only and are never stored with the item.
func MenuIcon(id string) string {
	if icon, ok := menuIcons[id]; ok {
		return icon
	}
	return "🍱"
}

// OrphanIcon is shown for selections whose item is no longer on the menu.
const OrphanIcon = "❓"
