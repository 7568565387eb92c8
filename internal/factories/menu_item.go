package factories

import (
	"math/rand"
	"sort"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var lunchDishes = map[string][]string{
	"Japanese":  {"Katsu Curry", "Salmon Don", "Tonkotsu Ramen", "Onigiri Set"},
	"Taiwanese": {"Braised Pork Rice", "Beef Noodle Soup", "Gua Bao", "Three Cup Chicken"},
	"Chinese":   {"Kung Pao Chicken", "Fried Rice", "Mapo Tofu", "Wonton Soup"},
	"Thai":      {"Pad Thai", "Green Curry", "Basil Pork Rice", "Tom Yum Soup"},
	"Korean":    {"Bibimbap", "Bulgogi Bowl", "Kimchi Stew", "Japchae"},
	"Indian":    {"Chicken Tikka Masala", "Vegetable Biryani", "Dal Makhani", "Paneer Wrap"},
}

// MenuFactory builds extra catalog entries for demos.
type MenuFactory struct {
	fake faker.Faker
}

func NewMenuFactory(seed int64) *MenuFactory {
	return &MenuFactory{fake: faker.NewWithSeed(rand.NewSource(seed))}
}

func (mf *MenuFactory) randomDish() string {
	cuisines := make([]string, 0, len(lunchDishes))
	for cuisine := range lunchDishes {
		cuisines = append(cuisines, cuisine)
	}
	sort.Strings(cuisines)
	dishes := lunchDishes[mf.fake.RandomStringElement(cuisines)]
	return dishes[mf.fake.IntBetween(0, len(dishes)-1)]
}

// CreateMenuItem returns an item with a cuid id and a price between 60 and
// 150 in steps of 5.
func (mf *MenuFactory) CreateMenuItem() models.MenuItem {
	return models.MenuItem{
		ID:    cuid.New(),
		Name:  mf.randomDish(),
		Price: 5 * mf.fake.Int64Between(12, 30),
	}
}

// CreateMenuItems returns n items with distinct names.
func (mf *MenuFactory) CreateMenuItems(n int) []models.MenuItem {
	items := make([]models.MenuItem, 0, n)
	seen := make(map[string]bool, n)
	for attempts := 0; len(items) < n && attempts < n*20; attempts++ {
		item := mf.CreateMenuItem()
		if seen[item.Name] {
			continue
		}
		seen[item.Name] = true
		items = append(items, item)
	}
	return items
}
