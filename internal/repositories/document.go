package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
)

type menuDocument struct {
	Items []models.MenuItem `json:"items"`
}

type rosterDocument struct {
	List []models.UserAccount `json:"list"`
}

func EncodeMenu(items []models.MenuItem) ([]byte, error) {
	if items == nil {
		items = []models.MenuItem{}
	}
	return json.Marshal(menuDocument{Items: items})
}

func DecodeMenu(body []byte) ([]models.MenuItem, error) {
	var doc menuDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode menu document: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []models.MenuItem{}
	}
	return doc.Items, nil
}

func EncodeRoster(accounts []models.UserAccount) ([]byte, error) {
	if accounts == nil {
		accounts = []models.UserAccount{}
	}
	return json.Marshal(rosterDocument{List: accounts})
}

// DecodeRoster parses a roster document and drops zero quantities and empty
// days, which other writers may have stored.
func DecodeRoster(body []byte) ([]models.UserAccount, error) {
	var doc rosterDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode roster document: %w", err)
	}
	if doc.List == nil {
		doc.List = []models.UserAccount{}
	}
	for i := range doc.List {
		ledger.Normalize(&doc.List[i])
	}
	return doc.List, nil
}
