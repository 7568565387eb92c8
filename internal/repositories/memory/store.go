// Package memory keeps the menu and roster documents in process. It backs
// tests and the offline "memory" store driver.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
)

var errClosed = errors.New("memory store closed")

type change struct {
	document string
	body     []byte
}

type subscriber struct {
	changes  chan change
	done     chan struct{}
	onMenu   func([]models.MenuItem)
	onRoster func([]models.UserAccount)
}

// Store holds encoded documents so every load returns a fresh copy, the same
// as a remote store would.
type Store struct {
	mu          sync.Mutex
	menu        []byte
	roster      []byte
	subscribers map[int]*subscriber
	nextID      int
	closed      bool
	saveErr     error
	saves       map[string]int
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]*subscriber),
		saves:       make(map[string]int),
	}
}

// FailSaves makes every following save return err; nil restores saving.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves reports how many successful writes a document has received.
func (s *Store) Saves(document string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[document]
}

func (s *Store) LoadMenu(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.Lock()
	body := s.menu
	s.mu.Unlock()
	if body == nil {
		return nil, repositories.ErrNotFound
	}
	return repositories.DecodeMenu(body)
}

func (s *Store) LoadRoster(ctx context.Context) ([]models.UserAccount, error) {
	s.mu.Lock()
	body := s.roster
	s.mu.Unlock()
	if body == nil {
		return nil, repositories.ErrNotFound
	}
	return repositories.DecodeRoster(body)
}

func (s *Store) SaveMenu(ctx context.Context, items []models.MenuItem) error {
	body, err := repositories.EncodeMenu(items)
	if err != nil {
		return err
	}
	return s.save(ctx, models.DocumentMenu, body)
}

func (s *Store) SaveRoster(ctx context.Context, accounts []models.UserAccount) error {
	body, err := repositories.EncodeRoster(accounts)
	if err != nil {
		return err
	}
	return s.save(ctx, models.DocumentRoster, body)
}

func (s *Store) save(ctx context.Context, document string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	if s.saveErr != nil {
		err := s.saveErr
		s.mu.Unlock()
		return err
	}
	switch document {
	case models.DocumentMenu:
		s.menu = body
	case models.DocumentRoster:
		s.roster = body
	}
	s.saves[document]++
	subs := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.changes <- change{document: document, body: body}:
		case <-sub.done:
		}
	}
	return nil
}

// Subscribe delivers changes on a goroutine per subscriber, in write order.
func (s *Store) Subscribe(ctx context.Context, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) (repositories.Unsubscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	sub := &subscriber{
		changes:  make(chan change, 16),
		done:     make(chan struct{}),
		onMenu:   onMenu,
		onRoster: onRoster,
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = sub
	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(sub.done)
		})
	}, nil
}

func (sub *subscriber) run() {
	for {
		select {
		case <-sub.done:
			return
		case c := <-sub.changes:
			sub.dispatch(c)
		}
	}
}

func (sub *subscriber) dispatch(c change) {
	switch c.document {
	case models.DocumentMenu:
		if sub.onMenu == nil {
			return
		}
		if items, err := repositories.DecodeMenu(c.body); err == nil {
			sub.onMenu(items)
		}
	case models.DocumentRoster:
		if sub.onRoster == nil {
			return
		}
		if accounts, err := repositories.DecodeRoster(c.body); err == nil {
			sub.onRoster(accounts)
		}
	}
}

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subscribers
	s.subscribers = make(map[int]*subscriber)
	s.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
	return nil
}
