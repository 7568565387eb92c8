// Package redis stores ledger documents as JSON strings and fans changes out
// over Redis pub/sub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type DocumentStore struct {
	client *goredis.Client
	prefix string
	log    *logrus.Entry
}

func NewDocumentStore(client *goredis.Client, prefix string, log *logrus.Entry) *DocumentStore {
	return &DocumentStore{client: client, prefix: prefix, log: log}
}

// Connect builds a client and checks the server answers.
func Connect(ctx context.Context, cfg models.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// key maps "settings/menu" to "<prefix>:settings:menu".
func (s *DocumentStore) key(document string) string {
	k := strings.ReplaceAll(document, "/", ":")
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *DocumentStore) channel() string {
	return s.key("changes")
}

func (s *DocumentStore) load(ctx context.Context, document string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.key(document)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", document, err)
	}
	return body, nil
}

// save writes the document and publishes its name in one MULTI/EXEC block.
func (s *DocumentStore) save(ctx context.Context, document string, body []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key(document), body, 0)
		pipe.Publish(ctx, s.channel(), document)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", document, err)
	}
	return nil
}

func (s *DocumentStore) LoadMenu(ctx context.Context) ([]models.MenuItem, error) {
	body, err := s.load(ctx, models.DocumentMenu)
	if err != nil {
		return nil, err
	}
	return repositories.DecodeMenu(body)
}

func (s *DocumentStore) SaveMenu(ctx context.Context, items []models.MenuItem) error {
	body, err := repositories.EncodeMenu(items)
	if err != nil {
		return err
	}
	return s.save(ctx, models.DocumentMenu, body)
}

func (s *DocumentStore) LoadRoster(ctx context.Context) ([]models.UserAccount, error) {
	body, err := s.load(ctx, models.DocumentRoster)
	if err != nil {
		return nil, err
	}
	return repositories.DecodeRoster(body)
}

func (s *DocumentStore) SaveRoster(ctx context.Context, accounts []models.UserAccount) error {
	body, err := repositories.EncodeRoster(accounts)
	if err != nil {
		return err
	}
	return s.save(ctx, models.DocumentRoster, body)
}

func (s *DocumentStore) Subscribe(ctx context.Context, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) (repositories.Unsubscribe, error) {
	pubsub := s.client.Subscribe(ctx, s.channel())
	// Wait for the subscription confirmation so no change is missed after
	// Subscribe returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				s.dispatch(ctx, msg.Payload, onMenu, onRoster)
			}
		}
	}()

	return func() {
		cancel()
		pubsub.Close()
		<-done
	}, nil
}

func (s *DocumentStore) dispatch(ctx context.Context, document string, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) {
	switch document {
	case models.DocumentMenu:
		if onMenu == nil {
			return
		}
		items, err := s.LoadMenu(ctx)
		if err != nil {
			s.log.WithError(err).Warn("reload menu after publish")
			return
		}
		onMenu(items)
	case models.DocumentRoster:
		if onRoster == nil {
			return
		}
		accounts, err := s.LoadRoster(ctx)
		if err != nil {
			s.log.WithError(err).Warn("reload roster after publish")
			return
		}
		onRoster(accounts)
	default:
		s.log.WithField("payload", document).Debug("ignoring change message")
	}
}

func (s *DocumentStore) Close() error {
	return s.client.Close()
}
