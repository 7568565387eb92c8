package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// NotifyChannel carries "<collection>/<doc_id>" for every saved document.
const NotifyChannel = "ledger_documents"

const maxListenBackoff = 30 * time.Second

// DocumentStore keeps each ledger document as one JSONB row.
type DocumentStore struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

func NewDocumentStore(pool *pgxpool.Pool, log *logrus.Entry) *DocumentStore {
	return &DocumentStore{pool: pool, log: log}
}

// MinConns leaves room for two pinned LISTEN connections (the session's and
// `watch`'s) plus one for the reload queries they trigger.
const MinConns = 3

// Connect opens a pool for url with at least MinConns connections.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(url, maxConns)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func poolConfig(url string, maxConns int32) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if cfg.MaxConns < MinConns {
		cfg.MaxConns = MinConns
	}
	return cfg, nil
}

func splitDocument(document string) (collection, docID string) {
	collection, docID, _ = strings.Cut(document, "/")
	return collection, docID
}

func (s *DocumentStore) load(ctx context.Context, document string) ([]byte, error) {
	collection, docID := splitDocument(document)
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM ledger_documents WHERE collection = $1 AND doc_id = $2`,
		collection, docID,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", document, err)
	}
	return body, nil
}

// save upserts the document and notifies listeners in the same transaction,
// so a notification is only sent for a committed write.
func (s *DocumentStore) save(ctx context.Context, document string, body []byte) error {
	collection, docID := splitDocument(document)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", document, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO ledger_documents (collection, doc_id, body, updated_at)
        VALUES ($1, $2, $3::jsonb, now())
        ON CONFLICT (collection, doc_id)
        DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		collection, docID, string(body),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", document, err)
	}
	if _, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, document); err != nil {
		return fmt.Errorf("notify %s: %w", document, err)
	}
	return tx.Commit(ctx)
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

// Subscribe LISTENs on a dedicated pooled connection and reloads a document
// whenever its notification arrives. A dropped connection is re-established
// with exponential backoff until the subscription is cancelled.
func (s *DocumentStore) Subscribe(ctx context.Context, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) (repositories.Unsubscribe, error) {
	conn, err := s.listen(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		backoff := time.Second
		for {
			err := s.consume(ctx, conn, onMenu, onRoster)
			conn.Release()
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("change feed connection lost")

			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				conn, err = s.listen(ctx)
				if err == nil {
					backoff = time.Second
					break
				}
				s.log.WithError(err).Warn("change feed reconnect failed")
				backoff *= 2
				if backoff > maxListenBackoff {
					backoff = maxListenBackoff
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (s *DocumentStore) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return conn, nil
}

func (s *DocumentStore) consume(ctx context.Context, conn *pgxpool.Conn, onMenu func([]models.MenuItem), onRoster func([]models.UserAccount)) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		switch n.Payload {
		case models.DocumentMenu:
			if onMenu == nil {
				continue
			}
			items, err := s.LoadMenu(ctx)
			if err != nil {
				s.log.WithError(err).Warn("reload menu after notification")
				continue
			}
			onMenu(items)
		case models.DocumentRoster:
			if onRoster == nil {
				continue
			}
			accounts, err := s.LoadRoster(ctx)
			if err != nil {
				s.log.WithError(err).Warn("reload roster after notification")
				continue
			}
			onRoster(accounts)
		default:
			s.log.WithField("payload", n.Payload).Debug("ignoring notification")
		}
	}
}

func (s *DocumentStore) Close() error {
	s.pool.Close()
	return nil
}
