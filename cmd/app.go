package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chrisdamba/bentoledger/internal/auth"
	"github.com/chrisdamba/bentoledger/internal/events"
	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/logging"
	"github.com/chrisdamba/bentoledger/internal/metrics"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
	"github.com/chrisdamba/bentoledger/internal/repositories/memory"
	"github.com/chrisdamba/bentoledger/internal/repositories/postgres"
	"github.com/chrisdamba/bentoledger/internal/repositories/redis"
	"github.com/chrisdamba/bentoledger/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg       *models.Config
	log       *logrus.Logger
	loc       *time.Location
	metrics   *metrics.Metrics
	store     repositories.Store
	auth      *auth.Service
	publisher events.Publisher
	session   *session.Session
	bypass    bool
}

func newApp(ctx context.Context, cfg *models.Config, printEvents bool, stderr io.Writer) (*app, error) {
	log, err := logging.NewWithOutput(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", cfg.TimeZone, err)
	}

	a := &app{cfg: cfg, log: log, loc: loc, metrics: metrics.New()}

	a.auth, err = auth.NewService(cfg.Admin, a.metrics)
	if err != nil {
		return nil, err
	}

	a.store, err = openStore(ctx, cfg, logging.Component(log, "store"))
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Kafka.Enabled:
		a.publisher, err = events.NewKafkaPublisher(cfg.Kafka, logging.Component(log, "events"))
		if err != nil {
			a.store.Close()
			return nil, err
		}
	case printEvents:
		a.publisher = events.NewConsolePublisher(stderr)
	default:
		a.publisher = events.NopPublisher{}
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *models.Config, log *logrus.Entry) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case models.StoreDriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, nil); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return postgres.NewDocumentStore(pool, log), nil
	case models.StoreDriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redis.NewDocumentStore(client, cfg.Redis.KeyPrefix, log), nil
	default:
		log.Warn("using the in-memory store, nothing outlives this process")
		return memory.NewStore(), nil
	}
}

func (a *app) gate() session.Gate {
	return session.GateFunc(func() bool {
		return a.bypass || a.auth.Authenticated()
	})
}

func (a *app) openSession(ctx context.Context) error {
	s, err := session.Open(ctx, a.store, a.gate(), session.Options{
		Debounce:     a.cfg.Debounce,
		InitialNames: a.cfg.Names(),
		DefaultMenu:  a.cfg.Menu(),
		Location:     a.loc,
		Publisher:    a.publisher,
		Topic:        a.cfg.Kafka.Topic,
		Metrics:      a.metrics,
		Log:          logging.Component(a.log, "session"),
	})
	if err != nil {
		return err
	}
	a.session = s
	return nil
}

// login signs the operator in. The secret comes from BENTO_LOGIN_SECRET or,
// on a terminal, a hidden prompt.
func (a *app) login(in io.Reader, out io.Writer, bypass bool) error {
	if bypass {
		a.log.Warn("bypass mode: mutations are not authenticated")
		a.bypass = true
		return nil
	}

	if !a.auth.Configured() {
		return fmt.Errorf("%w: set admin.password_hash (see `bentoledger passwd`) or pass --bypass", auth.ErrNotConfigured)
	}

	secret, ok := os.LookupEnv("BENTO_LOGIN_SECRET")
	if !ok {
		var err error
		secret, err = promptSecret(in, out, fmt.Sprintf("Password for %s: ", a.cfg.Admin.ID))
		if err != nil {
			return err
		}
	}

	return a.auth.Login(a.cfg.Admin.ID, secret)
}

func promptSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	line, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return line, nil
}

// close flushes pending edits before releasing the store.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.session != nil {
		if a.session.Pending() {
			if err := a.session.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		errs = append(errs, a.session.Close())
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// weekOf resolves a week selection to its Monday: value is any YYYY-MM-DD
// in the week (empty for the current week) and offset moves by whole weeks.
func (a *app) weekOf(value string, offset int) (time.Time, error) {
	t := time.Now().In(a.loc)
	if strings.TrimSpace(value) != "" {
		var err error
		t, err = ledger.ParseDateKey(value, a.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, value)
		}
	}
	return ledger.ShiftWeek(t, offset), nil
}

// dayOf accepts a YYYY-MM-DD key or a weekday label of the given week.
func (a *app) dayOf(value string, weekStart time.Time) (models.DateKey, error) {
	week := ledger.WeekDates(weekStart)
	for _, day := range week {
		if strings.EqualFold(day.Label, value) || strings.EqualFold(day.Label[:3], value) {
			return day.Date, nil
		}
	}
	if _, err := ledger.ParseDateKey(value, a.loc); err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidDate, value)
	}
	return models.DateKey(value), nil
}
