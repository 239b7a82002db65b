package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/content"
	"github.com/communitydesk/communitydesk/pkg/sheets"
	"github.com/communitydesk/communitydesk/pkg/stores"
	"github.com/communitydesk/communitydesk/pkg/telemetry"
)

// appEnv is what setup prepared for the running command.
type appEnv struct {
	cfg *config.Config
	tel *telemetry.Telemetry
}

type envContextKey struct{}

func withEnv(ctx context.Context, env *appEnv) context.Context {
	return context.WithValue(ctx, envContextKey{}, env)
}

func envFrom(ctx context.Context) *appEnv {
	if ctx == nil {
		return nil
	}
	env, _ := ctx.Value(envContextKey{}).(*appEnv)
	return env
}

// openStore opens the database and brings its schema up to date. The
// caller closes the store.
func (e *appEnv) openStore(ctx context.Context) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:        e.cfg.Database.Path,
		BusyTimeout: e.cfg.Database.BusyTimeout,
		Metrics:     e.tel.Metrics,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to prepare database: %w", err)
	}

	return store, nil
}

// withStore runs fn against an open store.
func withStore(ctx context.Context, fn func(store *stores.SQLiteStore) error) error {
	env := envFrom(ctx)
	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close database")
		}
	}()
	return fn(store)
}

// remote returns the configured sync target, nil when sync is disabled.
func (e *appEnv) remote() (sheets.Remote, error) {
	if e.cfg.Sync.WorkbookPath != "" {
		return sheets.NewWorkbookRemote(e.cfg.Sync.WorkbookPath), nil
	}
	if e.cfg.Sync.ScriptURL != "" {
		r, err := sheets.NewHTTPRemote(e.cfg.Sync.ScriptURL, e.cfg.Sync.Timeout)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, nil
}

func (e *appEnv) sender() content.Sender {
	return content.Sender{
		School:      e.cfg.School.Name,
		Coordinator: e.cfg.School.Coordinator,
		Principal:   e.cfg.School.Principal,
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewUserInputError(fmt.Sprintf("invalid id %q", arg), err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
