package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	"github.com/ovasilenko/jotkeeper/internal/common"
	"github.com/ovasilenko/jotkeeper/internal/dbx"
	"github.com/ovasilenko/jotkeeper/internal/logging"
)

const (
	documentsTable = "jotkeeper_documents"
	notifyChannel  = "jotkeeper_changes"

	listenRetryBase = time.Second
	listenRetryCap  = 30 * time.Second
)

// PostgresStore implements Store over a Postgres database: one JSONB document
// per (user, collection, id), a trigger publishing change notifications on a
// LISTEN/NOTIFY channel, and a transaction per batch commit.
type PostgresStore struct {
	dsn    string
	userID string
	db     *sql.DB
	log    logging.Logger
}

// NewPostgresStore opens the remote store at dsn, scoped to userID, and
// provisions the document table and notify trigger if they are missing.
func NewPostgresStore(ctx context.Context, dsn, userID string, log logging.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	s := &PostgresStore{dsn: dsn, userID: userID, db: db, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, s.mapError(err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT NOT NULL,
			collection TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, collection, doc_id)
		)`, documentsTable),
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s_notify() RETURNS trigger AS $$
		DECLARE
			rec RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := OLD;
			ELSE
				rec := NEW;
			END IF;
			PERFORM pg_notify('%s', rec.user_id || '/' || rec.collection);
			RETURN rec;
		END;
		$$ LANGUAGE plpgsql`, documentsTable, notifyChannel),
		fmt.Sprintf(`DROP TRIGGER IF EXISTS %[1]s_changed ON %[1]s`, documentsTable),
		fmt.Sprintf(`CREATE TRIGGER %[1]s_changed
			AFTER INSERT OR UPDATE OR DELETE ON %[1]s
			FOR EACH ROW EXECUTE FUNCTION %[1]s_notify()`, documentsTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// mapError translates driver errors into the shared sentinels: permission
// problems become ErrAccessDenied, everything else ErrUnavailable.
func (s *PostgresStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42501 insufficient_privilege, class 28 invalid authorization.
		if pgErr.Code == "42501" || strings.HasPrefix(pgErr.Code, "28") {
			return fmt.Errorf("%w: %s", common.ErrAccessDenied, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
}

func (s *PostgresStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	query := fmt.Sprintf(`SELECT doc_id, doc FROM %s WHERE user_id=$1 AND collection=$2`, documentsTable)
	rows, err := s.db.QueryContext(ctx, query, s.userID, collection)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, s.mapError(err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return result, nil
}

func upsertDocSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (user_id, collection, doc_id, doc, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, collection, doc_id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, documentsTable)
}

func deleteDocSQL() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE user_id=$1 AND collection=$2 AND doc_id=$3`, documentsTable)
}

func (s *PostgresStore) Upsert(ctx context.Context, collection, id string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertDocSQL(), s.userID, collection, id, data); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteDocSQL(), s.userID, collection, id); err != nil {
		return s.mapError(err)
	}
	return nil
}

type batchOp struct {
	upsert     bool
	collection string
	id         string
	data       []byte
}

type postgresBatch struct {
	store *PostgresStore
	ops   []batchOp
}

func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{store: s}
}

func (b *postgresBatch) QueueUpsert(collection, id string, data []byte) {
	b.ops = append(b.ops, batchOp{upsert: true, collection: collection, id: id, data: data})
}

func (b *postgresBatch) QueueDelete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id})
}

func (b *postgresBatch) Len() int { return len(b.ops) }

// Commit applies every queued operation inside one transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	s := b.store
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, op := range b.ops {
			var err error
			if op.upsert {
				_, err = tx.ExecContext(ctx, upsertDocSQL(), s.userID, op.collection, op.id, op.data)
			} else {
				_, err = tx.ExecContext(ctx, deleteDocSQL(), s.userID, op.collection, op.id)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return s.mapError(err)
}

// Subscribe listens on the notify channel with a dedicated connection,
// re-attaching with capped exponential backoff after connection loss.
func (s *PostgresStore) Subscribe(ctx context.Context, onChange func(collection string)) (UnsubscribeFunc, error) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		backoff := retry.WithCappedDuration(listenRetryCap, retry.NewExponential(listenRetryBase))
		for {
			err := s.listenOnce(ctx, onChange)
			if ctx.Err() != nil {
				return
			}
			s.log.Warn(ctx, "change stream lost, re-attaching", "error", err)

			d, _ := backoff.Next()
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return
			}
		}
	}()

	return UnsubscribeFunc(cancel), nil
}

func (s *PostgresStore) listenOnce(ctx context.Context, onChange func(collection string)) error {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}

	// Notifications raised while detached are gone; synthesize one change
	// per collection so subscribers re-fetch whatever they missed.
	for _, collection := range []string{
		CollectionNotes,
		CollectionCategories,
		CollectionQuickActions,
		CollectionSettings,
	} {
		onChange(collection)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		userID, collection, ok := strings.Cut(n.Payload, "/")
		if !ok || userID != s.userID {
			continue
		}
		onChange(collection)
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
