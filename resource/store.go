package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"service-runtime/middleware/errhandler/infra"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store é a persistência de Resource.
type Store interface {
	Create(ctx context.Context, r Resource) (Resource, error)
	Get(ctx context.Context, id int64) (Resource, error)
	List(ctx context.Context, f Filter) ([]Resource, int, error)
	Update(ctx context.Context, id int64, p Patch) (Resource, error)
	Delete(ctx context.Context, id int64) error
}

const columns = "id, name, description, status, created_at, updated_at"

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open conecta no Postgres e valida a conexão.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Create(ctx context.Context, r Resource) (Resource, error) {
	if r.Status == "" {
		r.Status = StatusActive
	}
	if err := validateModel(r); err != nil {
		return Resource{}, err
	}

	var out Resource
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO resources (name, description, status) VALUES ($1, $2, $3) RETURNING `+columns,
		r.Name, r.Description, r.Status,
	).StructScan(&out)
	if err != nil {
		return Resource{}, fmt.Errorf("insert resource: %w", infra.TranslatePostgres(err))
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Resource, error) {
	var out Resource
	err := s.db.GetContext(ctx, &out, `SELECT `+columns+` FROM resources WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Resource{}, ErrNotFound
	}
	if err != nil {
		return Resource{}, fmt.Errorf("get resource %d: %w", id, err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Resource, int, error) {
	where, args := buildWhere(f)

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM resources`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}

	n := len(args)
	query := `SELECT ` + columns + ` FROM resources` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows := []Resource{}
	if err := s.db.SelectContext(ctx, &rows, query, append(args, f.Limit, f.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return rows, count, nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Query != "" {
		add("name ILIKE ?", "%"+escapeLike(f.Query)+"%")
	}
	if f.CreatedFrom != nil {
		add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at <= ?", *f.CreatedTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (s *PostgresStore) Update(ctx context.Context, id int64, p Patch) (out Resource, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Resource{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var cur Resource
	err = tx.GetContext(ctx, &cur, `SELECT `+columns+` FROM resources WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Resource{}, ErrNotFound
	}
	if err != nil {
		return Resource{}, fmt.Errorf("load resource %d: %w", id, err)
	}

	p.apply(&cur)
	if err = validateModel(cur); err != nil {
		return Resource{}, err
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE resources SET name = $1, description = $2, status = $3, updated_at = now() WHERE id = $4 RETURNING `+columns,
		cur.Name, cur.Description, cur.Status, id,
	).StructScan(&out)
	if err != nil {
		return Resource{}, fmt.Errorf("update resource %d: %w", id, infra.TranslatePostgres(err))
	}

	if err = tx.Commit(); err != nil {
		return Resource{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resource %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Shutdown fecha o pool de conexões. Implementa shutdown.Resource.
func (s *PostgresStore) Shutdown(context.Context) error {
	return s.db.Close()
}
