package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"trainingcrm/internal/models"
)

// Dialect is the SQL flavour of a SQLTable.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const opportunityColumns = `id, customer_name, created_at, last_updated_at, target_close_date, assignee, name,
	contact, trainings, activities, tasks, total_amount, notes, status`

// SQLTable stores opportunities in a single table, either in Postgres (the
// hosted project database) or in a local SQLite file.
type SQLTable struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

func NewSQLTable(db *sql.DB, dialect Dialect, table string) *SQLTable {
	if table == "" {
		table = "opportunities"
	}
	return &SQLTable{db: db, dialect: dialect, table: table}
}

// OpenSQLite opens a SQLite file with the same pragmas the CLI tools use.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the table when it does not exist yet.
func (r *SQLTable) EnsureSchema(ctx context.Context) error {
	blob, ts := "JSONB", "TIMESTAMPTZ"
	if r.dialect == DialectSQLite {
		blob, ts = "TEXT", "DATETIME"
	}
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id                TEXT PRIMARY KEY,
  customer_name     TEXT NOT NULL,
  created_at        %[3]s NOT NULL,
  last_updated_at   %[3]s,
  target_close_date TEXT,
  assignee          TEXT,
  name              TEXT NOT NULL,
  contact           %[2]s NOT NULL,
  trainings         %[2]s NOT NULL,
  activities        %[2]s NOT NULL,
  tasks             %[2]s NOT NULL,
  total_amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
  notes             TEXT,
  status            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s(created_at);`, r.table, blob, ts)

	// lib/pq runs multi-statement strings only without arguments, which
	// holds here; modernc accepts them as well.
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLTable) SelectAll(ctx context.Context) ([]models.Opportunity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, opportunityColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select opportunities: %w", err)
	}
	defer rows.Close()

	list := []models.Opportunity{}
	for rows.Next() {
		var (
			row                                 opportunityRow
			lastUpdated                         sql.NullTime
			target, assignee, notes             sql.NullString
			contact, trainings, activities, tsk string
		)
		if err := rows.Scan(
			&row.ID, &row.CustomerName, &row.CreatedAt, &lastUpdated, &target, &assignee, &row.Name,
			&contact, &trainings, &activities, &tsk, &row.TotalAmount, &notes, &row.Status,
		); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		if lastUpdated.Valid {
			t := lastUpdated.Time
			row.LastUpdatedAt = &t
		}
		row.TargetCloseDate = fromNull(target)
		row.Assignee = fromNull(assignee)
		row.Notes = fromNull(notes)
		row.Contact = []byte(contact)
		row.Trainings = []byte(trainings)
		row.Activities = []byte(activities)
		row.Tasks = []byte(tsk)

		opp, err := row.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return list, nil
}

func (r *SQLTable) Insert(ctx context.Context, opp *models.Opportunity) error {
	row, err := toRow(opp)
	if err != nil {
		return err
	}
	var lastUpdated any
	if row.LastUpdatedAt != nil {
		lastUpdated = row.LastUpdatedAt.UTC()
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, r.table, opportunityColumns, r.placeholders(1, 14))
	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.CustomerName, row.CreatedAt.UTC(), lastUpdated,
		sqlArg(row.TargetCloseDate), sqlArg(row.Assignee), row.Name,
		string(row.Contact), string(row.Trainings), string(row.Activities), string(row.Tasks),
		row.TotalAmount, sqlArg(row.Notes), row.Status,
	)
	if err != nil {
		if r.isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", opp.ID, models.ErrDuplicateID)
		}
		return fmt.Errorf("insert %s: %w", opp.ID, err)
	}
	return nil
}

func (r *SQLTable) Update(ctx context.Context, id string, patch models.OpportunityPatch) error {
	cols, vals, err := patchColumns(patch)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, len(cols))
	args := make([]any, 0, len(vals)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s", c, r.placeholder(i+1))
		args = append(args, sqlArg(vals[i]))
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = %s`, r.table, strings.Join(sets, ", "), r.placeholder(len(cols)+1))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *SQLTable) placeholder(n int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *SQLTable) placeholders(from, to int) string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, r.placeholder(i))
	}
	return strings.Join(out, ", ")
}

func (r *SQLTable) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return r.dialect == DialectSQLite && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// sqlArg unwraps the helper types used by patchColumns into plain driver
// values.
func sqlArg(v any) any {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case jsonBlob:
		return string(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
