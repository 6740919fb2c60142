package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/job-matcher/internal/jobs"
)

const postingColumns = `id, title, company, department, industry, location, type, level,
	salary_min, salary_max, salary_currency, description, requirements,
	responsibilities, skills, posted_date, remote, visa_sponsorship`

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		department TEXT NOT NULL,
		industry TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		salary_min INTEGER NOT NULL DEFAULT 0,
		salary_max INTEGER NOT NULL DEFAULT 0,
		salary_currency TEXT NOT NULL DEFAULT 'USD',
		description TEXT NOT NULL,
		requirements TEXT NOT NULL DEFAULT '[]',
		responsibilities TEXT NOT NULL DEFAULT '[]',
		skills TEXT NOT NULL DEFAULT '[]',
		posted_date TEXT NOT NULL,
		remote BOOLEAN NOT NULL DEFAULT FALSE,
		visa_sponsorship BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_posted_date ON jobs (posted_date)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_department ON jobs (department)`,
}

// SQLStore keeps postings in SQLite (modernc.org/sqlite) or PostgreSQL (pgx).
type SQLStore struct {
	db          *sql.DB
	placeholder func(n int) string
	logger      *zap.Logger
	now         func() time.Time
}

var (
	_ Source = (*SQLStore)(nil)
	_ Writer = (*SQLStore)(nil)
)

// OpenSQL connects to the database. driver is "sqlite", "postgres" or "pgx".
func OpenSQL(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &SQLStore{logger: logger, now: time.Now}

	var sqlDriver string
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
		store.placeholder = func(int) string { return "?" }
	case DriverPostgres, "pgx":
		sqlDriver = "pgx"
		store.placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if sqlDriver == "sqlite" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store.db = db
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders for the active driver.
func (s *SQLStore) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// All returns postings newest first.
func (s *SQLStore) All(ctx context.Context) (*jobs.Postings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postingColumns+` FROM jobs ORDER BY posted_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	postings := jobs.NewPostings()
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings.Items = append(postings.Items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}

	return postings, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*jobs.Posting, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+postingColumns+` FROM jobs WHERE id = ?`), id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count postings: %w", err)
	}
	return n, nil
}

// Insert validates and stores a posting. A missing ID is generated and a
// missing posted date defaults to today.
func (s *SQLStore) Insert(ctx context.Context, posting *jobs.Posting) (*jobs.Posting, error) {
	if err := s.insert(ctx, s.db, posting); err != nil {
		return nil, err
	}
	s.logger.Debug("posting inserted", zap.String("id", posting.ID), zap.String("title", posting.Title))
	return posting, nil
}

// Import inserts postings in one transaction.
func (s *SQLStore) Import(ctx context.Context, postings *jobs.Postings) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}

	for i, p := range postings.Items {
		if err := s.insert(ctx, tx, p); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("import posting %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("postings imported", zap.Int("count", postings.Len()))
	return postings.Len(), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insert(ctx context.Context, db execer, p *jobs.Posting) error {
	if p == nil {
		return errors.New("posting is nil")
	}

	p.Normalize(s.now())
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	requirements, err := json.Marshal(p.Requirements)
	if err != nil {
		return err
	}
	responsibilities, err := json.Marshal(p.Responsibilities)
	if err != nil {
		return err
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return err
	}

	query := s.rebind(`INSERT INTO jobs (` + postingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = db.ExecContext(ctx, query,
		p.ID, p.Title, p.Company, p.Department, p.Industry, p.Location, p.Type, p.Level.String(),
		p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Description, string(requirements),
		string(responsibilities), string(skills), p.PostedDate, p.Remote, p.VisaSponsorship,
	)
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (*jobs.Posting, error) {
	var p jobs.Posting
	var level, requirements, responsibilities, skills string

	err := row.Scan(
		&p.ID, &p.Title, &p.Company, &p.Department, &p.Industry, &p.Location, &p.Type, &level,
		&p.Salary.Min, &p.Salary.Max, &p.Salary.Currency, &p.Description, &requirements,
		&responsibilities, &skills, &p.PostedDate, &p.Remote, &p.VisaSponsorship,
	)
	if err != nil {
		return nil, err
	}

	p.Level = jobs.Level(level)
	if err := unmarshalList(requirements, &p.Requirements); err != nil {
		return nil, fmt.Errorf("posting %s requirements: %w", p.ID, err)
	}
	if err := unmarshalList(responsibilities, &p.Responsibilities); err != nil {
		return nil, fmt.Errorf("posting %s responsibilities: %w", p.ID, err)
	}
	if err := unmarshalList(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("posting %s skills: %w", p.ID, err)
	}

	return &p, nil
}

func unmarshalList(raw string, target *[]string) error {
	if strings.TrimSpace(raw) == "" {
		*target = []string{}
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}
