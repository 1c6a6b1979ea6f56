// Package inspect loads a schema model by introspecting a SQLite database.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/squint/pkg/schema"
	_ "modernc.org/sqlite" // sqlite driver (pure Go)
)

// Inspector reads table definitions out of a SQLite database file.
type Inspector struct {
	logger *slog.Logger
}

// NewInspector creates an Inspector.
func NewInspector(logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inspector{logger: logger}
}

// Load opens the database at path, reads every user table, and returns the
// schema model. Use ":memory:" for an empty model.
func (i *Inspector) Load(ctx context.Context, path string) (*schema.MapModel, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	tables, err := i.tables(ctx, db)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("loaded schema", slog.String("path", path), slog.Int("tables", len(tables)))
	return schema.NewMapModel(tables), nil
}

// tables lists user tables from sqlite_master and introspects each one.
func (i *Inspector) tables(ctx context.Context, db *sql.DB) ([]*schema.Table, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := i.table(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// table introspects one table through PRAGMA table_info.
func (i *Inspector) table(ctx context.Context, db *sql.DB, name string) (*schema.Table, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	t := &schema.Table{Name: name}
	for rows.Next() {
		var (
			cid          int
			colName      string
			declaredType string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &colName, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		t.Columns = append(t.Columns, schema.Column{
			Name: colName,
			Type: schema.ColumnType{
				Nullable: notNull == 0 && pk == 0,
				Base:     schema.AffinityOf(declaredType),
			},
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", name, err)
	}
	return t, nil
}
