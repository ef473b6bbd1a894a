// Package sqlstore persists analyses and alerts over database/sql. The same queries serve
// MySQL in production and SQLite for local runs and tests; only the schema differs.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"rentcomps/internal/domain"
)

//go:embed schema/*.sql
var schemas embed.FS

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct {
	db      *sql.DB
	dialect string
}

func New(db *sql.DB, dialect string) *Repo { return &Repo{db: db, dialect: dialect} }

// Open connects and pings. driver is "mysql" or "sqlite3".
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != "mysql" && driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if driver == "sqlite3" {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema for the repo's dialect. Statements are idempotent.
func (r *Repo) Migrate(ctx context.Context) error {
	b, err := schemas.ReadFile("schema/" + r.dialect + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for dialect %q: %w", r.dialect, err)
	}
	for _, stmt := range strings.Split(string(b), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *Repo) SaveAnalysis(ctx context.Context, rec domain.AnalysisRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	created := rec.CreatedAt.UTC()
	if _, err := tx.ExecContext(ctx, insertAnalysisSQL,
		rec.ID,
		rec.UnitID,
		rec.LandlordID,
		created,
		rec.DataSource,
		rec.CompCount,
		rec.CurrentRent,
		rec.HedonicPrice,
		string(rec.Method),
		rec.Confidence,
		rec.VacancyRisk,
		rec.Median,
		valJSON(rec.BundleJSON),
		valJSON(rec.HedonicJSON),
		rec.Narrative,
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	for _, a := range rec.Alerts {
		if _, err := tx.ExecContext(ctx, insertAlertSQL,
			rec.ID, rec.UnitID, rec.LandlordID, string(a.Kind), a.Message, created,
		); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repo) RecentAnalyses(ctx context.Context, unitID string, limit int) ([]domain.AnalysisRecord, error) {
	rows, err := r.db.QueryContext(ctx, recentAnalysesSQL, unitID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AnalysisRecord{}
	index := map[string]int{}
	for rows.Next() {
		var (
			rec       domain.AnalysisRecord
			method    string
			bundle    []byte
			hedonic   []byte
			narrative sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.UnitID, &rec.LandlordID, &rec.CreatedAt, &rec.DataSource, &rec.CompCount,
			&rec.CurrentRent, &rec.HedonicPrice, &method, &rec.Confidence, &rec.VacancyRisk,
			&rec.Median, &bundle, &hedonic, &narrative,
		); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.Method = domain.HedonicMethod(method)
		rec.BundleJSON, rec.HedonicJSON = bundle, hedonic
		rec.Narrative = narrative.String
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	alerts, err := r.queryAlerts(ctx, unitAlertsSQL, unitID)
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		if i, ok := index[a.AnalysisID]; ok {
			out[i].Alerts = append(out[i].Alerts, a)
		}
	}
	return out, nil
}

func (r *Repo) AlertsForLandlord(ctx context.Context, landlordID string, limit int) ([]domain.Alert, error) {
	return r.queryAlerts(ctx, landlordAlertsSQL, landlordID, limit)
}

func (r *Repo) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Alert{}
	for rows.Next() {
		var a domain.Alert
		var kind string
		if err := rows.Scan(&a.AnalysisID, &a.UnitID, &a.LandlordID, &kind, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.AlertKind(kind)
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
