package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	pkgch "github.com/lian220/quintiq-backend/pkg/clickhouse"
	applogger "github.com/lian220/quintiq-backend/pkg/logger"
)

var instrumentSchema = []string{`
	CREATE TABLE IF NOT EXISTS instruments (
		kind       LowCardinality(String),
		code       String,
		name       String,
		is_active  UInt8,
		updated_at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (kind, code)`,
}

// CHInstrumentStore lists the macro series, market indicators and tickers tracked by the pipeline.
type CHInstrumentStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHInstrumentStore(ch *pkgch.Client, l *applogger.Logger) *CHInstrumentStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHInstrumentStore{ch: ch, db: ch.DB(), l: l}
}

func (s *CHInstrumentStore) Schema() []string { return instrumentSchema }

// FindActive returns active rows of kind ordered by code.
func (s *CHInstrumentStore) FindActive(ctx context.Context, kind models.SourceClass) ([]models.Instrument, error) {
	const q = `SELECT code, name FROM instruments FINAL WHERE kind = ? AND is_active = 1 ORDER BY code`
	rows, err := s.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		s.l.Error("clickhouse find_active error", applogger.String("kind", string(kind)), applogger.Error(err))
		return nil, fmt.Errorf("find active %s: %w: %v", kind, models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		in := models.Instrument{Kind: kind}
		if err := rows.Scan(&in.Code, &in.Name); err != nil {
			return nil, fmt.Errorf("scan instrument: %w: %v", models.ErrStorageUnavailable, err)
		}
		if in.Name == "" {
			in.Name = in.Code
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows instrument: %w: %v", models.ErrStorageUnavailable, err)
	}
	return out, nil
}

// SaveInstruments upserts instruments as active in one batch.
func (s *CHInstrumentStore) SaveInstruments(ctx context.Context, instruments []models.Instrument) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(instruments))
	for _, in := range instruments {
		if in.Code == "" {
			continue
		}
		rows = append(rows, []any{string(in.Kind), in.Code, in.Name, uint8(1), now})
	}
	const q = `INSERT INTO instruments (kind, code, name, is_active, updated_at)`
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("save instruments: %w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}
