package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/rawdata"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

var rawDataColumns = []string{
	"source", "entity_type", "entity_key", "match_external_id",
	"payload", "payload_hash", "source_updated_at",
}

// An unchanged hash leaves the row alone apart from ingested_at.
const rawDataUpsertSuffix = `ON CONFLICT (source, entity_type, entity_key) WHERE deleted_at IS NULL
DO UPDATE SET
    match_external_id = EXCLUDED.match_external_id,
    payload = CASE WHEN raw_data_payloads.payload_hash = EXCLUDED.payload_hash THEN raw_data_payloads.payload ELSE EXCLUDED.payload END,
    payload_hash = EXCLUDED.payload_hash,
    source_updated_at = COALESCE(EXCLUDED.source_updated_at, raw_data_payloads.source_updated_at),
    ingested_at = NOW()`

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

// UpsertMany writes every payload in a single statement. Postgres rejects an
// upsert that touches one row twice, so duplicates are collapsed first.
func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	items = rawdata.Dedupe(items)
	if len(items) == 0 {
		return nil
	}

	query, args, err := buildRawDataUpsert(items)
	if err != nil {
		return fmt.Errorf("build upsert raw payloads query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d raw payloads for %s: %w", len(items), items[0].MatchExternalID, err)
	}
	return nil
}

func buildRawDataUpsert(items []rawdata.Payload) (string, []any, error) {
	insert := qb.InsertInto("raw_data_payloads").Columns(rawDataColumns...).Suffix(rawDataUpsertSuffix)
	for _, item := range items {
		insert.Values(
			item.Source,
			item.EntityType,
			item.EntityKey,
			optionalString(item.MatchExternalID),
			string(item.Body),
			item.Hash,
			nullableTime(item.SourceUpdatedAt),
		)
	}
	return insert.ToSQL()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
