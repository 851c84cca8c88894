package refdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/estimate"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/rooms"
)

const timestampLayout = "2006-01-02 15:04:05"

// Store reads reference tables from SQLite and keeps estimate snapshots.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore wraps db. A nil logger discards store warnings.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("refdata")}
}

// LoadPricing returns the price reference rows in insertion order.
func (s *Store) LoadPricing(ctx context.Context) ([]pricing.Reference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, unit, category_code, selector_code, group_description,
			unit_cost_weighted_median, unit_cost_p25, unit_cost_p75, sample_count
		FROM pricing_reference
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query pricing reference: %w", err)
	}
	defer rows.Close()

	refs := make([]pricing.Reference, 0)
	for rows.Next() {
		var r pricing.Reference
		if err := rows.Scan(&r.Description, &r.Unit, &r.Category, &r.Selector, &r.GroupDescription,
			&r.Median, &r.P25, &r.P75, &r.SampleCount); err != nil {
			return nil, fmt.Errorf("scan pricing reference: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing reference: %w", err)
	}
	return refs, nil
}

// LoadBaselines returns the room-type baseline table. ErrNotFound means the
// table is empty.
func (s *Store) LoadBaselines(ctx context.Context) (rooms.Baselines, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category,
			light_tags, medium_tags, heavy_tags, very_heavy_tags,
			light_boxes, medium_boxes, heavy_boxes, very_heavy_boxes,
			common_tags
		FROM room_baselines
	`)
	if err != nil {
		return nil, fmt.Errorf("query room baselines: %w", err)
	}
	defer rows.Close()

	out := make(rooms.Baselines)
	for rows.Next() {
		var (
			category   string
			tags       [4]sql.NullInt64
			boxes      [4]sql.NullInt64
			commonJSON string
		)
		if err := rows.Scan(&category,
			&tags[0], &tags[1], &tags[2], &tags[3],
			&boxes[0], &boxes[1], &boxes[2], &boxes[3],
			&commonJSON); err != nil {
			return nil, fmt.Errorf("scan room baseline: %w", err)
		}

		b := rooms.Baseline{TypicalTags: rooms.Counts{}, TypicalBoxes: rooms.Counts{}}
		for i, d := range rooms.Tiers {
			if tags[i].Valid {
				b.TypicalTags[d] = int(tags[i].Int64)
			}
			if boxes[i].Valid {
				b.TypicalBoxes[d] = int(boxes[i].Int64)
			}
		}
		if err := json.Unmarshal([]byte(commonJSON), &b.CommonTags); err != nil {
			return nil, fmt.Errorf("decode common tags for %s: %w", category, err)
		}
		out[rooms.Category(category)] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room baselines: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("room baselines: %w", apperrors.ErrNotFound)
	}
	return out, nil
}

// LoadFactors returns the stored correction-factor document.
func (s *Store) LoadFactors(ctx context.Context) (adjust.Table, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM correction_factors WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return adjust.Table{}, fmt.Errorf("correction factors: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return adjust.Table{}, fmt.Errorf("query correction factors: %w", err)
	}

	var t adjust.Table
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return adjust.Table{}, fmt.Errorf("decode correction factors: %w", err)
	}
	return t, nil
}

// Totals are the headline figures stored beside each snapshot for listing.
type Totals struct {
	Total      float64 `json:"total"`
	Subtotal   float64 `json:"subtotal_rcv"`
	Tax        float64 `json:"total_tax"`
	Tags       int     `json:"tag_count"`
	Boxes      int     `json:"box_count"`
	ScopeScore int     `json:"scope_score"`
}

func totalsOf(est estimate.Estimate) Totals {
	return Totals{
		Total:      est.Priced.TotalWithTax,
		Subtotal:   est.Priced.SubtotalRCV,
		Tax:        est.Priced.TotalTax,
		Tags:       est.TagCount,
		Boxes:      est.BoxCount,
		ScopeScore: est.Scope.Score,
	}
}

// Snapshot is a stored estimate exactly as it was generated.
type Snapshot struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"created_at"`
	Customer  string            `json:"customer"`
	Totals    Totals            `json:"totals"`
	Estimate  estimate.Estimate `json:"estimate"`
}

// Summary is one row of the estimate list.
type Summary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Customer  string `json:"customer"`
	Totals    Totals `json:"totals"`
}

// SaveEstimate stores est under a new id.
func (s *Store) SaveEstimate(ctx context.Context, est estimate.Estimate) (Snapshot, error) {
	snap := Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(timestampLayout),
		Customer:  est.Customer,
		Totals:    totalsOf(est),
		Estimate:  est,
	}

	totalsJSON, err := json.Marshal(snap.Totals)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode estimate totals: %w", err)
	}
	resultJSON, err := json.Marshal(est)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode estimate: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO estimates (id, created_at, customer, totals_json, result_json)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.CreatedAt, snap.Customer, string(totalsJSON), string(resultJSON)); err != nil {
		return Snapshot{}, fmt.Errorf("insert estimate: %w", err)
	}
	return snap, nil
}

// ListEstimates returns stored estimates newest first, filtered by customer
// when query is not empty.
func (s *Store) ListEstimates(ctx context.Context, query string) ([]Summary, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, customer, totals_json
		FROM estimates
		WHERE (? = '' OR customer LIKE ?)
		ORDER BY datetime(created_at) DESC, rowid DESC
	`, query, search)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var item Summary
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Customer, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		// A row with unreadable totals still lists, with zero figures.
		if err := json.Unmarshal([]byte(totalsJSON), &item.Totals); err != nil {
			s.logger.Warn("Stored estimate totals are unreadable",
				zap.String("id", item.ID),
				zap.Error(err))
			item.Totals = Totals{}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return out, nil
}

// GetEstimate returns the stored snapshot without recalculating anything.
func (s *Store) GetEstimate(ctx context.Context, id string) (Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Snapshot{}, fmt.Errorf("estimate id %q: %w", id, apperrors.ErrNotFound)
	}

	var snap Snapshot
	var totalsJSON, resultJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, customer, totals_json, result_json
		FROM estimates
		WHERE id = ?
	`, id).Scan(&snap.ID, &snap.CreatedAt, &snap.Customer, &totalsJSON, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("estimate %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query estimate: %w", err)
	}

	if err := json.Unmarshal([]byte(totalsJSON), &snap.Totals); err != nil {
		return Snapshot{}, fmt.Errorf("decode estimate totals: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &snap.Estimate); err != nil {
		return Snapshot{}, fmt.Errorf("decode estimate: %w", err)
	}
	return snap, nil
}
