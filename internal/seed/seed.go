package seed

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/rooms"
)

// Config contains the reference data written by the startup seed. Nil fields
// use the built-in defaults, except Factors, which is only written when set.
//
// Existing rows are left alone unless Refresh is set, in which case they are
// overwritten with the configured values.
type Config struct {
	Pricing   []pricing.Reference
	Baselines rooms.Baselines
	Factors   *adjust.Table
	Refresh   bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("seed")

	if cfg.Pricing == nil {
		cfg.Pricing = pricing.DefaultReferences()
	}
	if cfg.Baselines == nil {
		cfg.Baselines = rooms.DefaultBaselines()
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensurePricing(tx, cfg.Pricing, cfg.Refresh, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureBaselines(tx, cfg.Baselines, cfg.Refresh, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureFactors(tx, cfg.Factors, cfg.Refresh, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	logger.Info("Reference data seeded", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))
	return stats, nil
}

func exists(tx *sql.Tx, query string, args ...any) (bool, error) {
	var found bool
	if err := tx.QueryRow(query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func ensurePricing(tx *sql.Tx, refs []pricing.Reference, refresh bool, stats *Stats) error {
	for _, r := range refs {
		found, err := exists(tx, `SELECT EXISTS(SELECT 1 FROM pricing_reference WHERE description = ? LIMIT 1)`, r.Description)
		if err != nil {
			return fmt.Errorf("check pricing reference existence: %w", err)
		}

		switch {
		case found && !refresh:
			continue
		case found:
			if _, err := tx.Exec(`
				UPDATE pricing_reference
				SET
					unit = ?,
					category_code = ?,
					selector_code = ?,
					group_description = ?,
					unit_cost_weighted_median = ?,
					unit_cost_p25 = ?,
					unit_cost_p75 = ?,
					sample_count = ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE description = ?
			`, r.Unit, r.Category, r.Selector, r.GroupDescription, r.Median, r.P25, r.P75, r.SampleCount, r.Description); err != nil {
				return fmt.Errorf("update pricing reference %q: %w", r.Description, err)
			}
			stats.Updates++
		default:
			if _, err := tx.Exec(`
				INSERT INTO pricing_reference (
					description,
					unit,
					category_code,
					selector_code,
					group_description,
					unit_cost_weighted_median,
					unit_cost_p25,
					unit_cost_p75,
					sample_count
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.Description, r.Unit, r.Category, r.Selector, r.GroupDescription, r.Median, r.P25, r.P75, r.SampleCount); err != nil {
				return fmt.Errorf("insert pricing reference %q: %w", r.Description, err)
			}
			stats.Inserts++
		}
	}
	return nil
}

// baselineArgs flattens a baseline row into column order. Missing tiers are NULL.
func baselineArgs(b rooms.Baseline) ([]any, error) {
	var args []any
	for _, counts := range []rooms.Counts{b.TypicalTags, b.TypicalBoxes} {
		for _, d := range rooms.Tiers {
			if n, ok := counts[d]; ok {
				args = append(args, n)
			} else {
				args = append(args, nil)
			}
		}
	}
	common := b.CommonTags
	if common == nil {
		common = []string{}
	}
	commonJSON, err := json.Marshal(common)
	if err != nil {
		return nil, err
	}
	return append(args, string(commonJSON)), nil
}

func ensureBaselines(tx *sql.Tx, baselines rooms.Baselines, refresh bool, stats *Stats) error {
	for cat, b := range baselines {
		found, err := exists(tx, `SELECT EXISTS(SELECT 1 FROM room_baselines WHERE category = ? LIMIT 1)`, string(cat))
		if err != nil {
			return fmt.Errorf("check room baseline existence: %w", err)
		}
		if found && !refresh {
			continue
		}

		args, err := baselineArgs(b)
		if err != nil {
			return fmt.Errorf("encode room baseline %s: %w", cat, err)
		}

		if found {
			if _, err := tx.Exec(`
				UPDATE room_baselines
				SET
					light_tags = ?, medium_tags = ?, heavy_tags = ?, very_heavy_tags = ?,
					light_boxes = ?, medium_boxes = ?, heavy_boxes = ?, very_heavy_boxes = ?,
					common_tags = ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE category = ?
			`, append(args, string(cat))...); err != nil {
				return fmt.Errorf("update room baseline %s: %w", cat, err)
			}
			stats.Updates++
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO room_baselines (
				light_tags, medium_tags, heavy_tags, very_heavy_tags,
				light_boxes, medium_boxes, heavy_boxes, very_heavy_boxes,
				common_tags,
				category
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append(args, string(cat))...); err != nil {
			return fmt.Errorf("insert room baseline %s: %w", cat, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureFactors(tx *sql.Tx, table *adjust.Table, refresh bool, stats *Stats) error {
	if table == nil {
		return nil
	}
	found, err := exists(tx, `SELECT EXISTS(SELECT 1 FROM correction_factors WHERE id = 1)`)
	if err != nil {
		return fmt.Errorf("check correction factors existence: %w", err)
	}
	if found && !refresh {
		return nil
	}

	doc, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode correction factors: %w", err)
	}

	if found {
		if _, err := tx.Exec(`
			UPDATE correction_factors SET document = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
		`, string(doc)); err != nil {
			return fmt.Errorf("update correction factors: %w", err)
		}
		stats.Updates++
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO correction_factors (id, document) VALUES (1, ?)`, string(doc)); err != nil {
		return fmt.Errorf("insert correction factors: %w", err)
	}
	stats.Inserts++
	return nil
}
