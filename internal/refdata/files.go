// Package refdata loads the read-only reference tables the estimator runs on
// and persists estimate snapshots.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/rooms"
)

// decodeFile reads a YAML or JSON document into out. JSON is valid YAML, so
// one decoder serves both.
func decodeFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reference file %s: %w", path, apperrors.ErrNotFound)
		}
		return fmt.Errorf("open reference file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("reference file %s is empty: %w", path, apperrors.ErrInvalidInput)
		}
		return fmt.Errorf("decode reference file %s: %w", path, err)
	}
	return nil
}

// LoadBaselinesFile reads a room-type baseline table keyed by category.
func LoadBaselinesFile(path string) (rooms.Baselines, error) {
	var b rooms.Baselines
	if err := decodeFile(path, &b); err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("baseline file %s has no categories: %w", path, apperrors.ErrInvalidInput)
	}
	return b, nil
}

// LoadFactorsFile reads a correction-factor document.
func LoadFactorsFile(path string) (adjust.Table, error) {
	var t adjust.Table
	if err := decodeFile(path, &t); err != nil {
		return adjust.Table{}, err
	}
	return t, nil
}

// LoadPricingFile reads price reference rows from a CSV export or a YAML/JSON
// list, chosen by file extension.
func LoadPricingFile(path string) ([]pricing.Reference, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("pricing file %s: %w", path, apperrors.ErrNotFound)
			}
			return nil, fmt.Errorf("open pricing file %s: %w", path, err)
		}
		defer f.Close()
		return ReadPricingCSV(f)
	}

	var refs []pricing.Reference
	if err := decodeFile(path, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// ReadPricingCSV parses a pricing reference export. Columns are located by
// header name; desc and unit_cost_weighted_median are required.
func ReadPricingCSV(r io.Reader) ([]pricing.Reference, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read pricing header: %w", apperrors.ErrInvalidInput)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"desc", "unit_cost_weighted_median"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("pricing header missing %q: %w", required, apperrors.ErrInvalidInput)
		}
	}

	var refs []pricing.Reference
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read pricing line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		number := func(name string) (float64, error) {
			s := field(name)
			if s == "" {
				return 0, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("pricing line %d column %s %q: %w", line, name, s, apperrors.ErrInvalidInput)
			}
			return v, nil
		}

		ref := pricing.Reference{
			Description:      field("desc"),
			Unit:             field("unit"),
			Category:         field("cat"),
			Selector:         field("sel"),
			GroupDescription: field("group_desc"),
		}
		if ref.Description == "" {
			continue
		}
		if ref.Median, err = number("unit_cost_weighted_median"); err != nil {
			return nil, err
		}
		if ref.P25, err = number("unit_cost_p25"); err != nil {
			return nil, err
		}
		if ref.P75, err = number("unit_cost_p75"); err != nil {
			return nil, err
		}
		count, err := number("sample_count")
		if err != nil {
			return nil, err
		}
		ref.SampleCount = int(count)
		refs = append(refs, ref)
	}
	return refs, nil
}
