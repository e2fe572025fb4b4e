// Package neighbor mirrors facet neighbor records into a hash store so the
// viewer can read them without parquet support.
package neighbor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/db"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	domnb "github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
)

// store is the consumer interface for neighbor hashes (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// batchSize bounds one pipelined HSET round-trip.
const batchSize = 500

// Repo implements usecase/scoring.Publisher and usecase/lookup.NeighborSource.
type Repo struct {
	store  store
	prefix string
}

// New creates a neighbor repository. prefix namespaces every key (e.g. "recommend:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Publish replaces the facet's records: all records are written, then keys
// of ids no longer present are removed.
func (r *Repo) Publish(ctx context.Context, f facet.Facet, records []domnb.Record) error {
	keep := make(map[string]struct{}, len(records))
	items := make([]db.HashSetItem, 0, batchSize)

	for _, rec := range records {
		key := r.recordKey(f, rec.InternalID)
		keep[key] = struct{}{}
		items = append(items, db.HashSetItem{Key: key, Fields: recordFields(rec)})
		if len(items) == batchSize {
			if err := r.store.HSetMulti(ctx, items); err != nil {
				return fmt.Errorf("publish %s records: %w", f, err)
			}
			items = items[:0]
		}
	}
	if len(items) > 0 {
		if err := r.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("publish %s records: %w", f, err)
		}
	}

	existing, err := r.store.Scan(ctx, r.facetPrefix(f)+"*")
	if err != nil {
		return fmt.Errorf("scan %s records: %w", f, err)
	}
	var stale []string
	for _, key := range existing {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := r.store.Del(ctx, stale...); err != nil {
		return fmt.Errorf("remove stale %s records: %w", f, err)
	}
	return nil
}

// Get returns the published record for one document.
func (r *Repo) Get(ctx context.Context, f facet.Facet, id int32) (domnb.Record, error) {
	key := r.recordKey(f, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domnb.Record{}, fmt.Errorf("%s record %d: %w", f, id, domain.ErrNotFound)
		}
		return domnb.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseRecord(id, m)
}

func (r *Repo) facetPrefix(f facet.Facet) string {
	return r.prefix + "neighbors:" + f.String() + ":"
}

func (r *Repo) recordKey(f facet.Facet, id int32) string {
	return r.facetPrefix(f) + strconv.FormatInt(int64(id), 10)
}

func fieldName(rank int) string {
	return "closest_" + strconv.Itoa(rank)
}

func recordFields(rec domnb.Record) map[string]string {
	m := make(map[string]string, domnb.K)
	for i, id := range rec.Closest {
		m[fieldName(i)] = strconv.FormatInt(int64(id), 10)
	}
	return m
}

func parseRecord(id int32, m map[string]string) (domnb.Record, error) {
	var closest [domnb.K]int32
	var bad []string
	for i := range closest {
		raw, ok := m[fieldName(i)]
		if !ok {
			bad = append(bad, fieldName(i))
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			bad = append(bad, fieldName(i))
			continue
		}
		closest[i] = int32(v)
	}
	if len(bad) > 0 {
		return domnb.Record{}, fmt.Errorf("record %d has invalid fields %s", id, strings.Join(bad, ", "))
	}
	return domnb.New(id, closest), nil
}
