// Package tableops is the "vectorized/parallel aggregation engine" that
// the table built-ins describe and merge_tables delegate to
// instead of walking a Table's rows by hand (spec §3/§9 supplement).
//
// Grounded on sentra-language-sentra/internal/dataframe/dataframe.go's
// GroupedDataFrame.Aggregate/Sum/Mean/Describe and Join (a hash-indexed
// equi-join over one key column) — adapted from DataFrame's
// map[string][]interface{} column store onto value.Table's
// map[string][]value.Value store, and from Describe's serial per-column
// loop onto a golang.org/x/sync/errgroup fan-out, one goroutine per
// numeric column, since columns are independent and the teacher's
// internal/concurrency package establishes fanning CPU-bound per-unit
// work out over goroutines as this codebase's idiom for that shape of
// problem. join/merge uses relation.Global() (internal/relation) to find
// the join column when the caller doesn't name one explicitly.
package tableops

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/relation"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// ColumnStats is the summary statistics for one numeric column, the table
// analogue of dataframe.go's Describe() per-column float64 map.
type ColumnStats struct {
	Count  int
	Sum    float64
	Mean   float64
	Min    float64
	Max    float64
	Median float64
	StdDev float64
}

type cacheKey struct {
	table  *value.Table
	column string
}

type cacheEntry struct {
	rows  int // NumRows() at computation time; a mismatch invalidates the entry
	stats ColumnStats
}

// Cache memoizes per-column statistics so repeated `describe` (or
// ColumnStats) calls against the same (unchanged) table don't re-scan every row. Entries
// are invalidated on row-count drift rather than a version counter, since
// Table has no mutation-tracking field to hook — adequate for the common
// case of appending to or replacing a table wholesale, grounded on
// internal/value/memo.go's cache-by-argument-identity approach generalized
// to cache-by-(table pointer, column, row count).
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]cacheEntry)}
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default returns the process-wide cache every Interpreter shares unless
// it's given its own, lazily constructed on first use.
func Default() *Cache {
	defaultOnce.Do(func() { defaultCache = NewCache() })
	return defaultCache
}

// ColumnStats returns the summary statistics for column, computing and
// caching them if necessary. ok is false if column isn't numeric or
// doesn't exist.
func (c *Cache) ColumnStats(tbl *value.Table, column string) (ColumnStats, bool) {
	key := cacheKey{table: tbl, column: column}
	rows := tbl.NumRows()

	c.mu.Lock()
	if e, found := c.entries[key]; found && e.rows == rows {
		c.mu.Unlock()
		return e.stats, true
	}
	c.mu.Unlock()

	values, found := tbl.Columns[column]
	if !found {
		return ColumnStats{}, false
	}
	stats, ok := computeStats(values)
	if !ok {
		return ColumnStats{}, false
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{rows: rows, stats: stats}
	c.mu.Unlock()
	return stats, true
}

// Describe computes ColumnStats for every numeric column of tbl
// concurrently, one goroutine per column via errgroup, and returns the
// combined map. The table itself stays single-threaded for everything
// else — this is the one place DataCode fans work across goroutines.
func (c *Cache) Describe(ctx context.Context, tbl *value.Table) (map[string]ColumnStats, error) {
	results := make(map[string]ColumnStats, len(tbl.ColumnNames))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, col := range tbl.ColumnNames {
		col := col
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			stats, ok := c.ColumnStats(tbl, col)
			if !ok {
				return nil // non-numeric column, silently excluded like dataframe.go's Describe
			}
			mu.Lock()
			results[col] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Invalidate drops every cached entry for tbl, needed after a table
// operation (sort, filter, column drop) replaces its row data in place
// without changing its row count.
func (c *Cache) Invalidate(tbl *value.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.table == tbl {
			delete(c.entries, k)
		}
	}
}

func computeStats(values []value.Value) (ColumnStats, bool) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Kind != value.KindNumber {
			continue
		}
		nums = append(nums, v.Num)
	}
	if len(nums) == 0 {
		return ColumnStats{}, false
	}

	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	var sum float64
	min, max := sorted[0], sorted[len(sorted)-1]
	for _, n := range nums {
		sum += n
	}
	mean := sum / float64(len(nums))

	var variance float64
	for _, n := range nums {
		d := n - mean
		variance += d * d
	}
	variance /= float64(len(nums))

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return ColumnStats{
		Count:  len(nums),
		Sum:    sum,
		Mean:   mean,
		Min:    min,
		Max:    max,
		Median: median,
		StdDev: math.Sqrt(variance),
	}, true
}

// Merge performs a hash-indexed inner join of left and right on one key
// column each, mirroring dataframe.go's Join: build an index of right's
// join-key values to row numbers, then for every left row append one
// output row per matching right row, combining all of left's columns with
// all of right's columns except its own join key. If leftCol/rightCol are
// both empty, the join column is looked up in relation.Global() instead of
// being required on every call (spec §7/§9 supplement's `relate`-then-
// `merge_tables` pairing).
func Merge(left, right *value.Table, leftCol, rightCol string) (*value.Table, error) {
	if leftCol == "" && rightCol == "" {
		col1, col2, ok := relation.Global().FindJoinColumn(left, right)
		if !ok {
			return nil, fmt.Errorf("no join column given and no relation declared between these tables")
		}
		leftCol, rightCol = col1, col2
	}
	if left.ColumnIndex(leftCol) < 0 {
		return nil, fmt.Errorf("join column %q not found in left table", leftCol)
	}
	if right.ColumnIndex(rightCol) < 0 {
		return nil, fmt.Errorf("join column %q not found in right table", rightCol)
	}

	rightIndex := make(map[string][]int, right.NumRows())
	for i, v := range right.Columns[rightCol] {
		k := v.String()
		rightIndex[k] = append(rightIndex[k], i)
	}

	outCols := append([]string(nil), left.ColumnNames...)
	for _, c := range right.ColumnNames {
		if c != rightCol {
			outCols = append(outCols, c)
		}
	}
	out := value.NewTable(outCols)

	for _, leftRow := range left.Rows {
		key := leftRow[left.ColumnIndex(leftCol)].String()
		matches, ok := rightIndex[key]
		if !ok {
			continue
		}
		for _, j := range matches {
			row := make([]value.Value, 0, len(outCols))
			row = append(row, leftRow...)
			for _, c := range right.ColumnNames {
				if c != rightCol {
					row = append(row, right.Rows[j][right.ColumnIndex(c)])
				}
			}
			if err := out.AppendRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
