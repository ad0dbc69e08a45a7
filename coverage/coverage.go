// Package coverage computes the coverage index: how complete each locale's
// translation is, averaged over all synced resources.
package coverage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/minios-linux/txsync/locale"
	"github.com/minios-linux/txsync/localefile"
	"github.com/minios-linux/txsync/transifex"
)

// Entry is the coverage of one locale, Pct is a fraction in [0, 1].
type Entry struct {
	Pct float64 `json:"pct"`
}

// Index maps locale codes to their coverage. It encodes to JSON with keys
// in ascending order.
type Index map[locale.Code]Entry

// Keys returns the locale codes in ascending order.
func (idx Index) Keys() []locale.Code {
	keys := make([]locale.Code, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ReviewPredicate decides per remote locale code whether only reviewed
// strings count.
type ReviewPredicate interface {
	Applies(code string) bool
}

// StatType returns the stat type counted for a remote locale code.
func StatType(review ReviewPredicate, code string) string {
	if review != nil && review.Applies(code) {
		return transifex.StatReviewed
	}
	return transifex.StatTranslated
}

// Aggregate averages the per-resource stats into one index. Every resource
// weighs the same regardless of its size. A locale missing from a resource,
// or missing the selected stat type, contributes 0 for that resource.
// sourceLocale is always complete.
func Aggregate(stats []transifex.ResourceStats, review ReviewPredicate, sourceLocale locale.Code) Index {
	sums := make(map[locale.Code]float64)

	for _, resource := range stats {
		for code, byType := range resource {
			part := byType[StatType(review, code)].Percentage / float64(len(stats))
			sums[locale.FromRemote(code)] += part
		}
	}

	idx := make(Index, len(sums)+1)
	for code, sum := range sums {
		idx[code] = Entry{Pct: Floor2(sum)}
	}
	idx[sourceLocale] = Entry{Pct: 1}
	return idx
}

// floorEpsilon absorbs binary representation error (0.58*100 is
// 57.99999999999999) without letting a real 99.6% reach 1.
const floorEpsilon = 1e-9

// Floor2 truncates x to two decimal places. It never rounds up, so 1 is
// only reported for complete coverage.
func Floor2(x float64) float64 {
	return math.Floor(x*100+floorEpsilon) / 100
}

// Write replaces dir/index.json with idx.
func Write(dir string, idx Index) (changed bool, err error) {
	return localefile.WriteJSON(filepath.Join(dir, localefile.IndexName), idx)
}

// Read loads dir/index.json.
func Read(dir string) (Index, error) {
	path := filepath.Join(dir, localefile.IndexName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return idx, nil
}
