package coverage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/txsync/config"
	"github.com/minios-linux/txsync/locale"
	"github.com/minios-linux/txsync/transifex"
)

func stat(translated, reviewed float64) map[string]transifex.Stat {
	return map[string]transifex.Stat{
		transifex.StatTranslated: {Percentage: translated},
		transifex.StatReviewed:   {Percentage: reviewed},
	}
}

func TestAggregateMeanAcrossResources(t *testing.T) {
	stats := []transifex.ResourceStats{
		{"fr": stat(0.5, 0)},
		{"fr": stat(0.5, 0)},
	}

	idx := Aggregate(stats, nil, "en")
	assert.Equal(t, Entry{Pct: 0.5}, idx["fr"])
}

func TestAggregateAlwaysIncludesSourceLocale(t *testing.T) {
	cases := map[string][]transifex.ResourceStats{
		"no resources":        nil,
		"source missing":      {{"fr": stat(0.2, 0)}},
		"source incomplete":   {{"en": stat(0.3, 0.1)}},
		"source among others": {{"en": stat(0, 0), "de": stat(1, 1)}, {"de": stat(1, 1)}},
	}

	for name, stats := range cases {
		t.Run(name, func(t *testing.T) {
			idx := Aggregate(stats, config.ReviewAll(), "en")
			assert.Equal(t, Entry{Pct: 1}, idx["en"])
		})
	}
}

func TestAggregateTruncatesNeverRoundsUp(t *testing.T) {
	stats := []transifex.ResourceStats{
		{"de": stat(0.996, 0), "it": stat(0.58, 0), "nl": stat(1.0/3, 0)},
	}

	idx := Aggregate(stats, nil, "en")
	assert.Equal(t, 0.99, idx["de"].Pct)
	assert.Equal(t, 0.58, idx["it"].Pct)
	assert.Equal(t, 0.33, idx["nl"].Pct)
}

func TestAggregateCompleteAcrossThreeResources(t *testing.T) {
	stats := []transifex.ResourceStats{
		{"ja": stat(1, 0)},
		{"ja": stat(1, 0)},
		{"ja": stat(1, 0)},
	}

	idx := Aggregate(stats, nil, "en")
	assert.Equal(t, 1.0, idx["ja"].Pct)
}

func TestAggregateLocaleMissingFromOneResource(t *testing.T) {
	stats := []transifex.ResourceStats{
		{"fr": stat(0.8, 0), "vi": stat(1, 0)},
		{"fr": stat(0.6, 0)},
	}

	idx := Aggregate(stats, nil, "en")
	assert.Equal(t, 0.7, idx["fr"].Pct)
	assert.Equal(t, 0.5, idx["vi"].Pct)
}

func TestAggregateReviewedOnly(t *testing.T) {
	stats := []transifex.ResourceStats{
		{"fr": stat(0.9, 0.4), "pt_BR": stat(0.8, 0.2)},
	}

	t.Run("all locales", func(t *testing.T) {
		idx := Aggregate(stats, config.ReviewAll(), "en")
		assert.Equal(t, 0.4, idx["fr"].Pct)
		assert.Equal(t, 0.2, idx["pt-BR"].Pct)
	})

	t.Run("listed locale only", func(t *testing.T) {
		idx := Aggregate(stats, config.ReviewLocales("pt-BR"), "en")
		assert.Equal(t, 0.9, idx["fr"].Pct)
		assert.Equal(t, 0.2, idx["pt-BR"].Pct)
	})

	t.Run("stat type selection", func(t *testing.T) {
		assert.Equal(t, transifex.StatReviewed, StatType(config.ReviewAll(), "de"))
		assert.Equal(t, transifex.StatTranslated, StatType(nil, "de"))
		assert.Equal(t, transifex.StatTranslated, StatType(config.ReviewLocales("vi"), "de"))
	})
}

func TestAggregateConvertsCodes(t *testing.T) {
	idx := Aggregate([]transifex.ResourceStats{{"zh_Hant_TW": stat(0.5, 0)}}, nil, "en")
	_, ok := idx["zh-Hant-TW"]
	assert.True(t, ok)
	_, ok = idx["zh_Hant_TW"]
	assert.False(t, ok)
}

func TestWriteSortedKeysAndRead(t *testing.T) {
	dir := t.TempDir()
	idx := Aggregate([]transifex.ResourceStats{
		{"vi": stat(0.25, 0), "de": stat(0.5, 0), "pt_BR": stat(1, 0)},
	}, nil, "en")

	assert.Equal(t, []locale.Code{"de", "en", "pt-BR", "vi"}, idx.Keys())

	changed, err := Write(dir, idx)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"de":{"pct":0.5},"en":{"pct":1},"pt-BR":{"pct":1},"vi":{"pct":0.25}}`, string(data))
	assert.Less(t, strings.Index(string(data), `"de"`), strings.Index(string(data), `"vi"`))

	back, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, idx, back)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
