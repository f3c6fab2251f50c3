// Package recent remembers which sources were tested and suggests them again, e.g. for
// shell completion.
package recent

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type record struct {
	Rank     int       `json:"rank"`
	Source   string    `json:"source"`
	LastUsed time.Time `json:"last_used"`
}

var (
	cacher     *gache.Cache[map[string]*record]
	cacherOnce sync.Once
)

func store() *gache.Cache[map[string]*record] {
	cacherOnce.Do(func() {
		cacher = gache.New[map[string]*record](
			&gache.Options{
				Path:       where.Recent(),
				FileSystem: &filesystem.GacheFs{},
			},
		)
	})
	return cacher
}

func load() map[string]*record {
	cached, expired, err := store().Get()
	if expired || err != nil || cached == nil {
		return make(map[string]*record)
	}
	return cached
}

// Remember records that source was tested, ranking it higher each time.
func Remember(source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}

	cached := load()
	if r, ok := cached[source]; ok {
		r.Rank++
		r.LastUsed = time.Now()
	} else {
		cached[source] = &record{Rank: 1, Source: source, LastUsed: time.Now()}
	}

	return store().Set(cached)
}

// Forget removes source from the list.
func Forget(source string) error {
	cached := load()
	delete(cached, strings.TrimSpace(source))
	return store().Set(cached)
}

// Clear removes every remembered source.
func Clear() error {
	return store().Set(make(map[string]*record))
}

// Suggest returns remembered sources fuzzily matching partial, most used first and then
// most recent. It returns nothing when suggestions are disabled.
func Suggest(partial string) []string {
	if !viper.GetBool(key.SearchShowSuggestions) {
		return []string{}
	}

	partial = strings.TrimSpace(partial)
	records := lo.Filter(lo.Values(load()), func(r *record, _ int) bool {
		return fuzzy.MatchFold(partial, r.Source)
	})

	slices.SortFunc(records, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return b.LastUsed.Compare(a.LastUsed)
	})

	return lo.Map(records, func(r *record, _ int) string {
		return r.Source
	})
}
