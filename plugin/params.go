package plugin

import (
	"fmt"
	"strings"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/key"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	lua "github.com/yuin/gopher-lua"
)

// Params identify the content a script is asked to resolve.
type Params struct {
	ContentID string         `json:"contentId"`
	MediaType string         `json:"mediaType"`
	Season    mo.Option[int] `json:"season"`
	Episode   mo.Option[int] `json:"episode"`
}

// Movie returns params for a movie.
func Movie(contentID string) Params {
	return Params{
		ContentID: contentID,
		MediaType: constant.MediaMovie,
		Season:    mo.None[int](),
		Episode:   mo.None[int](),
	}
}

// Episode returns params for one episode of a series.
func Episode(contentID string, season, episode int) Params {
	return Params{
		ContentID: contentID,
		MediaType: constant.MediaTV,
		Season:    mo.Some(season),
		Episode:   mo.Some(episode),
	}
}

// DefaultParams builds params from the params.* configuration keys.
func DefaultParams() Params {
	id := viper.GetString(key.ParamsContentID)
	if strings.EqualFold(viper.GetString(key.ParamsMediaType), constant.MediaTV) {
		return Episode(id, viper.GetInt(key.ParamsSeason), viper.GetInt(key.ParamsEpisode))
	}
	return Movie(id)
}

// Validate checks that params describe something a script can look up.
func (p Params) Validate() error {
	if strings.TrimSpace(p.ContentID) == "" {
		return fmt.Errorf("content id is required")
	}

	switch p.MediaType {
	case constant.MediaMovie:
		return nil
	case constant.MediaTV:
		season, ok := p.Season.Get()
		if !ok || season < 1 {
			return fmt.Errorf("tv params need a season of at least 1")
		}
		episode, ok := p.Episode.Get()
		if !ok || episode < 1 {
			return fmt.Errorf("tv params need an episode of at least 1")
		}
		return nil
	default:
		return fmt.Errorf("unknown media type %q, expected %s or %s", p.MediaType, constant.MediaMovie, constant.MediaTV)
	}
}

// String renders params compactly, e.g. "tv tt0903747 S01E02".
func (p Params) String() string {
	if p.MediaType != constant.MediaTV {
		return p.MediaType + " " + p.ContentID
	}
	return fmt.Sprintf("%s %s S%02dE%02d", p.MediaType, p.ContentID, p.Season.OrEmpty(), p.Episode.OrEmpty())
}

func (p Params) toTable(L *lua.LState) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("id", lua.LString(p.ContentID))
	table.RawSetString("type", lua.LString(p.MediaType))

	if p.MediaType == constant.MediaTV {
		if season, ok := p.Season.Get(); ok {
			table.RawSetString("season", lua.LNumber(season))
		}
		if episode, ok := p.Episode.Get(); ok {
			table.RawSetString("episode", lua.LNumber(episode))
		}
	}

	return table
}
