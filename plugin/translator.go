package plugin

import (
	"fmt"

	"github.com/plugtest/plugtest/stream"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString, lua.LTNumber:
		return val.String()
	default:
		return ""
	}
}

func streamFromTable(table *lua.LTable) (*stream.Stream, error) {
	url := getString(table, "url")
	if url == "" {
		return nil, fmt.Errorf("stream must have url")
	}

	s := &stream.Stream{
		URL:     url,
		Name:    getString(table, "name"),
		Title:   getString(table, "title"),
		Quality: getString(table, "quality"),
		Headers: make(map[string]string),
	}

	if headersTbl, ok := table.RawGetString("headers").(*lua.LTable); ok {
		headersTbl.ForEach(func(k, v lua.LValue) {
			s.Headers[k.String()] = v.String()
		})
	}

	return s, nil
}

// streamsFromValue converts what GetStreams returned into streams. Both a plain array of
// streams and a {streams = {...}} table are accepted. Invalid entries are reported through
// onLog and skipped; if no entry is valid the first problem is returned.
func streamsFromValue(val lua.LValue, onLog LogFunc) ([]*stream.Stream, error) {
	table, ok := val.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("GetStreams returned %s, expected table", val.Type())
	}

	if nested, ok := table.RawGetString("streams").(*lua.LTable); ok {
		table = nested
	}

	var (
		streams = make([]*stream.Stream, 0, table.Len())
		errs    []error
	)

	for i := 1; i <= table.Len(); i++ {
		entry, ok := table.RawGetInt(i).(*lua.LTable)
		if !ok {
			err := fmt.Errorf("stream #%d is %s, expected table", i, table.RawGetInt(i).Type())
			onLog(PrefixWarn + err.Error())
			errs = append(errs, err)
			continue
		}

		s, err := streamFromTable(entry)
		if err != nil {
			err = fmt.Errorf("stream #%d: %w", i, err)
			onLog(PrefixWarn + err.Error())
			errs = append(errs, err)
			continue
		}

		streams = append(streams, s)
	}

	if len(streams) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}

	return streams, nil
}
