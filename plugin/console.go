package plugin

import (
	"encoding/json"
	"strings"

	"github.com/plugtest/plugtest/constant"
	lua "github.com/yuin/gopher-lua"
)

// Prefixes marking the severity of console lines other than log and info.
const (
	PrefixWarn  = "[WARN] "
	PrefixError = "[ERROR] "
	PrefixDebug = "[DEBUG] "
)

// registerConsole installs a console table and replaces print so every line a script
// writes reaches onLog instead of stdout.
func registerConsole(L *lua.LState, onLog LogFunc) {
	mod := L.NewTable()
	L.SetField(mod, "log", L.NewFunction(consoleWriter(onLog, "")))
	L.SetField(mod, "info", L.NewFunction(consoleWriter(onLog, "")))
	L.SetField(mod, "warn", L.NewFunction(consoleWriter(onLog, PrefixWarn)))
	L.SetField(mod, "error", L.NewFunction(consoleWriter(onLog, PrefixError)))
	L.SetField(mod, "debug", L.NewFunction(consoleWriter(onLog, PrefixDebug)))

	L.SetGlobal(constant.ConsoleLib, mod)
	L.SetGlobal("print", L.NewFunction(consoleWriter(onLog, "")))
}

func consoleWriter(onLog LogFunc, prefix string) lua.LGFunction {
	return func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, formatValue(L, L.Get(i)))
		}

		onLog(prefix + strings.Join(parts, " "))
		return 0
	}
}

// formatValue renders tables as JSON and everything else the way tostring would.
func formatValue(L *lua.LState, v lua.LValue) string {
	if table, ok := v.(*lua.LTable); ok && L.GetMetaField(table, "__tostring") == lua.LNil {
		if encoded, err := json.Marshal(toGo(table, 0)); err == nil {
			return string(encoded)
		}
	}

	return L.ToStringMeta(v).String()
}

const maxFormatDepth = 8

func toGo(v lua.LValue, depth int) any {
	switch value := v.(type) {
	case lua.LBool:
		return bool(value)
	case lua.LNumber:
		return float64(value)
	case lua.LString:
		return string(value)
	case *lua.LTable:
		if depth >= maxFormatDepth {
			return "{...}"
		}

		if n := value.MaxN(); n > 0 {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, toGo(value.RawGetInt(i), depth+1))
			}
			return list
		}

		object := make(map[string]any)
		value.ForEach(func(k, item lua.LValue) {
			object[k.String()] = toGo(item, depth+1)
		})
		return object
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}
