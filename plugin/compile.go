package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

const chunkName = "plugin"

// bytecodeCache maps the SHA-256 of a script's source to its compiled prototype.
// Keying on content means an edited script is always recompiled.
var bytecodeCache sync.Map

func sourceKey(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// compile returns the bytecode prototype of script, compiling it at most once.
func compile(script string) (*lua.FunctionProto, error) {
	key := sourceKey(script)
	if cached, ok := bytecodeCache.Load(key); ok {
		return cached.(*lua.FunctionProto), nil
	}

	chunk, err := parse.Parse(strings.NewReader(script), chunkName)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, chunkName)
	if err != nil {
		return nil, err
	}

	actual, _ := bytecodeCache.LoadOrStore(key, proto)
	return actual.(*lua.FunctionProto), nil
}

// load compiles script and runs its top level in L.
func load(L *lua.LState, script string) error {
	proto, err := compile(script)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
