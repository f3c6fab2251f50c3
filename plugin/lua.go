package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/key"
	"github.com/spf13/viper"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/exp/slices"
)

// DefaultTimeout bounds an execution when the configuration does not.
const DefaultTimeout = 60 * time.Second

// Lua executes plugin scripts in a fresh gopher-lua state per run.
type Lua struct {
	// Timeout bounds one execution, including the script's own network calls. Zero disables it.
	Timeout time.Duration
}

// NewLua returns an executor using the runner.timeout setting.
func NewLua() *Lua {
	timeout := time.Duration(viper.GetInt(key.RunnerTimeout)) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Lua{Timeout: timeout}
}

func newState(ctx context.Context, onLog LogFunc) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	libs.Preload(L)
	registerTLSClient(L)
	registerConsole(L, onLog)
	return L
}

// RuntimeVersion reports the Lua language version scripts run against.
func RuntimeVersion() string {
	L := lua.NewState()
	defer L.Close()
	return L.GetGlobal("_VERSION").String()
}

// Modules lists the modules scripts can require, sorted.
func Modules() []string {
	L := newState(context.Background(), func(string) {})
	defer L.Close()

	var names []string
	if preload, ok := L.GetField(L.GetGlobal("package"), "preload").(*lua.LTable); ok {
		preload.ForEach(func(name, _ lua.LValue) {
			names = append(names, name.String())
		})
	}

	slices.Sort(names)
	return names
}

// Execute runs script's GetStreams with params. Nothing the script does leaks between runs.
func (l *Lua) Execute(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	if onLog == nil {
		onLog = func(string) {}
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	L := newState(ctx, onLog)
	defer L.Close()

	if err := load(L, script); err != nil {
		return nil, l.scriptError(ctx, err)
	}
	L.SetTop(0)

	fn := L.GetGlobal(constant.GetStreamsFn)
	if fn.Type() != lua.LTFunction {
		return nil, ErrNoEntryPoint
	}

	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, params.toTable(L))
	if err != nil {
		return nil, l.scriptError(ctx, err)
	}

	retval := L.Get(-1)
	L.Pop(1)

	streams, err := streamsFromValue(retval, onLog)
	if err != nil {
		return nil, err
	}

	return &Output{Streams: streams}, nil
}

func (l *Lua) scriptError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("script timed out after %s: %w", l.Timeout, context.DeadlineExceeded)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return errors.New(trimTraceback(err))
}

// trimTraceback keeps the error message of a Lua failure and drops the stack traceback.
func trimTraceback(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil && apiErr.Object != lua.LNil {
		return apiErr.Object.String()
	}

	msg := err.Error()
	if i := strings.Index(msg, "\nstack traceback:"); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

// Validate reports whether script compiles.
func Validate(script string) error {
	if _, err := compile(script); err != nil {
		return errors.New(trimTraceback(err))
	}
	return nil
}

// Check compiles script, runs its top level and verifies it defines GetStreams.
// Top-level log output goes to onLog.
func Check(ctx context.Context, script string, onLog LogFunc) error {
	if onLog == nil {
		onLog = func(string) {}
	}

	L := newState(ctx, onLog)
	defer L.Close()

	if err := load(L, script); err != nil {
		return errors.New(trimTraceback(err))
	}

	if L.GetGlobal(constant.GetStreamsFn).Type() != lua.LTFunction {
		return ErrNoEntryPoint
	}

	return nil
}
