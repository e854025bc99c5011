package source

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"module-loader/core/module"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	exportsFuncName    = "Exports"
	initializeFuncName = "Initialize"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Evaluate interprets a Go module source and returns it as a module named name.
func Evaluate(name string, code []byte) (*module.Static, error) {
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("module %s is empty", name)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("module %s: load stdlib symbols: %w", name, err)
	}
	if _, err := i.Eval(string(code)); err != nil {
		return nil, fmt.Errorf("module %s: interpret: %w", name, err)
	}
	fnValue, err := i.Eval(exportsFuncName)
	if err != nil {
		return nil, fmt.Errorf("module %s must define %s() map[string]any: %w", name, exportsFuncName, err)
	}
	raw, err := invokeExportsFunc(fnValue)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	exports := make(map[string]module.Export, len(raw))
	for key, value := range raw {
		fn, err := adaptExport(value)
		if err != nil {
			return nil, fmt.Errorf("module %s: export %s: %w", name, key, err)
		}
		exports[key] = fn
	}
	m := module.New(name, exports)

	if initValue, err := i.Eval(initializeFuncName); err == nil {
		initFn, err := adaptInitializer(initValue)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
		m.WithInitializer(initFn)
	}
	return m, nil
}

func invokeExportsFunc(value reflect.Value) (map[string]any, error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", exportsFuncName)
	}
	if value.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", exportsFuncName)
	}
	results := value.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return (map[string]any[, error])", exportsFuncName)
	}
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", exportsFuncName)
	}
	if m, ok := results[0].Interface().(map[string]any); ok {
		return m, nil
	}
	mv := results[0]
	if mv.Kind() != reflect.Map || mv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%s must return map[string]any", exportsFuncName)
	}
	out := make(map[string]any, mv.Len())
	iter := mv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// adaptExport turns an interpreted function value into a module.Export.
func adaptExport(v any) (module.Export, error) {
	switch f := v.(type) {
	case module.Export:
		return f, nil
	case func(context.Context, ...any) (any, error):
		return f, nil
	case func(...any) (any, error):
		return func(_ context.Context, args ...any) (any, error) { return f(args...) }, nil
	case func(...any) any:
		return func(_ context.Context, args ...any) (any, error) { return f(args...), nil }, nil
	case func() (any, error):
		return func(context.Context, ...any) (any, error) { return f() }, nil
	case func() any:
		return func(context.Context, ...any) (any, error) { return f(), nil }, nil
	case func():
		return func(context.Context, ...any) (any, error) { f(); return nil, nil }, nil
	}

	fv := reflect.ValueOf(v)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("value of type %T is not a function", v)
	}
	return func(ctx context.Context, args ...any) (any, error) {
		in, err := convertArgs(ctx, fv.Type(), args)
		if err != nil {
			return nil, err
		}
		return splitResults(fv.Call(in))
	}, nil
}

func adaptInitializer(value reflect.Value) (func(context.Context) (bool, error), error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", initializeFuncName)
	}
	switch f := value.Interface().(type) {
	case func() bool:
		return func(context.Context) (bool, error) { return f(), nil }, nil
	case func() (bool, error):
		return func(context.Context) (bool, error) { return f() }, nil
	case func(context.Context) (bool, error):
		return f, nil
	case func() error:
		return func(context.Context) (bool, error) {
			if err := f(); err != nil {
				return false, err
			}
			return true, nil
		}, nil
	case func():
		return func(context.Context) (bool, error) { f(); return true, nil }, nil
	default:
		return nil, fmt.Errorf("%s has unsupported signature %s", initializeFuncName, value.Type())
	}
}

// convertArgs builds call arguments for fnType, injecting ctx when the
// first parameter is a context.Context.
func convertArgs(ctx context.Context, fnType reflect.Type, args []any) ([]reflect.Value, error) {
	var in []reflect.Value
	params := fnType.NumIn()
	start := 0
	if params > 0 && fnType.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		start = 1
	}
	fixed := params
	if fnType.IsVariadic() {
		fixed = params - 1
	}
	for idx := start; idx < fixed; idx++ {
		var arg any
		if pos := idx - start; pos < len(args) {
			arg = args[pos]
		}
		v, err := convertArg(arg, fnType.In(idx))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", idx-start, err)
		}
		in = append(in, v)
	}
	if fnType.IsVariadic() {
		elem := fnType.In(params - 1).Elem()
		for pos := fixed - start; pos < len(args); pos++ {
			v, err := convertArg(args[pos], elem)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", pos, err)
			}
			in = append(in, v)
		}
	}
	return in, nil
}

func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case v.Type().ConvertibleTo(want):
		return v.Convert(want), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, want)
	}
}

// splitResults maps return values to (value, error): a trailing error is
// the error, the first other result is the value.
func splitResults(out []reflect.Value) (any, error) {
	var (
		value any
		found bool
		err   error
	)
	for idx, r := range out {
		if idx == len(out)-1 && r.Type().Implements(errorType) {
			if !r.IsNil() {
				err = r.Interface().(error)
			}
			continue
		}
		if !found {
			value, found = r.Interface(), true
		}
	}
	return value, err
}
