package logchannel

import (
	"reflect"
	"runtime"
)

// CloneMeta deep-clones a metadata map with cycle detection. Error values
// become {name, message}; functions become {type: "function", name};
// anything revisited on the current path becomes "[cycle]".
func CloneMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	cloned := cloneValue(meta, make(map[uintptr]struct{}))
	if m, ok := cloned.(map[string]any); ok {
		return m
	}
	return nil
}

func cloneValue(v any, seen map[uintptr]struct{}) any {
	if v == nil {
		return nil
	}

	if err, ok := v.(error); ok {
		return map[string]any{
			"name":    reflect.TypeOf(err).String(),
			"message": err.Error(),
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		name := runtime.FuncForPC(rv.Pointer()).Name()
		return map[string]any{"type": "function", "name": name}

	case reflect.Map:
		ptr := rv.Pointer()
		if _, cyclic := seen[ptr]; cyclic {
			return "[cycle]"
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := CoerceMessage(iter.Key().Interface())
			out[key] = cloneValue(unwrap(iter.Value()), seen)
		}
		return out

	case reflect.Slice:
		ptr := rv.Pointer()
		if _, cyclic := seen[ptr]; cyclic {
			return "[cycle]"
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)
		return cloneSequence(rv, seen)

	case reflect.Array:
		return cloneSequence(rv, seen)

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if rv.Kind() == reflect.Ptr {
			ptr := rv.Pointer()
			if _, cyclic := seen[ptr]; cyclic {
				return "[cycle]"
			}
			seen[ptr] = struct{}{}
			defer delete(seen, ptr)
		}
		return cloneValue(rv.Elem().Interface(), seen)

	case reflect.Struct:
		out := make(map[string]any)
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			out[rt.Field(i).Name] = cloneValue(unwrap(rv.Field(i)), seen)
		}
		return out

	default:
		// Scalars are immutable; keep them as-is.
		return v
	}
}

func cloneSequence(rv reflect.Value, seen map[uintptr]struct{}) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = cloneValue(unwrap(rv.Index(i)), seen)
	}
	return out
}

func unwrap(rv reflect.Value) any {
	if !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}
