// Package layering composes attribute maps declared at several levels of a
// stated class hierarchy.
package layering

import "reflect"

// MergeLayers composes attribute maps ordered from strongest to weakest. Keys
// set by a stronger layer win; nested maps merge key by key, anything else is
// replaced whole. The result shares no storage with the inputs.
func MergeLayers(layers ...map[string]any) map[string]any {
	var merged map[string]any
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		merged = mergeMaps(layers[i], merged)
	}
	return merged
}

func mergeMaps(strong, weak map[string]any) map[string]any {
	result := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = Clone(value)
	}
	for key, value := range strong {
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := result[key].(map[string]any)
		if strongIsMap && weakIsMap && strongMap != nil {
			result[key] = mergeMaps(strongMap, weakMap)
			continue
		}
		result[key] = Clone(value)
	}
	return result
}

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// exported struct fields are copied; other values are returned as is.
func Clone[T any](value T) T {
	v := reflect.ValueOf(&value).Elem()
	cloned := cloneValue(v)
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	out := reflect.New(v.Type()).Elem()
	out.Set(cloned)
	return out.Interface().(T)
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
