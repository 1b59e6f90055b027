package internal

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/favbox/flow/internal/generic"
)

// concatFuncs 记录各类型的流块合并策略。
// 字符串做拼接，数值与时间类标量取最后一个值。
var concatFuncs = map[reflect.Type]any{
	generic.TypeOf[string]():        concatStrings,
	generic.TypeOf[int8]():          useLast[int8],
	generic.TypeOf[int16]():         useLast[int16],
	generic.TypeOf[int32]():         useLast[int32],
	generic.TypeOf[int64]():         useLast[int64],
	generic.TypeOf[int]():           useLast[int],
	generic.TypeOf[uint8]():         useLast[uint8],
	generic.TypeOf[uint16]():        useLast[uint16],
	generic.TypeOf[uint32]():        useLast[uint32],
	generic.TypeOf[uint64]():        useLast[uint64],
	generic.TypeOf[uint]():          useLast[uint],
	generic.TypeOf[bool]():          useLast[bool],
	generic.TypeOf[float32]():       useLast[float32],
	generic.TypeOf[float64]():       useLast[float64],
	generic.TypeOf[time.Time]():     useLast[time.Time],
	generic.TypeOf[time.Duration](): useLast[time.Duration],
}

func concatStrings(ss []string) (string, error) {
	var n int
	for _, s := range ss {
		n += len(s)
	}

	var b strings.Builder
	b.Grow(n)
	for _, s := range ss {
		_, err := b.WriteString(s)
		if err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func useLast[T any](s []T) (T, error) {
	return s[len(s)-1], nil
}

// RegisterStreamChunkConcatFunc 注册类型 T 的流块合并函数，覆盖同类型的既有注册。
func RegisterStreamChunkConcatFunc[T any](fn func([]T) (T, error)) {
	concatFuncs[generic.TypeOf[T]()] = fn
}

// GetConcatFunc 返回类型 typ 已注册的合并函数，未注册时返回 nil。
func GetConcatFunc(typ reflect.Type) func(reflect.Value) (reflect.Value, error) {
	if fn, ok := concatFuncs[typ]; ok {
		return func(a reflect.Value) (reflect.Value, error) {
			rvs := reflect.ValueOf(fn).Call([]reflect.Value{a})
			var err error
			if !rvs[1].IsNil() {
				err = rvs[1].Interface().(error)
			}
			return rvs[0], err
		}
	}

	return nil
}

// ConcatItems 将多个同类型的值合并为一个值。
// Map 类型按键递归合并，其余类型走已注册的合并函数或唯一非零值策略。
func ConcatItems[T any](items []T) (T, error) {
	typ := generic.TypeOf[T]()
	v := reflect.ValueOf(items)

	var cv reflect.Value
	var err error

	if typ.Kind() == reflect.Map {
		cv, err = concatMaps(v)
	} else {
		cv, err = concatSliceValue(v)
	}

	if err != nil {
		var t T
		return t, err
	}

	return cv.Interface().(T), nil
}

// concatMaps 合并多个 map，相同 key 的值先收集为切片再递归合并。
func concatMaps(ms reflect.Value) (reflect.Value, error) {
	typ := ms.Type().Elem()

	rms := reflect.MakeMap(reflect.MapOf(typ.Key(), generic.TypeOf[[]any]()))
	ret := reflect.MakeMap(typ)

	n := ms.Len()
	for i := 0; i < n; i++ {
		m := ms.Index(i)

		for _, key := range m.MapKeys() {
			vals := rms.MapIndex(key)
			if !vals.IsValid() {
				var s []any
				vals = reflect.ValueOf(s)
			}

			val := m.MapIndex(key)
			vals = reflect.Append(vals, val)
			rms.SetMapIndex(key, vals)
		}
	}

	for _, key := range rms.MapKeys() {
		vals := rms.MapIndex(key)

		anyVals := vals.Interface().([]any)
		if len(anyVals) == 1 {
			ele := anyVals[0]
			if ele == nil { // SetMapIndex 传 nil 会删除 key，需显式写入零值
				ret.SetMapIndex(key, reflect.Zero(typ.Elem()))
				continue
			}

			ret.SetMapIndex(key, reflect.ValueOf(ele))
			continue
		}

		v, err := toSliceValue(anyVals)
		if err != nil {
			return reflect.Value{}, err
		}

		var cv reflect.Value

		if v.Type().Elem().Kind() == reflect.Map {
			cv, err = concatMaps(v)
		} else {
			cv, err = concatSliceValue(v)
		}

		if err != nil {
			return reflect.Value{}, err
		}

		ret.SetMapIndex(key, cv)
	}

	return ret, nil
}

func concatSliceValue(val reflect.Value) (reflect.Value, error) {
	elmType := val.Type().Elem()

	if val.Len() == 1 {
		return val.Index(0), nil
	}

	f := GetConcatFunc(elmType)
	if f != nil {
		return f(val)
	}

	// 未注册合并函数时要求至多一个非零值。
	var filtered reflect.Value
	for i := 0; i < val.Len(); i++ {
		oneVal := val.Index(i)
		if !oneVal.IsZero() {
			if filtered.IsValid() {
				return reflect.Value{}, fmt.Errorf("cannot concat multiple non-zero value of type %s", elmType)
			}

			filtered = oneVal
		}
	}
	if !filtered.IsValid() {
		filtered = reflect.New(elmType).Elem()
	}

	return filtered, nil
}

func toSliceValue(vs []any) (reflect.Value, error) {
	typ := reflect.TypeOf(vs[0])

	ret := reflect.MakeSlice(reflect.SliceOf(typ), len(vs), len(vs))
	ret.Index(0).Set(reflect.ValueOf(vs[0]))

	for i := 1; i < len(vs); i++ {
		v := vs[i]
		vt := reflect.TypeOf(v)
		if typ != vt {
			return reflect.Value{}, fmt.Errorf("unexpected slice element type. Got %v, expected %v", typ, vt)
		}

		ret.Index(i).Set(reflect.ValueOf(v))
	}

	return ret, nil
}
