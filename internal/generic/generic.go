package generic

import "reflect"

// NewInstance 返回类型 T 的可用零值实例。
// 对 map、slice、pointer 等引用类型返回非 nil 实例，其余类型返回零值。
func NewInstance[T any]() T {
	typ := TypeOf[T]()

	switch typ.Kind() {
	case reflect.Map:
		return reflect.MakeMap(typ).Interface().(T)
	case reflect.Slice, reflect.Array:
		return reflect.MakeSlice(typ, 0, 0).Interface().(T)
	case reflect.Ptr:
		typ = typ.Elem()
		origin := reflect.New(typ)
		inst := origin

		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
			inst = inst.Elem()
			inst.Set(reflect.New(typ))
		}

		return origin.Interface().(T)

	default:
		var t T
		return t
	}
}

// TypeOf 返回 T 的 reflect.Type，T 为接口类型时返回接口类型本身。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// PtrOf 返回传入值 v 的指针，便于为配置结构体的可选字段取地址。
func PtrOf[T any](v T) *T {
	return &v
}

// ParseTypeName 返回值的具体类型名。
// 指针取其元素类型名，匿名类型与函数返回空串。
func ParseTypeName(val reflect.Value) string {
	typ := val.Type()

	if typ.Kind() == reflect.Func {
		return ""
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	return typ.Name()
}
