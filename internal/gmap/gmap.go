package gmap

// Concat 合并多个 Map 为一个新 Map，键冲突时后面的值覆盖前面的值。
// 始终返回非 nil 的新 Map，原 Map 不会被修改。
func Concat[K comparable, V any](ms ...map[K]V) map[K]V {
	if len(ms) == 0 {
		return make(map[K]V)
	}
	if len(ms) == 1 {
		return cloneWithoutNilCheck(ms[0])
	}

	var maxLen int
	for _, m := range ms {
		if len(m) > maxLen {
			maxLen = len(m)
		}
	}
	ret := make(map[K]V, maxLen)
	if maxLen == 0 {
		return ret
	}

	for _, m := range ms {
		for k, v := range m {
			ret[k] = v
		}
	}
	return ret
}

// Keys 返回 Map 的所有键，顺序不确定。
func Keys[K comparable, V any](m map[K]V) []K {
	r := make([]K, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	return r
}

// Clone 返回 Map 的浅拷贝，nil 入参返回 nil。
func Clone[K comparable, V any, M ~map[K]V](m M) M {
	if m == nil {
		return nil
	}
	return cloneWithoutNilCheck(m)
}

func cloneWithoutNilCheck[K comparable, V any, M ~map[K]V](m M) M {
	r := make(M, len(m))
	for k, v := range m {
		r[k] = v
	}
	return r
}
