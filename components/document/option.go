package document

// LoaderOption 定义了用于 Loader 组件的调用选项。
//
// 它是组件接口签名的一部分，用于统一不同加载器实现的选项类型。
// 每个加载器实现可以在自己的包中定义自己的选项结构体和选项函数，
// 然后使用 WrapLoaderImplSpecificOptFn 将实现特定的选项函数包装为该类型，
// 再传递给 Load。
type LoaderOption struct {
	// implSpecificOptFn 存储实现特定的选项函数。
	implSpecificOptFn any
}

// WrapLoaderImplSpecificOptFn 将实现特定的选项函数包装为 LoaderOption 类型。
//
// 类型参数：
//   - T: 实现特定的选项结构体类型
//
// 加载器实现需要使用此函数将其自己的选项函数转换为统一的 LoaderOption 类型。
//
// 示例：
//
//	// 定义自定义选项结构体
//	type customOptions struct {
//	    conf string
//	}
//
//	// 提供选项函数
//	func WithConf(conf string) LoaderOption {
//	    return WrapLoaderImplSpecificOptFn(func(o *customOptions) {
//			o.conf = conf
//		})
//	}
func WrapLoaderImplSpecificOptFn[T any](optFn func(*T)) LoaderOption {
	return LoaderOption{
		implSpecificOptFn: optFn,
	}
}

// GetLoaderImplSpecificOptions 为加载器作者提供从统一 LoaderOption 类型中提取自定义选项的能力。
//
// 类型参数：
//   - T: 实现特定的选项结构体类型
//
// 该函数应在加载器实现的 Load 函数内部使用。
// 建议在第一个参数中提供一个基础 T，加载器作者可以在其中提供实现特定选项的默认值。
//
// 参数：
//   - base: 可选的基础选项，包含默认值
//   - opts: 要解析的 LoaderOption 列表
//
// 返回：
//   - *T: 提取了所有自定义选项的结构体实例
//
// 示例：
//
//	type MyOption struct {
//		Field1 string
//	}
//	opts := document.GetLoaderImplSpecificOptions(&MyOption{Field1: "default"}, opts...)
func GetLoaderImplSpecificOptions[T any](base *T, opts ...LoaderOption) *T {
	if base == nil {
		base = new(T)
	}

	for i := range opts {
		opt := opts[i]
		if opt.implSpecificOptFn != nil {
			s, ok := opt.implSpecificOptFn.(func(*T))
			if ok {
				s(base)
			}
		}
	}

	return base
}
