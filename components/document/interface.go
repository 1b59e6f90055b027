package document

import (
	"context"

	"github.com/favbox/flow/schema"
)

// Source 结构体定义了文档的来源信息。
//
// 用于指定要加载的文档的 URI，可以是本地文件路径或远程 URL。
//
// 示例：
//   - ./docs/readme.md
//   - https://www.example.com/xxx.pdf
//
// 注意：请确保 URI 可以被服务访问。
type Source struct {
	// URI 是文档的统一资源标识符。
	// 可以是本地文件路径或远程 URL。
	URI string
}

// Loader 接口定义了文档加载器的核心能力 uri->doc。
//
// 用于从各种来源（本地文件、远程 URL、数据库等）加载文档。
type Loader interface {
	// Load 从指定来源加载文档。
	//
	// 该方法根据 Source 中的 URI 加载对应的文档，
	// 并将其转换为标准格式的 schema.Document 对象。
	//
	// 参数：
	//   - ctx: 上下文信息，用于取消、超时和传递请求相关数据
	//   - src: 文档来源信息，包含要加载的文档的 URI
	//   - opts: 可选的加载配置参数，用于定制加载行为（如编码格式等）
	//
	// 返回：
	//   - []*schema.Document: 加载得到的文档列表
	//   - error: 加载过程中的错误（如果有）
	Load(ctx context.Context, src Source, opts ...LoaderOption) ([]*schema.Document, error)
}
