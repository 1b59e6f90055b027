package schema

const (
	// 文档评分键名，存储检索相关性评分
	docMetaDataKeyScore = "_score"

	// 文档额外信息键名，存储自定义补充信息
	docMetaDataKeyExtraInfo = "_extra_info"
)

// Document 文档数据结构，由加载器产出、检索器返回。
type Document struct {
	// ID 文档的唯一标识符。
	ID string `json:"id"`

	// Content 文档的文本内容。
	Content string `json:"content"`

	// MetaData 文档元数据，存储评分、来源等补充信息。
	MetaData map[string]any `json:"meta_data"`
}

// String 返回文档的文本内容。
func (d *Document) String() string {
	return d.Content
}

// WithScore 设置文档的相关性评分，返回文档自身便于链式调用。
func (d *Document) WithScore(score float64) *Document {
	if d.MetaData == nil {
		d.MetaData = make(map[string]any)
	}

	d.MetaData[docMetaDataKeyScore] = score

	return d
}

// Score 返回文档的相关性评分，未设置时为 0。
func (d *Document) Score() float64 {
	if d.MetaData == nil {
		return 0
	}

	score, ok := d.MetaData[docMetaDataKeyScore].(float64)
	if ok {
		return score
	}

	return 0
}

// WithExtraInfo 设置文档的额外信息，返回文档自身便于链式调用。
func (d *Document) WithExtraInfo(extraInfo string) *Document {
	if d.MetaData == nil {
		d.MetaData = make(map[string]any)
	}

	d.MetaData[docMetaDataKeyExtraInfo] = extraInfo

	return d
}

// ExtraInfo 返回文档的额外信息，未设置时为空字符串。
func (d *Document) ExtraInfo() string {
	if d.MetaData == nil {
		return ""
	}

	extraInfo, ok := d.MetaData[docMetaDataKeyExtraInfo].(string)
	if ok {
		return extraInfo
	}

	return ""
}
