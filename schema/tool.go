package schema

import (
	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DataType 工具参数的数据类型，遵循 OpenAPI 3.0 规范。
type DataType string

const (
	Object  DataType = "object"
	Number  DataType = "number"
	Integer DataType = "integer"
	String  DataType = "string"
	Array   DataType = "array"
	Null    DataType = "null"
	Boolean DataType = "boolean"
)

// ToolChoice 模型工具调用行为的控制策略。
type ToolChoice string

const (
	// ToolChoiceForbidden 禁止调用任何工具，对应 OpenAI 的 "none" 模式。
	ToolChoiceForbidden ToolChoice = "forbidden"

	// ToolChoiceAllowed 模型自主选择生成消息或调用工具，对应 OpenAI 的 "auto" 模式。
	ToolChoiceAllowed ToolChoice = "allowed"

	// ToolChoiceForced 强制模型调用一个或多个工具，对应 OpenAI 的 "required" 模式。
	ToolChoiceForced ToolChoice = "forced"
)

// ToolInfo 工具的完整信息描述，供模型理解和调用工具。
type ToolInfo struct {
	// Name 工具的唯一名称，需清晰表达工具用途。
	Name string

	// Desc 工具使用说明，指导模型何时、为何、如何使用工具。
	Desc string

	// Extra 工具的扩展信息。
	Extra map[string]any

	// ParamsOneOf 工具参数定义，为 nil 时表示工具无需输入参数。
	*ParamsOneOf
}

// ParameterInfo 单个工具参数的描述。
type ParameterInfo struct {
	// Type 参数的数据类型。
	Type DataType

	// ElemInfo 数组元素的类型信息，仅用于数组类型参数。
	ElemInfo *ParameterInfo

	// SubParams 对象的子参数集合，仅用于对象类型参数。
	SubParams map[string]*ParameterInfo

	// Desc 参数的用途说明。
	Desc string

	// Enum 参数的可选值列表，仅用于字符串类型参数。
	Enum []string

	// Required 参数是否必填。
	Required bool
}

// ParamsOneOf 工具参数描述的联合类型，两种描述方式选其一：
//  1. NewParamsOneOfByParams 以参数映射直观描述
//  2. NewParamsOneOfByJSONSchema 以 JSON Schema 标准描述
type ParamsOneOf struct {
	params map[string]*ParameterInfo

	jsonschema *jsonschema.Schema
}

// NewParamsOneOfByParams 基于参数映射创建工具参数描述。
func NewParamsOneOfByParams(params map[string]*ParameterInfo) *ParamsOneOf {
	return &ParamsOneOf{
		params: params,
	}
}

// NewParamsOneOfByJSONSchema 基于 JSON Schema 创建工具参数描述。
func NewParamsOneOfByJSONSchema(s *jsonschema.Schema) *ParamsOneOf {
	return &ParamsOneOf{
		jsonschema: s,
	}
}

// ToJSONSchema 将 ParamsOneOf 统一转换为 JSON Schema 格式，供模型侧消费。
func (p *ParamsOneOf) ToJSONSchema() (*jsonschema.Schema, error) {
	if p == nil {
		return nil, nil
	}

	if p.params != nil {
		sc := &jsonschema.Schema{
			Properties: orderedmap.New[string, *jsonschema.Schema](),
			Type:       string(Object),
			Required:   make([]string, 0, len(p.params)),
		}

		for k := range p.params {
			v := p.params[k]
			sc.Properties.Set(k, paramInfoToJSONSchema(v))
			if v.Required {
				sc.Required = append(sc.Required, k)
			}
		}

		return sc, nil
	}

	return p.jsonschema, nil
}

// paramInfoToJSONSchema 将 ParameterInfo 递归转换为 JSON Schema。
func paramInfoToJSONSchema(paramInfo *ParameterInfo) *jsonschema.Schema {
	js := &jsonschema.Schema{
		Type:        string(paramInfo.Type),
		Description: paramInfo.Desc,
	}

	if len(paramInfo.Enum) > 0 {
		js.Enum = make([]any, len(paramInfo.Enum))
		for i, enum := range paramInfo.Enum {
			js.Enum[i] = enum
		}
	}

	if paramInfo.ElemInfo != nil {
		js.Items = paramInfoToJSONSchema(paramInfo.ElemInfo)
	}

	if len(paramInfo.SubParams) > 0 {
		required := make([]string, 0, len(paramInfo.SubParams))
		js.Properties = orderedmap.New[string, *jsonschema.Schema]()
		for k, v := range paramInfo.SubParams {
			item := paramInfoToJSONSchema(v)
			js.Properties.Set(k, item)
			if v.Required {
				required = append(required, k)
			}
		}

		js.Required = required
	}

	return js
}
