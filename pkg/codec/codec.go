// Package codec provides interfaces and implementations for serializing the
// documents kept by the storage layer. JSON is the wire format of every stored
// collection; YAML is accepted for seed catalogs and exported configuration.
//
// Package codec 提供存储层所保存文档的序列化接口及实现。
// 所有存储的集合都使用JSON格式；YAML用于种子目录和导出的配置。
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec defines the interface for encoding and decoding stored documents.
//
// Codec 定义了编码和解码存储文档的接口。
type Codec interface {
	// Marshal serializes a value into bytes.
	//
	// Marshal 将值序列化为字节。
	Marshal(value interface{}) ([]byte, error)

	// Unmarshal deserializes bytes into a value.
	// The value parameter should be a pointer to the target type.
	//
	// Unmarshal 将字节反序列化为值。
	// value参数应该是目标类型的指针。
	Unmarshal(data []byte, value interface{}) error

	// Name returns the name of this codec.
	//
	// Name 返回此编解码器的名称。
	Name() string
}

// JSONCodec implements Codec using JSON serialization.
//
// JSONCodec 使用JSON序列化实现Codec。
type JSONCodec struct {
	// Pretty determines whether to use indented JSON encoding.
	// Pretty 决定是否使用缩进的JSON编码。
	Pretty bool
}

// Marshal serializes a value into JSON bytes.
//
// Marshal 将值序列化为JSON字节。
func (c *JSONCodec) Marshal(value interface{}) ([]byte, error) {
	if c.Pretty {
		return json.MarshalIndent(value, "", "  ")
	}
	return json.Marshal(value)
}

// Unmarshal deserializes JSON bytes into a value.
// Numbers decoded into interface{} targets stay float64, matching what a
// browser would have written.
//
// Unmarshal 将JSON字节反序列化为值。
func (c *JSONCodec) Unmarshal(data []byte, value interface{}) error {
	return json.Unmarshal(data, value)
}

// Name returns "json".
func (c *JSONCodec) Name() string {
	return "json"
}

// NewJSONCodec creates a new JSONCodec.
//
// NewJSONCodec 创建一个新的JSONCodec。
//
// Parameters:
//   - pretty: Whether to use indented JSON encoding
//
// Returns:
//   - *JSONCodec: A new JSON codec instance
func NewJSONCodec(pretty bool) *JSONCodec {
	return &JSONCodec{Pretty: pretty}
}

// YAMLCodec implements Codec using YAML serialization.
//
// YAMLCodec 使用YAML序列化实现Codec。
type YAMLCodec struct{}

// Marshal serializes a value into YAML bytes.
//
// Marshal 将值序列化为YAML字节。
func (c *YAMLCodec) Marshal(value interface{}) ([]byte, error) {
	return yaml.Marshal(value)
}

// Unmarshal deserializes YAML bytes into a value.
//
// Unmarshal 将YAML字节反序列化为值。
func (c *YAMLCodec) Unmarshal(data []byte, value interface{}) error {
	return yaml.Unmarshal(data, value)
}

// Name returns "yaml".
func (c *YAMLCodec) Name() string {
	return "yaml"
}

// NewYAMLCodec creates a new YAMLCodec.
//
// NewYAMLCodec 创建一个新的YAMLCodec。
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// DefaultCodec returns the default codec (compact JSON).
//
// DefaultCodec 返回默认编解码器（紧凑JSON）。
func DefaultCodec() Codec {
	return NewJSONCodec(false)
}

// GetCodec returns a codec by name.
// Supported names: "json", "yaml", "yml".
//
// GetCodec 通过名称返回编解码器。
// 支持的名称："json"、"yaml"、"yml"。
//
// Parameters:
//   - name: The codec name
//
// Returns:
//   - Codec: The requested codec
//   - error: An error if the codec name is unknown
func GetCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return NewJSONCodec(false), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

// ForExtension returns the codec matching a file extension such as ".yaml".
//
// ForExtension 返回与文件扩展名（如".yaml"）匹配的编解码器。
func ForExtension(ext string) (Codec, error) {
	return GetCodec(strings.TrimPrefix(ext, "."))
}
