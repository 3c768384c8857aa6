// Package errors provides standardized error types for the storefront data layer.
// It defines the sentinel errors shared by the storage backends and the repositories,
// a key-scoped error wrapper, and helper functions for error checking.
//
// Package errors 提供商店数据层的标准化错误类型。
// 它定义了存储后端和各仓库共享的哨兵错误、按键包装的错误类型以及用于错误检查的辅助函数。
package errors

import (
	"errors"
	"fmt"
)

// Standard errors returned by the storage layer and the repositories.
//
// 存储层和仓库可能返回的标准错误。
var (
	// ErrNotFound is returned when a key or record does not exist.
	// 当键或记录不存在时返回ErrNotFound。
	ErrNotFound = errors.New("hshop: not found")

	// ErrKeyEmpty is returned when an empty storage key is provided.
	// 当提供空的存储键时返回ErrKeyEmpty。
	ErrKeyEmpty = errors.New("hshop: key is empty")

	// ErrClosed is returned when an operation is performed on a closed backend.
	// 当对已关闭的后端执行操作时返回ErrClosed。
	ErrClosed = errors.New("hshop: backend is closed")

	// ErrSerializationFailed is returned when a value cannot be encoded.
	// 当值无法编码时返回ErrSerializationFailed。
	ErrSerializationFailed = errors.New("hshop: serialization failed")

	// ErrDeserializationFailed is returned when stored bytes cannot be decoded.
	// 当存储的字节无法解码时返回ErrDeserializationFailed。
	ErrDeserializationFailed = errors.New("hshop: deserialization failed")

	// ErrInvalidRecord is returned when a record fails validation before it is saved.
	// 当记录在保存前未通过验证时返回ErrInvalidRecord。
	ErrInvalidRecord = errors.New("hshop: invalid record")

	// ErrLineNotFound is returned when a cart line index or key does not exist.
	// 当购物车行索引或键不存在时返回ErrLineNotFound。
	ErrLineNotFound = errors.New("hshop: cart line not found")

	// ErrInvalidCredentials is returned when a mock login is missing a name or email.
	// 当模拟登录缺少姓名或邮箱时返回ErrInvalidCredentials。
	ErrInvalidCredentials = errors.New("hshop: invalid credentials")

	// ErrUnsupportedEngine is returned when the configured storage engine is unknown.
	// 当配置的存储引擎未知时返回ErrUnsupportedEngine。
	ErrUnsupportedEngine = errors.New("hshop: unsupported storage engine")
)

// KeyError represents an error related to a specific storage key.
// It wraps an underlying error with the key that caused the error.
//
// KeyError 表示与特定存储键相关的错误。
// 它用导致错误的键包装底层错误。
type KeyError struct {
	Key string // The key that caused the error / 导致错误的键
	Err error  // The underlying error / 底层错误
}

// Error returns the error message.
//
// Error 返回错误消息。
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Key)
}

// Unwrap returns the underlying error so errors.Is and errors.As see through it.
//
// Unwrap 返回底层错误，使errors.Is和errors.As能够穿透它。
func (e *KeyError) Unwrap() error {
	return e.Err
}

// NewKeyError creates a new KeyError.
//
// NewKeyError 创建一个新的KeyError。
//
// Parameters:
//   - key: The key that caused the error
//   - err: The underlying error
//
// Returns:
//   - *KeyError: A new key error instance
func NewKeyError(key string, err error) *KeyError {
	return &KeyError{Key: key, Err: err}
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
//
// IsNotFound 如果错误为或包装了ErrNotFound，则返回true。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClosed returns true if the error is or wraps ErrClosed.
//
// IsClosed 如果错误为或包装了ErrClosed，则返回true。
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsInvalidRecord returns true if the error is or wraps ErrInvalidRecord.
//
// IsInvalidRecord 如果错误为或包装了ErrInvalidRecord，则返回true。
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}

// IsLineNotFound returns true if the error is or wraps ErrLineNotFound.
//
// IsLineNotFound 如果错误为或包装了ErrLineNotFound，则返回true。
func IsLineNotFound(err error) bool {
	return errors.Is(err, ErrLineNotFound)
}

// IsSerializationError returns true if the error is related to serialization.
//
// IsSerializationError 如果错误与序列化相关，则返回true。
func IsSerializationError(err error) bool {
	return errors.Is(err, ErrSerializationFailed) || errors.Is(err, ErrDeserializationFailed)
}
