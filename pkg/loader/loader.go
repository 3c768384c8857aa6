// Package loader provides the sources used to seed an empty store: a generic
// Loader interface, function and static adapters, and a FileLoader that reads a
// YAML or JSON catalog file.
//
// Package loader 提供用于为空存储填充初始数据的数据源：通用Loader接口、
// 函数与静态适配器，以及读取YAML或JSON目录文件的FileLoader。
package loader

import (
	"context"
)

// Loader is the interface that wraps the basic Load method.
//
// Load retrieves the data to seed under the given storage key.
//
// Loader 是包装基本Load方法的接口。
//
// Load 检索要在给定存储键下填充的数据。
type Loader[T any] interface {
	Load(ctx context.Context, key string) (T, error)
}

// LoaderFunc is a function type that implements the Loader interface.
//
// LoaderFunc 是实现Loader接口的函数类型。
type LoaderFunc[T any] func(ctx context.Context, key string) (T, error)

// Load calls the function itself.
//
// Load 调用函数本身。
func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, error) {
	return f(ctx, key)
}

// NewFunctionLoader creates a new Loader from a function that retrieves data.
//
// NewFunctionLoader 从检索数据的函数创建一个新的Loader。
func NewFunctionLoader[T any](fn func(ctx context.Context, key string) (T, error)) Loader[T] {
	return LoaderFunc[T](fn)
}

// StaticLoader returns the same value for every key.
//
// StaticLoader 对任何键都返回相同的值。
type StaticLoader[T any] struct {
	Value T
}

// Load returns s.Value.
func (s StaticLoader[T]) Load(ctx context.Context, key string) (T, error) {
	return s.Value, ctx.Err()
}

// NewStaticLoader creates a StaticLoader for value.
//
// NewStaticLoader 为value创建StaticLoader。
func NewStaticLoader[T any](value T) StaticLoader[T] {
	return StaticLoader[T]{Value: value}
}

// FallbackLoader provides a fallback mechanism when the primary loader fails.
//
// FallbackLoader 提供当主加载器失败时的后备机制。
type FallbackLoader[T any] struct {
	Primary   Loader[T]
	Secondary Loader[T]
}

// Load attempts to load data using the primary loader.
// If the primary loader fails, it falls back to the secondary loader.
//
// Load 尝试使用主加载器加载数据，失败时回退到次要加载器。
func (f *FallbackLoader[T]) Load(ctx context.Context, key string) (T, error) {
	value, err := f.Primary.Load(ctx, key)
	if err != nil && f.Secondary != nil {
		return f.Secondary.Load(ctx, key)
	}
	return value, err
}

// NewFallbackLoader creates a new FallbackLoader with the given primary and secondary loaders.
//
// NewFallbackLoader 使用给定的主加载器和次要加载器创建一个新的FallbackLoader。
func NewFallbackLoader[T any](primary, secondary Loader[T]) *FallbackLoader[T] {
	return &FallbackLoader[T]{
		Primary:   primary,
		Secondary: secondary,
	}
}
