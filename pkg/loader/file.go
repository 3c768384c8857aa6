package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/Humphrey-He/hshop/pkg/catalog"
	"github.com/Humphrey-He/hshop/pkg/codec"
	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// Catalog is the content of a seed file.
//
// Catalog 是种子文件的内容。
type Catalog struct {
	Products   []catalog.Product `json:"products"`
	Categories []string          `json:"categories"`
}

// FileLoader reads a catalog file with a "products" list and a "categories"
// list. The format follows the extension (.yaml, .yml or .json). Products may use
// any historical record shape; they are migrated before decoding. The file is
// parsed once and the result reused.
//
// FileLoader 读取包含"products"列表和"categories"列表的目录文件，格式由扩展名决定
// （.yaml、.yml或.json）。商品可以使用任何历史记录结构，解码前会先迁移。
// 文件只解析一次，结果会被复用。
type FileLoader struct {
	fs       afero.Fs
	path     string
	migrator catalog.Migrator

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewFileLoader creates a FileLoader for path on fs (afero.NewOsFs() when nil).
//
// NewFileLoader 为fs上的path创建FileLoader（fs为nil时使用afero.NewOsFs()）。
func NewFileLoader(fs afero.Fs, path string, migrator catalog.Migrator) *FileLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileLoader{fs: fs, path: path, migrator: migrator}
}

// Catalog parses the file.
//
// Catalog 解析文件。
func (f *FileLoader) Catalog(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.once.Do(func() {
		f.catalog, f.err = f.parse()
	})
	return f.catalog, f.err
}

// Products returns a Loader for the products section.
//
// Products 返回products部分的Loader。
func (f *FileLoader) Products() Loader[[]catalog.Product] {
	return LoaderFunc[[]catalog.Product](func(ctx context.Context, _ string) ([]catalog.Product, error) {
		c, err := f.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		return c.Products, nil
	})
}

// Categories returns a Loader for the categories section.
//
// Categories 返回categories部分的Loader。
func (f *FileLoader) Categories() Loader[[]string] {
	return LoaderFunc[[]string](func(ctx context.Context, _ string) ([]string, error) {
		c, err := f.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		return c.Categories, nil
	})
}

func (f *FileLoader) parse() (*Catalog, error) {
	c, err := codec.ForExtension(filepath.Ext(f.path))
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", f.path, err)
	}

	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var doc map[string]interface{}
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w: %v", f.path, hserrors.ErrDeserializationFailed, err)
	}

	out := &Catalog{Products: []catalog.Product{}, Categories: []string{}}

	var rawProducts []interface{}
	if v, ok := doc["products"]; ok && v != nil {
		if rawProducts, err = cast.ToSliceE(v); err != nil {
			return nil, fmt.Errorf("seed file %s: products: %w: %v", f.path, hserrors.ErrDeserializationFailed, err)
		}
	}
	for i, entry := range rawProducts {
		rec, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, fmt.Errorf("seed file %s: product %d: %w: %v", f.path, i, hserrors.ErrDeserializationFailed, err)
		}
		rec, _ = f.migrator.Migrate(rec)
		p, err := catalog.DecodeProduct(rec)
		if err != nil {
			return nil, fmt.Errorf("seed file %s: product %d: %w", f.path, i, err)
		}
		out.Products = append(out.Products, p)
	}

	if v, ok := doc["categories"]; ok && v != nil {
		if out.Categories, err = cast.ToStringSliceE(v); err != nil {
			return nil, fmt.Errorf("seed file %s: categories: %w: %v", f.path, hserrors.ErrDeserializationFailed, err)
		}
	}
	return out, nil
}
