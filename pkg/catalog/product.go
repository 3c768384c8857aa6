// Package catalog holds the product and category repositories of the storefront
// and the schema migrator that brings stored product records into their current
// shape. Both repositories persist whole collections as single documents through a
// storage.Adapter and never surface read failures to callers.
//
// Package catalog 包含商店的商品和分类仓库，以及把已存储商品记录转换为当前结构的
// 模式迁移器。两个仓库都通过storage.Adapter把整个集合作为单个文档持久化，
// 并且从不向调用方暴露读取失败。
package catalog

// Color is a structured product color.
//
// Color 是结构化的商品颜色。
type Color struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product is a catalog record in its canonical shape.
//
// Product 是规范结构的商品记录。
type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name" validate:"required"`
	Description   string              `json:"description,omitempty"`
	Price         float64             `json:"price" validate:"gte=0"`
	Category      string              `json:"category"`
	DealPrice     *float64            `json:"dealPrice,omitempty" validate:"omitempty,gte=0"`
	IsDailyDeal   bool                `json:"isDailyDeal,omitempty"`
	Rating        float64             `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int                 `json:"reviews" validate:"gte=0"`
	Stock         int                 `json:"stock" validate:"gte=0"`
	Image         string              `json:"image"`
	Images        []string            `json:"images"`
	Colors        []Color             `json:"colors"`
	Sizes         []string            `json:"sizes,omitempty"`
	VariantImages map[string][]string `json:"variantImages,omitempty"`
}

// EffectivePrice returns the deal price for a daily deal that has one, and the
// list price otherwise.
//
// EffectivePrice 对设置了优惠价的每日特惠商品返回优惠价，否则返回标价。
func (p Product) EffectivePrice() float64 {
	if p.IsDailyDeal && p.DealPrice != nil {
		return *p.DealPrice
	}
	return p.Price
}

// PrimaryImage returns Image, falling back to the first entry of Images.
func (p Product) PrimaryImage() string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
