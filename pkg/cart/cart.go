// Package cart implements the shopping cart repository. The cart is one flat,
// ordered list of line items stored as a single document; a line is identified by
// its product, color and size. Every mutation publishes event.TopicCartUpdated.
//
// Package cart 实现购物车仓库。购物车是作为单个文档存储的扁平有序行项目列表；
// 行项目由商品、颜色和尺码唯一标识。每次修改都会发布event.TopicCartUpdated。
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// DefaultKey is the storage key of the cart.
const DefaultKey = "cart"

// Options are the variant choices of a line.
//
// Options 是行项目的规格选项。
type Options struct {
	Color        string `json:"color,omitempty"`
	Size         string `json:"size,omitempty"`
	VariantImage string `json:"variantImage,omitempty"`
}

// Item is one cart line. Name, Price and Image are snapshots taken when the
// line was created; later product edits do not change them.
//
// Item 是购物车中的一行。Name、Price和Image是创建该行时的快照，之后对商品的修改不会影响它们。
type Item struct {
	ProductID int64     `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
	Options   Options   `json:"options"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Key returns the identity of the line.
func (i Item) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Color: i.Options.Color, Size: i.Options.Size}
}

// LineKey identifies a cart line. Two lines with equal keys are the same line.
//
// LineKey 标识购物车中的一行，键相等的两行即为同一行。
type LineKey struct {
	ProductID int64  `json:"productId" form:"productId" binding:"required"`
	Color     string `json:"color" form:"color"`
	Size      string `json:"size" form:"size"`
}

// String returns "productID/color/size".
func (k LineKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.ProductID, k.Color, k.Size)
}

// AddOptions are the arguments of Manager.AddItem. A Quantity below 1, negative
// values included, is treated as 1.
//
// AddOptions 是Manager.AddItem的参数，小于1的Quantity（包括负数）按1处理。
type AddOptions struct {
	Color        string `json:"color"`
	Size         string `json:"size"`
	VariantImage string `json:"variantImage"`
	Quantity     int    `json:"quantity"`
}

// decodeItems converts a stored cart document into items. Entries that are not
// objects are dropped and fields that do not coerce read as zero values.
func decodeItems(raw []interface{}) []Item {
	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		rec, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, decodeItem(rec))
	}
	return items
}

func decodeItem(rec map[string]interface{}) Item {
	opts := cast.ToStringMap(rec["options"])

	return Item{
		ProductID: cast.ToInt64(rec["productId"]),
		Name:      cast.ToString(rec["name"]),
		Price:     cast.ToFloat64(rec["price"]),
		Image:     cast.ToString(rec["image"]),
		Options: Options{
			Color:        cast.ToString(opts["color"]),
			Size:         cast.ToString(opts["size"]),
			VariantImage: cast.ToString(opts["variantImage"]),
		},
		Quantity: cast.ToInt(rec["quantity"]),
		AddedAt:  decodeAddedAt(rec["addedAt"]),
	}
}

// decodeAddedAt reads a timestamp string, or a number of epoch milliseconds as
// written by older clients.
func decodeAddedAt(v interface{}) time.Time {
	switch n := v.(type) {
	case float64, int, int64, json.Number:
		ms, err := cast.ToInt64E(n)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	added, _ := cast.ToTimeE(v)
	return added
}
