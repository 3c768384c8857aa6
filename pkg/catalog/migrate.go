package catalog

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// DefaultPlaceholderImage is used when a record has no image at all.
const DefaultPlaceholderImage = "/images/placeholder.png"

// Migrator rewrites raw product records into the canonical shape.
// The zero value uses DefaultPlaceholderImage.
//
// Migrator 把原始商品记录重写为规范结构。零值使用DefaultPlaceholderImage。
type Migrator struct {
	Placeholder string
}

// MigrateRecord migrates raw with the default placeholder image.
//
// MigrateRecord 使用默认占位图迁移raw。
func MigrateRecord(raw map[string]interface{}) (map[string]interface{}, bool) {
	return Migrator{}.Migrate(raw)
}

// Migrate returns a canonical copy of raw and whether anything had to change.
// raw is never modified. Migrating an already canonical record returns an
// equal record and false.
//
// Rules:
//   - colors: bare strings become {name, value}, a single string becomes a
//     one-element list; absent or any other value becomes []
//   - images: a single string becomes a one-element list; empty or absent becomes
//     [image], or [placeholder] when image is empty too
//   - image: empty becomes images[0]
//   - variantImages: string values become one-element lists; other non-list values become []
//
// Migrate 返回raw的规范副本以及是否发生了修改。raw永远不会被修改。
// 迁移已经规范的记录会返回相等的记录和false。
func (m Migrator) Migrate(raw map[string]interface{}) (map[string]interface{}, bool) {
	out := make(map[string]interface{}, len(raw)+3)
	for k, v := range raw {
		out[k] = v
	}

	changed := false
	if migrateColors(out) {
		changed = true
	}
	if m.migrateImages(out) {
		changed = true
	}
	if migrateVariantImages(out) {
		changed = true
	}
	return out, changed
}

func migrateColors(rec map[string]interface{}) bool {
	var list []interface{}
	switch v := rec["colors"].(type) {
	case []interface{}:
		list = v
	case string:
		colors := []interface{}{}
		if v != "" {
			colors = append(colors, map[string]interface{}{"name": v, "value": v})
		}
		rec["colors"] = colors
		return true
	default:
		rec["colors"] = []interface{}{}
		return true
	}

	changed := false
	colors := make([]interface{}, 0, len(list))
	for _, entry := range list {
		switch c := entry.(type) {
		case string:
			colors = append(colors, map[string]interface{}{"name": c, "value": c})
			changed = true
		case map[string]interface{}:
			colors = append(colors, c)
		default:
			changed = true
		}
	}
	if changed {
		rec["colors"] = colors
	}
	return changed
}

func (m Migrator) migrateImages(rec map[string]interface{}) bool {
	changed := false

	var images []interface{}
	switch v := rec["images"].(type) {
	case []interface{}:
		images = make([]interface{}, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok && s != "" {
				images = append(images, s)
			}
		}
		if len(images) != len(v) {
			changed = true
		}
	case string:
		if v != "" {
			images = []interface{}{v}
		}
		changed = true
	default:
		changed = true
	}

	image, _ := rec["image"].(string)
	if len(images) == 0 {
		if image != "" {
			images = []interface{}{image}
		} else {
			images = []interface{}{m.placeholder()}
		}
		changed = true
	}
	if changed {
		rec["images"] = images
	}

	if image == "" {
		rec["image"] = images[0]
		changed = true
	}
	return changed
}

func migrateVariantImages(rec map[string]interface{}) bool {
	v, present := rec["variantImages"]
	if !present {
		return false
	}

	variants, ok := v.(map[string]interface{})
	if !ok {
		rec["variantImages"] = map[string]interface{}{}
		return true
	}

	changed := false
	out := make(map[string]interface{}, len(variants))
	for name, value := range variants {
		switch images := value.(type) {
		case []interface{}:
			out[name] = images
		case string:
			out[name] = []interface{}{images}
			changed = true
		default:
			out[name] = []interface{}{}
			changed = true
		}
	}
	if changed {
		rec["variantImages"] = out
	}
	return changed
}

func (m Migrator) placeholder() string {
	if m.Placeholder != "" {
		return m.Placeholder
	}
	return DefaultPlaceholderImage
}

// DecodeProduct converts a raw record into a Product. Scalars are weakly typed,
// so a price stored as "10" decodes as 10, and a value that does not convert at
// all ("N/A" for a price, an object for a name) decodes as the zero value.
//
// DecodeProduct 将原始记录转换为Product。标量为弱类型解码，因此存储为"10"的价格会解码为10；
// 完全无法转换的值（如价格为"N/A"、名称为对象）解码为零值。
func DecodeProduct(raw map[string]interface{}) (Product, error) {
	var p Product
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       lenientValues,
		Result:           &p,
	})
	if err != nil {
		return Product{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

// lenientValues coerces each value to the kind of its target field. Values that
// do not convert become the target's zero value instead of failing the record.
func lenientValues(from, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.String:
		return cast.ToString(data), nil
	case reflect.Bool:
		return cast.ToBool(data), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64(data), nil
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64(data), nil
	case reflect.Slice:
		if k := from.Kind(); k != reflect.Slice && k != reflect.Array && k != reflect.String {
			return reflect.Zero(to).Interface(), nil
		}
	case reflect.Map, reflect.Struct:
		if from.Kind() != reflect.Map {
			return reflect.Zero(to).Interface(), nil
		}
	}
	return data, nil
}

// encodeProduct converts p into the generic form it is stored in.
func encodeProduct(p Product) (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode product %d: %w", p.ID, err)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("encode product %d: %w", p.ID, err)
	}
	return rec, nil
}
