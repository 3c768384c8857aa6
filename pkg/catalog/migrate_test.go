package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode builds a raw record the way it comes out of storage.
func decode(t *testing.T, doc string) map[string]interface{} {
	t.Helper()
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &rec))
	return rec
}

func TestMigrateColors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want []interface{}
	}{
		{
			name: "absent",
			in:   `{}`,
			want: []interface{}{},
		},
		{
			name: "null",
			in:   `{"colors": null}`,
			want: []interface{}{},
		},
		{
			name: "bare strings",
			in:   `{"colors": ["red", "navy"]}`,
			want: []interface{}{
				map[string]interface{}{"name": "red", "value": "red"},
				map[string]interface{}{"name": "navy", "value": "navy"},
			},
		},
		{
			name: "mixed",
			in:   `{"colors": ["red", {"name": "Navy", "value": "#000080"}]}`,
			want: []interface{}{
				map[string]interface{}{"name": "red", "value": "red"},
				map[string]interface{}{"name": "Navy", "value": "#000080"},
			},
		},
		{
			name: "single string",
			in:   `{"colors": "red"}`,
			want: []interface{}{
				map[string]interface{}{"name": "red", "value": "red"},
			},
		},
		{
			name: "empty string",
			in:   `{"colors": ""}`,
			want: []interface{}{},
		},
		{
			name: "not a list",
			in:   `{"colors": 7}`,
			want: []interface{}{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, changed := MigrateRecord(decode(t, tc.in))
			assert.True(t, changed)
			assert.Equal(t, tc.want, out["colors"])
		})
	}
}

func TestMigrateImages(t *testing.T) {
	testCases := []struct {
		name       string
		in         string
		wantImages []interface{}
		wantImage  string
	}{
		{
			name:       "single image",
			in:         `{"image": "a.png"}`,
			wantImages: []interface{}{"a.png"},
			wantImage:  "a.png",
		},
		{
			name:       "empty images list",
			in:         `{"image": "a.png", "images": []}`,
			wantImages: []interface{}{"a.png"},
			wantImage:  "a.png",
		},
		{
			name:       "images canonical",
			in:         `{"image": "a.png", "images": ["b.png", "c.png"]}`,
			wantImages: []interface{}{"b.png", "c.png"},
			wantImage:  "a.png",
		},
		{
			name:       "image filled from images",
			in:         `{"images": ["b.png"]}`,
			wantImages: []interface{}{"b.png"},
			wantImage:  "b.png",
		},
		{
			name:       "nothing at all",
			in:         `{}`,
			wantImages: []interface{}{DefaultPlaceholderImage},
			wantImage:  DefaultPlaceholderImage,
		},
		{
			name:       "single string images",
			in:         `{"images": "a.jpg"}`,
			wantImages: []interface{}{"a.jpg"},
			wantImage:  "a.jpg",
		},
		{
			name:       "single string images with image",
			in:         `{"image": "b.png", "images": "a.jpg"}`,
			wantImages: []interface{}{"a.jpg"},
			wantImage:  "b.png",
		},
		{
			name:       "empty string images",
			in:         `{"image": "b.png", "images": ""}`,
			wantImages: []interface{}{"b.png"},
			wantImage:  "b.png",
		},
		{
			name:       "non-string entries dropped",
			in:         `{"images": [1, "b.png", null]}`,
			wantImages: []interface{}{"b.png"},
			wantImage:  "b.png",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _ := MigrateRecord(decode(t, tc.in))
			assert.Equal(t, tc.wantImages, out["images"])
			assert.Equal(t, tc.wantImage, out["image"])
		})
	}
}

func TestMigrateVariantImages(t *testing.T) {
	out, changed := MigrateRecord(decode(t, `{
		"image": "a.png",
		"variantImages": {"red": "red.png", "blue": ["b1.png", "b2.png"], "green": null}
	}`))
	assert.True(t, changed)
	assert.Equal(t, map[string]interface{}{
		"red":   []interface{}{"red.png"},
		"blue":  []interface{}{"b1.png", "b2.png"},
		"green": []interface{}{},
	}, out["variantImages"])

	out, _ = MigrateRecord(decode(t, `{"image": "a.png"}`))
	_, present := out["variantImages"]
	assert.False(t, present)

	out, _ = MigrateRecord(decode(t, `{"image": "a.png", "variantImages": "red.png"}`))
	assert.Equal(t, map[string]interface{}{}, out["variantImages"])
}

func TestMigrateIsIdempotent(t *testing.T) {
	legacy := []string{
		`{"id": 1, "name": "Lamp", "colors": ["red"], "image": "a.png", "variantImages": {"red": "r.png"}}`,
		`{"id": 2, "name": "Chair"}`,
		`{"id": 3, "name": "Desk", "colors": [{"name": "Oak", "value": "#c19a6b"}], "images": ["d.png"], "image": "d.png"}`,
		`{"id": 4, "colors": "blue", "images": "x.png", "variantImages": 7}`,
	}

	for _, doc := range legacy {
		once, _ := MigrateRecord(decode(t, doc))
		twice, changed := MigrateRecord(once)
		assert.False(t, changed, doc)
		assert.Equal(t, once, twice, doc)

		// The canonical form survives a storage round trip unchanged.
		data, err := json.Marshal(once)
		require.NoError(t, err)
		reread, changed := MigrateRecord(decode(t, string(data)))
		assert.False(t, changed, doc)
		assert.Equal(t, once, reread, doc)
	}
}

func TestMigrateLegacyStringFields(t *testing.T) {
	once, changed := MigrateRecord(decode(t, `{"id": 1, "name": "A", "colors": "Red", "images": "a.jpg"}`))
	require.True(t, changed)
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Red", "value": "Red"}}, once["colors"])
	assert.Equal(t, []interface{}{"a.jpg"}, once["images"])
	assert.Equal(t, "a.jpg", once["image"])

	twice, changed := MigrateRecord(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)

	p, err := DecodeProduct(twice)
	require.NoError(t, err)
	assert.Equal(t, []Color{{Name: "Red", Value: "Red"}}, p.Colors)
	assert.Equal(t, []string{"a.jpg"}, p.Images)
}

func TestMigrateDoesNotMutateInput(t *testing.T) {
	in := decode(t, `{"colors": ["red"], "image": "a.png", "variantImages": {"red": "r.png"}}`)
	snapshot := decode(t, `{"colors": ["red"], "image": "a.png", "variantImages": {"red": "r.png"}}`)

	_, changed := MigrateRecord(in)
	assert.True(t, changed)
	assert.Equal(t, snapshot, in)
}

func TestMigratorPlaceholder(t *testing.T) {
	out, _ := Migrator{Placeholder: "/static/none.svg"}.Migrate(map[string]interface{}{})
	assert.Equal(t, []interface{}{"/static/none.svg"}, out["images"])
}

func TestDecodeProduct(t *testing.T) {
	rec, _ := MigrateRecord(decode(t, `{
		"id": 7,
		"name": "Lamp",
		"price": "19.5",
		"dealPrice": 15,
		"isDailyDeal": true,
		"stock": 3,
		"colors": ["red"],
		"image": "a.png",
		"variantImages": {"red": "r.png"},
		"legacyField": "ignored"
	}`))

	p, err := DecodeProduct(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, 19.5, p.Price)
	require.NotNil(t, p.DealPrice)
	assert.Equal(t, 15.0, *p.DealPrice)
	assert.Equal(t, 15.0, p.EffectivePrice())
	assert.Equal(t, []Color{{Name: "red", Value: "red"}}, p.Colors)
	assert.Equal(t, []string{"a.png"}, p.Images)
	assert.Equal(t, map[string][]string{"red": {"r.png"}}, p.VariantImages)

}

func TestDecodeProductCoercesBadScalars(t *testing.T) {
	rec, _ := MigrateRecord(decode(t, `{
		"id": "2",
		"name": {"x": 1},
		"price": "N/A",
		"dealPrice": "soon",
		"isDailyDeal": "maybe",
		"rating": "great",
		"stock": [1],
		"sizes": {"S": true},
		"colors": [{"name": 3, "value": null}],
		"image": "b.jpg"
	}`))

	p, err := DecodeProduct(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "", p.Name)
	assert.Equal(t, 0.0, p.Price)
	require.NotNil(t, p.DealPrice)
	assert.Equal(t, 0.0, *p.DealPrice)
	assert.False(t, p.IsDailyDeal)
	assert.Equal(t, 0.0, p.Rating)
	assert.Equal(t, 0, p.Stock)
	assert.Empty(t, p.Sizes)
	assert.Equal(t, []Color{{Name: "3"}}, p.Colors)
	assert.Equal(t, []string{"b.jpg"}, p.Images)
}
