package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

type categorySourceFunc func(ctx context.Context, key string) ([]string, error)

func (f categorySourceFunc) Load(ctx context.Context, key string) ([]string, error) {
	return f(ctx, key)
}

func TestCategoryAddAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewCategoryManager(storage.NewAdapter(storage.NewMemoryBackend()), "")

	assert.Empty(t, m.GetAll(ctx))

	added, err := m.Add(ctx, "Lighting")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.Add(ctx, "Lighting")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = m.Add(ctx, "lighting")
	require.NoError(t, err)
	assert.True(t, added, "exact policy treats case variants as distinct")

	_, err = m.Add(ctx, "   ")
	assert.True(t, hserrors.IsInvalidRecord(err))

	assert.Equal(t, []string{"Lighting", "lighting"}, m.GetAll(ctx))

	removed, err := m.Delete(ctx, "Lighting")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"lighting"}, m.GetAll(ctx))

	removed, err = m.Delete(ctx, "Missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCategoryCaseInsensitivePolicy(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, DefaultCategoriesKey, []byte(`["Décor", "DÉCOR", "Lighting"]`)))

	m := NewCategoryManager(storage.NewAdapter(backend), "", WithPolicy(PolicyCaseInsensitive))

	added, err := m.Add(ctx, "décor")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := m.Delete(ctx, "décor")
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "delete removes every matching entry")
	assert.Equal(t, []string{"Lighting"}, m.GetAll(ctx))

	m.SetPolicy(PolicyExact)
	assert.Equal(t, PolicyExact, m.Policy())
	added, err = m.Add(ctx, "LIGHTING")
	require.NoError(t, err)
	assert.True(t, added)
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyExact, false},
		{"exact", PolicyExact, false},
		{"Case_Insensitive", PolicyCaseInsensitive, false},
		{"case-insensitive", PolicyCaseInsensitive, false},
		{"fuzzy", PolicyExact, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePolicy(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func TestCategoryLenientRead(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	m := NewCategoryManager(storage.NewAdapter(backend), "")

	require.NoError(t, backend.Set(ctx, DefaultCategoriesKey, []byte(`["A", 2024, {"x": 1}, null]`)))
	assert.Equal(t, []string{"A", "2024"}, m.GetAll(ctx))

	require.NoError(t, backend.Set(ctx, DefaultCategoriesKey, []byte(`oops`)))
	assert.Empty(t, m.GetAll(ctx))
}

func TestCategoryDeleteDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	store := storage.NewAdapter(storage.NewMemoryBackend())
	categories := NewCategoryManager(store, "")
	products := NewProductManager(store, "")

	_, err := categories.Add(ctx, "Lighting")
	require.NoError(t, err)
	lamp, err := products.Save(ctx, Product{Name: "Lamp", Price: 10, Category: "Lighting"})
	require.NoError(t, err)

	assert.Len(t, categories.InUse(ctx, products, "Lighting"), 1)

	_, err = categories.Delete(ctx, "Lighting")
	require.NoError(t, err)

	all := products.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, lamp, all[0])
}

func TestCategorySeed(t *testing.T) {
	ctx := context.Background()
	m := NewCategoryManager(storage.NewAdapter(storage.NewMemoryBackend()), "")

	n, err := m.Seed(ctx, categorySourceFunc(func(context.Context, string) ([]string, error) {
		return []string{"A", "B", "A"}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"A", "B"}, m.GetAll(ctx))
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}
