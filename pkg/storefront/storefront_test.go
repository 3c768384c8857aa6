package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Humphrey-He/hshop/configs"
	"github.com/Humphrey-He/hshop/pkg/cart"
	"github.com/Humphrey-He/hshop/pkg/catalog"
	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/event"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

const seed = `
categories: [Lighting, Decor]
products:
  - name: Arc Lamp
    price: 49.99
    category: Lighting
    colors: [black]
    image: /img/arc.png
  - name: Vase
    price: 15
    category: Decor
`

func TestNewSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/hshop/seed.yaml", []byte(seed), 0o644))

	cfg := configs.DefaultConfig()
	cfg.Catalog.SeedFile = "/etc/hshop/seed.yaml"
	backend := storage.NewMemoryBackend()

	s, err := New(ctx, cfg, nil, WithBackend(backend), WithFs(fs))
	require.NoError(t, err)

	products := s.Products.GetAll(ctx)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(2), products[1].ID)
	assert.Equal(t, []catalog.Color{{Name: "black", Value: "black"}}, products[0].Colors)
	assert.Equal(t, []string{catalog.DefaultPlaceholderImage}, products[1].Images)
	assert.Equal(t, []string{"Lighting", "Decor"}, s.Categories.GetAll(ctx))

	// A second start over the same backend leaves edited data alone.
	_, err = s.Products.Delete(ctx, 2)
	require.NoError(t, err)

	again, err := New(ctx, cfg, nil, WithBackend(backend), WithFs(fs))
	require.NoError(t, err)
	assert.Len(t, again.Products.GetAll(ctx), 1)
}

func TestNewFailsOnBadSeed(t *testing.T) {
	cfg := configs.DefaultConfig()
	cfg.Catalog.SeedFile = "/missing.yaml"

	_, err := New(context.Background(), cfg, nil, WithFs(afero.NewMemMapFs()))
	assert.Error(t, err)
}

func TestNewOptionalSeedFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/broken.yaml", []byte("products: [unterminated"), 0o644))

	for _, path := range []string{"/missing.yaml", "/broken.yaml"} {
		t.Run(path, func(t *testing.T) {
			cfg := configs.DefaultConfig()
			cfg.Catalog.SeedFile = path
			cfg.Catalog.SeedOptional = true

			s, err := New(ctx, cfg, nil, WithFs(fs))
			require.NoError(t, err)
			defer s.Close()

			assert.Empty(t, s.Products.GetAll(ctx))
			assert.Empty(t, s.Categories.GetAll(ctx))
		})
	}

	cfg := configs.DefaultConfig()
	cfg.Catalog.SeedFile = "/broken.yaml"
	_, err := New(ctx, cfg, nil, WithFs(fs))
	assert.ErrorIs(t, err, hserrors.ErrDeserializationFailed)
}

func TestNewWithRedisEngine(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := configs.DefaultConfig()
	cfg.Storage.Engine = storage.EngineRedis
	cfg.Storage.RedisURL = "redis://" + mr.Addr()
	cfg.Storage.Namespace = "shop"

	s, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Categories.Add(ctx, "Lighting")
	require.NoError(t, err)

	raw, err := mr.Get("shop:categories")
	require.NoError(t, err)
	assert.JSONEq(t, `["Lighting"]`, raw)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.EntryCount)
}

func TestCartEventsReachSubscribers(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s, err := New(ctx, configs.DefaultConfig(), nil, WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	ch, cancel := s.Bus.SubscribeChan(event.TopicCartUpdated, 8)
	defer cancel()

	p, err := s.Products.Save(ctx, catalog.Product{Name: "Lamp", Price: 10})
	require.NoError(t, err)
	_, err = s.Cart.AddItem(ctx, p, cart.AddOptions{})
	require.NoError(t, err)
	require.NoError(t, s.Cart.ClearCart(ctx))

	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			assert.Equal(t, at, ev.At)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestApplyConfigSwitchesPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := configs.DefaultConfig()

	s, err := New(ctx, cfg, nil)
	require.NoError(t, err)

	_, err = s.Categories.Add(ctx, "Lighting")
	require.NoError(t, err)

	reloaded := configs.DefaultConfig()
	reloaded.Catalog.CategoryPolicy = "case_insensitive"
	s.ApplyConfig(reloaded)

	added, err := s.Categories.Add(ctx, "LIGHTING")
	require.NoError(t, err)
	assert.False(t, added)

	reloaded.Catalog.CategoryPolicy = "nonsense"
	s.ApplyConfig(reloaded)
	assert.Equal(t, catalog.PolicyCaseInsensitive, s.Categories.Policy())
}

func TestSessionStoreIsSeparate(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	s, err := New(ctx, configs.DefaultConfig(), nil, WithBackend(backend))
	require.NoError(t, err)

	_, err = s.Sessions.Login(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)

	_, found, err := backend.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found, "the user must not land in persistent storage")

	require.NoError(t, s.Close())
}

func TestNewSeedsExampleCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := configs.DefaultConfig()
	cfg.Catalog.SeedFile = "../../configs/seed.example.yaml"

	s, err := New(ctx, cfg, nil, WithBackend(storage.NewMemoryBackend()))
	require.NoError(t, err)

	assert.Equal(t, []string{"Lighting", "Decor", "Textiles"}, s.Categories.GetAll(ctx))

	products := s.Products.GetAll(ctx)
	require.Len(t, products, 3)
	assert.Equal(t, []catalog.Color{{Name: "Black", Value: "Black"}, {Name: "Brass", Value: "Brass"}}, products[0].Colors)
	assert.Equal(t, []string{"/images/arc-lamp.png"}, products[0].Images)
	assert.Equal(t, 149.0, products[0].EffectivePrice())
	assert.Equal(t, []string{"/images/vase-slate.png"}, products[1].VariantImages["Slate"])
	assert.Equal(t, []string{catalog.DefaultPlaceholderImage}, products[2].Images)
}
