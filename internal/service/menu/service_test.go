package menu

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-canteen/internal/domain"
)

// memoryRepo is an in-memory item repository for tests.
type memoryRepo struct {
	items  map[int64]domain.Item
	nextID int64
}

func newMemoryRepo(items ...domain.Item) *memoryRepo {
	r := &memoryRepo{items: map[int64]domain.Item{}}
	for _, it := range items {
		_, _ = r.Create(context.Background(), it)
	}
	return r
}

func (r *memoryRepo) List(_ context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range r.sorted() {
		if f.Search != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !it.Available {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *memoryRepo) ListByName(_ context.Context) ([]domain.Item, error) {
	out := r.sorted()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) Categories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, it := range r.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (r *memoryRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]domain.Item, error) {
	out := map[int64]domain.Item{}
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(_ context.Context, it domain.Item) (*domain.Item, error) {
	for _, existing := range r.items {
		if existing.Name == it.Name {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.nextID++
	it.ID = r.nextID
	it.CreatedAt = time.Now()
	r.items[it.ID] = it
	return &it, nil
}

func (r *memoryRepo) Update(_ context.Context, it domain.Item) (*domain.Item, error) {
	if _, ok := r.items[it.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	for _, existing := range r.items {
		if existing.Name == it.Name && existing.ID != it.ID {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.items[it.ID] = it
	return &it, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, it domain.Item) (*domain.Item, error) {
	for id, existing := range r.items {
		if existing.Name == it.Name {
			it.ID = id
			r.items[id] = it
			return &it, nil
		}
	}
	return r.Create(ctx, it)
}

func (r *memoryRepo) ToggleAvailability(_ context.Context, id int64) (*domain.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.Available = !it.Available
	r.items[id] = it
	return &it, nil
}

func (r *memoryRepo) sorted() []domain.Item {
	out := make([]domain.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seeded() *memoryRepo {
	return newMemoryRepo(
		domain.Item{Name: "Fried Rice", Price: price("5.00"), Category: "Mains", Available: true},
		domain.Item{Name: "Rice Pudding", Price: price("2.50"), Category: "Desserts", Available: false},
		domain.Item{Name: "Noodle Soup", Price: price("4.00"), Category: "Mains", Available: true},
		domain.Item{Name: "Tea", Price: price("1.00"), Category: "Drinks", Available: true},
	)
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	svc := New(seeded(), nil)
	res, err := svc.List(context.Background(), domain.ItemFilter{Search: "RICE"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.Contains(t, strings.ToLower(it.Name), "rice")
	}
	assert.Equal(t, "RICE", res.Filter.Search)
	assert.Equal(t, []string{"Desserts", "Drinks", "Mains"}, res.Categories)
}

func TestListPassesFilterThrough(t *testing.T) {
	svc := New(seeded(), nil)

	res, err := svc.List(context.Background(), domain.ItemFilter{Search: "rice ", Category: "Mains "})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, "rice ", res.Filter.Search)
	assert.Equal(t, "Mains ", res.Filter.Category)

	res, err = svc.List(context.Background(), domain.ItemFilter{Category: "mains"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestListAvailableOnlyAndCategory(t *testing.T) {
	svc := New(seeded(), nil)

	res, err := svc.List(context.Background(), domain.ItemFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	for _, it := range res.Items {
		assert.True(t, it.Available)
	}

	res, err = svc.List(context.Background(), domain.ItemFilter{Search: "rice", Category: "Mains", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Fried Rice", res.Items[0].Name)
	assert.Len(t, res.Categories, 3)
}

func TestToggleTwiceRestores(t *testing.T) {
	svc := New(seeded(), nil)
	ctx := context.Background()

	first, err := svc.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, first.Available)

	second, err := svc.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, second.Available)

	_, err = svc.Toggle(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateValidates(t *testing.T) {
	svc := New(seeded(), nil)
	_, err := svc.Create(context.Background(), ItemInput{Price: "-1", Image: "not a url"})

	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "name")
	assert.Contains(t, v.Fields, "price")
	assert.Contains(t, v.Fields, "category")
	assert.Contains(t, v.Fields, "image")
}

func TestCreateDuplicateNameIsFieldError(t *testing.T) {
	svc := New(seeded(), nil)
	_, err := svc.Create(context.Background(), ItemInput{Name: "Tea", Price: "1.20", Category: "Drinks"})

	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "name")
}

func TestCreateAndUpdate(t *testing.T) {
	repo := seeded()
	svc := New(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ItemInput{Name: " Samosa ", Price: "1.5", Category: "Snacks", Available: true, Image: "https://img.example.com/samosa.png"})
	require.NoError(t, err)
	assert.Equal(t, "Samosa", created.Name)
	assert.Equal(t, "1.50", created.Price.StringFixed(2))

	updated, err := svc.Update(ctx, created.ID, ItemInput{Name: "Samosa", Price: "1.75", Category: "Snacks", Image: "/media/samosa.png"})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "1.75", repo.items[created.ID].Price.StringFixed(2))

	_, err = svc.Update(ctx, 999, ItemInput{Name: "Ghost", Price: "1", Category: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidatePriceScale(t *testing.T) {
	cases := map[string]bool{
		"5":           true,
		"5.00":        true,
		"5.000":       true,
		"5.005":       false,
		"abc":         false,
		"-0.01":       false,
		"0":           true,
		"12.30 ":      true,
		"99999999.99": true,
		"100000000":   false,
		"1e9":         false,
	}
	for in, ok := range cases {
		_, err := ItemInput{Name: "X", Category: "Y", Price: in}.Validate()
		if ok {
			assert.NoError(t, err, in)
		} else {
			assert.Error(t, err, in)
		}
	}
}

func TestCreateRejectsPriceBeyondColumn(t *testing.T) {
	repo := seeded()
	svc := New(repo, nil)
	_, err := svc.Create(context.Background(), ItemInput{Name: "Gold Thali", Price: "100000000", Category: "Meals"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Ensure that there are no more than 10 digits in total.", verr.Fields["price"])
	items, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestAllOrderedByName(t *testing.T) {
	svc := New(seeded(), nil)
	items, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Fried Rice", items[0].Name)
	assert.Equal(t, "Tea", items[3].Name)
}
