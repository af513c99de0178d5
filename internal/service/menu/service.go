package menu

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	itemrepo "smart-canteen/internal/repository/item"
)

// Service answers menu queries and manages the catalog.
type Service struct {
	repo itemrepo.Repository
	log  *zap.Logger
}

func New(repo itemrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, log: logger.Named("menu_service")}
}

// Listing is a filtered item set plus every category in the catalog.
type Listing struct {
	Items      []domain.Item
	Categories []string
	Filter     domain.ItemFilter
}

// ItemInput is the raw form or import payload for an item.
type ItemInput struct {
	Name      string
	Price     string
	Category  string
	Available bool
	Image     string
}

// List applies the filter conjunctively and as given: the search is a
// case-insensitive substring, the category an exact label. Categories are
// taken from the whole catalog regardless of the filter.
func (s *Service) List(ctx context.Context, filter domain.ItemFilter) (*Listing, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return &Listing{Items: items, Categories: categories, Filter: filter}, nil
}

// All returns the whole catalog ordered by name.
func (s *Service) All(ctx context.Context) ([]domain.Item, error) {
	items, err := s.repo.ListByName(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// Toggle flips the availability flag of an item.
func (s *Service) Toggle(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := s.repo.ToggleAvailability(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("item availability toggled", zap.Int64("item_id", it.ID), zap.Bool("available", it.Available))
	return it, nil
}

func (s *Service) Create(ctx context.Context, in ItemInput) (*domain.Item, error) {
	it, err := in.Validate()
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, it)
	if err != nil {
		return nil, duplicateName(err)
	}
	s.log.Info("item created", zap.Int64("item_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in ItemInput) (*domain.Item, error) {
	it, err := in.Validate()
	if err != nil {
		return nil, err
	}
	it.ID = id
	updated, err := s.repo.Update(ctx, it)
	if err != nil {
		return nil, duplicateName(err)
	}
	return updated, nil
}

// Upsert creates or replaces an item matched by name.
func (s *Service) Upsert(ctx context.Context, in ItemInput) (*domain.Item, error) {
	it, err := in.Validate()
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Upsert(ctx, it)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert item %q", it.Name)
	}
	return saved, nil
}

// Validate normalises the input and returns the item it describes, or a
// *domain.ValidationError naming each rejected field.
func (in ItemInput) Validate() (domain.Item, error) {
	v := domain.NewValidationError()
	it := domain.Item{
		Name:      strings.TrimSpace(in.Name),
		Category:  strings.TrimSpace(in.Category),
		Available: in.Available,
		Image:     strings.TrimSpace(in.Image),
	}

	if it.Name == "" {
		v.Add("name", "This field is required.")
	} else if len(it.Name) > 100 {
		v.Add("name", "Ensure this value has at most 100 characters.")
	}

	priceText := strings.TrimSpace(in.Price)
	if priceText == "" {
		v.Add("price", "This field is required.")
	} else if price, err := decimal.NewFromString(priceText); err != nil {
		v.Add("price", "Enter a number.")
	} else if price.IsNegative() {
		v.Add("price", "Ensure this value is greater than or equal to 0.")
	} else if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		v.Add("price", "Ensure that there are no more than 2 decimal places.")
	} else if price.GreaterThan(maxPrice) {
		v.Add("price", "Ensure that there are no more than 10 digits in total.")
	} else {
		it.Price = price.Round(2)
	}

	if it.Category == "" {
		v.Add("category", "This field is required.")
	} else if len(it.Category) > 50 {
		v.Add("category", "Ensure this value has at most 50 characters.")
	}

	if it.Image != "" && !validImageRef(it.Image) {
		v.Add("image", "Enter a valid URL or path.")
	}

	if err := v.OrNil(); err != nil {
		return domain.Item{}, err
	}
	return it, nil
}

// maxPrice is the largest value items.price (numeric(10,2)) can hold.
var maxPrice = decimal.RequireFromString("99999999.99")

func validImageRef(s string) bool {
	if strings.HasPrefix(s, "/") {
		return !strings.ContainsAny(s, " \t\n")
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func duplicateName(err error) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		v := domain.NewValidationError()
		v.Add("name", "Item with this name already exists.")
		return v
	}
	return err
}
