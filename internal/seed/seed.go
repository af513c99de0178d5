package seed

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"smart-canteen/internal/domain"
	menusvc "smart-canteen/internal/service/menu"
)

//go:embed menu.yaml
var menuYAML []byte

type itemSeed struct {
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	Category  string `yaml:"category"`
	Available *bool  `yaml:"available"`
	Image     string `yaml:"image"`
}

type menuFile struct {
	Items []itemSeed `yaml:"items"`
}

type itemWriter interface {
	Upsert(ctx context.Context, in menusvc.ItemInput) (*domain.Item, error)
}

type staffWriter interface {
	EnsureStaff(ctx context.Context, username, password string) (*domain.User, error)
}

// Options control the staff account created by Apply.
type Options struct {
	AdminUsername string
	AdminPassword string
}

// Menu parses the embedded demo menu.
func Menu() ([]menusvc.ItemInput, error) {
	var f menuFile
	if err := yaml.Unmarshal(menuYAML, &f); err != nil {
		return nil, fmt.Errorf("decode menu.yaml: %w", err)
	}
	out := make([]menusvc.ItemInput, 0, len(f.Items))
	for _, it := range f.Items {
		available := true
		if it.Available != nil {
			available = *it.Available
		}
		out = append(out, menusvc.ItemInput{
			Name:      it.Name,
			Price:     it.Price,
			Category:  it.Category,
			Available: available,
			Image:     it.Image,
		})
	}
	return out, nil
}

// Apply upserts the demo menu and a staff account. Running it twice leaves the same data.
func Apply(ctx context.Context, items itemWriter, staff staffWriter, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	menu, err := Menu()
	if err != nil {
		return err
	}
	for _, in := range menu {
		if _, err := items.Upsert(ctx, in); err != nil {
			return fmt.Errorf("seed item %q: %w", in.Name, err)
		}
	}
	logger.Info("menu seeded", zap.Int("items", len(menu)))

	if opts.AdminUsername == "" {
		return nil
	}
	u, err := staff.EnsureStaff(ctx, opts.AdminUsername, opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure staff user: %w", err)
	}
	logger.Info("staff user ready", zap.String("username", u.Username))
	return nil
}
