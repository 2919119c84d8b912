package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-inventaris/internal/inventory"
)

type fixtureFile struct {
	Categories []categoryFixture `yaml:"categories"`
	Products   []productFixture  `yaml:"products"`
}

type categoryFixture struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Active      *bool  `yaml:"active"`
}

type productFixture struct {
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Price    float64 `yaml:"price"`
	Stock    int     `yaml:"stock"`
	MinStock int     `yaml:"minStock"`
	Active   *bool   `yaml:"active"`
}

// fixtures is a validated seed set.
type fixtures struct {
	Categories []inventory.Category
	Products   []inventory.Product
}

// loadFixtures decodes YAML fixtures and checks every entry against the
// inventory rules. Products must reference a category by name.
func loadFixtures(r io.Reader) (fixtures, error) {
	var raw fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}

	var (
		out  fixtures
		errs []error
	)
	categories := make(map[string]bool, len(raw.Categories))
	categoryCodes := make(map[string]bool, len(raw.Categories))
	for i, c := range raw.Categories {
		cat := inventory.NewCategory(c.Code, c.Name, c.Description)
		if c.Active != nil {
			cat.Active = *c.Active
		}
		if err := cat.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("categories[%d]: %w", i, err))
			continue
		}
		if categoryCodes[cat.Key()] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate code %s", i, cat.Code))
			continue
		}
		if categories[strings.ToLower(cat.Name)] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate name %q", i, cat.Name))
			continue
		}
		categoryCodes[cat.Key()] = true
		categories[strings.ToLower(cat.Name)] = true
		out.Categories = append(out.Categories, cat)
	}

	seen := make(map[string]bool, len(raw.Products))
	for i, p := range raw.Products {
		product := inventory.NewProduct(p.Code, p.Name, p.Category, p.Price, p.Stock, p.MinStock)
		if p.Active != nil {
			product.Active = *p.Active
		}
		if err := product.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("products[%d]: %w", i, err))
			continue
		}
		if !categories[strings.ToLower(product.Category)] {
			errs = append(errs, fmt.Errorf("products[%d]: unknown category %q", i, product.Category))
			continue
		}
		if seen[product.Code] {
			errs = append(errs, fmt.Errorf("products[%d]: duplicate code %s", i, product.Code))
			continue
		}
		seen[product.Code] = true
		out.Products = append(out.Products, product)
	}
	if err := errors.Join(errs...); err != nil {
		return fixtures{}, err
	}
	return out, nil
}
