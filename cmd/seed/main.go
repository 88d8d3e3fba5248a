package main

// Loads a YAML catalog file and upserts every product by SKU.

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emarastore/emara/internal/config"
	"github.com/emarastore/emara/internal/db"
)

type catalogFile struct {
	Products []catalogProduct `yaml:"products"`
}

type catalogProduct struct {
	SKU         string   `yaml:"sku"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       int      `yaml:"price"`
	SalePrice   int      `yaml:"sale_price"`
	Stock       int      `yaml:"stock"`
	Category    string   `yaml:"category"`
	Active      *bool    `yaml:"active"`
	Featured    bool     `yaml:"featured"`
	Images      []string `yaml:"images"`
	Sizes       []string `yaml:"sizes"`
	Colors      []string `yaml:"colors"`
}

func main() {
	path := flag.String("file", "catalog.yaml", "path to the catalog YAML file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger, *path); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(catalog.Products) == 0 {
		return fmt.Errorf("catalog file %s contains no products", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	products := db.NewProductStore(pool)
	for _, entry := range catalog.Products {
		if entry.SKU == "" || entry.Name == "" || entry.Price <= 0 {
			return fmt.Errorf("invalid catalog entry %q: sku, name and a positive price are required", entry.SKU)
		}

		// Products default to active unless the file says otherwise.
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		product := &db.Product{
			SKU:         entry.SKU,
			Name:        entry.Name,
			Description: entry.Description,
			Price:       entry.Price,
			SalePrice:   entry.SalePrice,
			Stock:       entry.Stock,
			Category:    entry.Category,
			Active:      active,
			Featured:    entry.Featured,
			Images:      entry.Images,
			Sizes:       entry.Sizes,
			Colors:      entry.Colors,
		}
		if err := products.UpsertBySKU(ctx, product); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", entry.SKU, err)
		}
		logger.Info("product upserted", "sku", product.SKU, "name", product.Name)
	}

	logger.Info("catalog seeded", "products", len(catalog.Products))
	return nil
}
