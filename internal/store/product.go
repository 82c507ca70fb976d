package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopfeed.app/engine/internal/model"
)

type productStore struct {
	pool *pgxpool.Pool
}

func newProductStore(pool *pgxpool.Pool) ProductStore {
	return &productStore{pool: pool}
}

// ListActive loads active products newest-first and assembles their
// images, active variants, and category associations in three follow-up
// queries rather than one wide join, keeping row scanning simple.
func (s *productStore) ListActive(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price, currency,
		       COALESCE(brand, ''), sku, inventory, url, tags, created_at
		FROM products
		WHERE is_active = true
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	index := make(map[string]int)
	for rows.Next() {
		var p model.Product
		p.IsActive = true
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency,
			&p.Brand, &p.SKU, &p.Inventory, &p.URL, &p.Tags, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	if err := s.attachImages(ctx, products, index); err != nil {
		return nil, err
	}
	if err := s.attachVariants(ctx, products, index); err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, products, index); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *productStore) attachImages(ctx context.Context, products []model.Product, index map[string]int) error {
	rows, err := s.pool.Query(ctx, `
		SELECT i.product_id, i.url, i.sort_order
		FROM product_images i
		JOIN products p ON p.id = i.product_id
		WHERE p.is_active = true
		ORDER BY i.product_id, i.sort_order`)
	if err != nil {
		return fmt.Errorf("querying product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var image model.ProductImage
		if err := rows.Scan(&productID, &image.URL, &image.SortOrder); err != nil {
			return fmt.Errorf("scanning product image: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Images = append(products[i].Images, image)
		}
	}
	return rows.Err()
}

func (s *productStore) attachVariants(ctx context.Context, products []model.Product, index map[string]int) error {
	rows, err := s.pool.Query(ctx, `
		SELECT v.id, v.product_id, v.name, v.sku, v.price, v.description,
		       v.inventory, v.sort_order
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.is_active = true AND v.is_active = true
		ORDER BY v.product_id, v.sort_order`)
	if err != nil {
		return fmt.Errorf("querying product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		variant := model.ProductVariant{IsActive: true}
		if err := rows.Scan(&variant.ID, &variant.ProductID, &variant.Name, &variant.SKU,
			&variant.Price, &variant.Description, &variant.Inventory, &variant.SortOrder); err != nil {
			return fmt.Errorf("scanning product variant: %w", err)
		}
		if i, ok := index[variant.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, variant)
		}
	}
	return rows.Err()
}

func (s *productStore) attachCategories(ctx context.Context, products []model.Product, index map[string]int) error {
	rows, err := s.pool.Query(ctx, `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		JOIN products p ON p.id = pc.product_id
		WHERE p.is_active = true
		ORDER BY pc.product_id, pc.position`)
	if err != nil {
		return fmt.Errorf("querying product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, categoryName string
		var categoryID int64
		if err := rows.Scan(&productID, &categoryID, &categoryName); err != nil {
			return fmt.Errorf("scanning product category: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].CategoryIDs = append(products[i].CategoryIDs, categoryID)
			products[i].CategoryNames = append(products[i].CategoryNames, categoryName)
		}
	}
	return rows.Err()
}
