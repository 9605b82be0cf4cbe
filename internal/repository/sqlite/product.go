// 文件路径: internal/repository/sqlite/product.go
// 模块说明: 商品仓储，商品与分类的关联在同一事务中维护。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type productRepo struct {
	db *sql.DB
}

const productColumns = `id, name, slug, description, cost, margin, tax_rate, discount, effective_discount,
       price, sale_price, stock, sold, available, images, tags, created_at, updated_at`

func (r *productRepo) FindByID(ctx context.Context, id int64) (*repository.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, []*repository.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) FindBySlug(ctx context.Context, slug string) (*repository.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
	if err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, []*repository.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]*repository.Product, error) {
	result := make(map[int64]*repository.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	marks, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (r *productRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*repository.Product, error) {
	where, args := productFilterClause(filter)
	limit, offset := limitOffset(filter.Limit, filter.Offset)
	query := `SELECT ` + productColumns + ` FROM products p` + where + ` ORDER BY ` + productOrder(filter.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*repository.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	where, args := productFilterClause(filter)
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&count)
	return count, err
}

func (r *productRepo) Create(ctx context.Context, product *repository.Product) (*repository.Product, error) {
	now := time.Now().Unix()
	if product.CreatedAt == 0 {
		product.CreatedAt = now
	}
	product.UpdatedAt = product.CreatedAt
	images, tags, err := encodeProductLists(product)
	if err != nil {
		return nil, err
	}
	const stmt = `INSERT INTO products(name, slug, description, cost, margin, tax_rate, discount, effective_discount,
                  price, sale_price, stock, sold, available, images, tags, created_at, updated_at)
                  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt,
			product.Name,
			product.Slug,
			product.Description,
			product.CostCents,
			product.Margin,
			product.TaxRate,
			product.Discount,
			product.EffectiveDiscount,
			product.PriceCents,
			product.SalePriceCents,
			product.Stock,
			product.Sold,
			boolToInt(product.Available),
			images,
			tags,
			product.CreatedAt,
			product.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		product.ID = id
		return replaceProductCategories(ctx, tx, id, product.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *repository.Product) error {
	if product.UpdatedAt == 0 {
		product.UpdatedAt = time.Now().Unix()
	}
	images, tags, err := encodeProductLists(product)
	if err != nil {
		return err
	}
	const stmt = `UPDATE products SET name = ?, slug = ?, description = ?, cost = ?, margin = ?, tax_rate = ?, discount = ?,
                  effective_discount = ?, price = ?, sale_price = ?, stock = ?, available = ?, images = ?, tags = ?, updated_at = ?
                  WHERE id = ?`
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt,
			product.Name,
			product.Slug,
			product.Description,
			product.CostCents,
			product.Margin,
			product.TaxRate,
			product.Discount,
			product.EffectiveDiscount,
			product.PriceCents,
			product.SalePriceCents,
			product.Stock,
			boolToInt(product.Available),
			images,
			tags,
			product.UpdatedAt,
			product.ID,
		)
		if err != nil {
			return mapWriteError(err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return repository.ErrNotFound
		}
		return replaceProductCategories(ctx, tx, product.ID, product.CategoryIDs)
	})
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) AdjustStock(ctx context.Context, id int64, delta int, updatedAt int64) (int, error) {
	var stock int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? AND stock + ? >= 0`, delta, updatedAt, id, delta)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE id = ?`, id).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return repository.ErrNotFound
			}
			return repository.ErrInsufficientStock
		}
		return tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, id).Scan(&stock)
	})
	return stock, err
}

func (r *productRepo) LowStock(ctx context.Context, threshold int, limit int) ([]*repository.Product, error) {
	limit, _ = limitOffset(limit, 0)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE available = 1 AND stock <= ? ORDER BY stock ASC, id ASC LIMIT ?`,
		threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*repository.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *productRepo) attachCategories(ctx context.Context, products []*repository.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[int64]*repository.Product, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	marks, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, category_id FROM product_categories WHERE product_id IN (`+marks+`) ORDER BY category_id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var productID, categoryID int64
		if err := rows.Scan(&productID, &categoryID); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.CategoryIDs = append(p.CategoryIDs, categoryID)
		}
	}
	return rows.Err()
}

func replaceProductCategories(ctx context.Context, tx *sql.Tx, productID int64, categoryIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = ?`, productID); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO product_categories(product_id, category_id) VALUES(?, ?)`, productID, cid); err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

func productFilterClause(filter repository.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.CategoryID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = ?)")
		args = append(args, *filter.CategoryID)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		conds = append(conds, "(p.name LIKE ? OR p.description LIKE ?)")
		args = append(args, like, like)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(p.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}
	if filter.MinPriceCents != nil {
		conds = append(conds, "p.sale_price >= ?")
		args = append(args, *filter.MinPriceCents)
	}
	if filter.MaxPriceCents != nil {
		conds = append(conds, "p.sale_price <= ?")
		args = append(args, *filter.MaxPriceCents)
	}
	if filter.OnlyAvailable {
		conds = append(conds, "p.available = 1 AND p.stock > 0")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func productOrder(sort string) string {
	switch sort {
	case repository.ProductSortPriceAsc:
		return "p.sale_price ASC, p.id ASC"
	case repository.ProductSortPriceDesc:
		return "p.sale_price DESC, p.id DESC"
	case repository.ProductSortPopular:
		return "p.sold DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

func encodeProductLists(p *repository.Product) (sql.NullString, sql.NullString, error) {
	images, err := encodeStringSlice(p.Images)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, fmt.Errorf("encode product images: %w", err)
	}
	tags, err := encodeStringSlice(p.Tags)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, fmt.Errorf("encode product tags: %w", err)
	}
	return images, tags, nil
}

func scanProduct(row scanner) (*repository.Product, error) {
	var p repository.Product
	var images, tags sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CostCents,
		&p.Margin,
		&p.TaxRate,
		&p.Discount,
		&p.EffectiveDiscount,
		&p.PriceCents,
		&p.SalePriceCents,
		&p.Stock,
		&p.Sold,
		&p.Available,
		&images,
		&tags,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var err error
	if p.Images, err = decodeJSONSlice(images.String); err != nil {
		return nil, fmt.Errorf("decode product images: %w", err)
	}
	if p.Tags, err = decodeJSONSlice(tags.String); err != nil {
		return nil, fmt.Errorf("decode product tags: %w", err)
	}
	return &p, nil
}
