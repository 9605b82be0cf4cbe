// 文件路径: internal/repository/sqlite/category.go
// 模块说明: 商品分类仓储，删除时若仍有商品关联则拒绝。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type categoryRepo struct {
	db *sql.DB
}

const categorySelect = `SELECT c.id, c.name, c.slug, c.description, c.sort, c.show, c.created_at, c.updated_at,
       (SELECT COUNT(*) FROM product_categories pc WHERE pc.category_id = c.id) AS product_count
FROM categories c`

func (r *categoryRepo) List(ctx context.Context, onlyVisible bool) ([]*repository.Category, error) {
	query := categorySelect
	if onlyVisible {
		query += ` WHERE c.show = 1`
	}
	query += ` ORDER BY c.sort ASC, c.id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*repository.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *categoryRepo) FindByID(ctx context.Context, id int64) (*repository.Category, error) {
	return scanCategory(r.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = ?`, id))
}

func (r *categoryRepo) Create(ctx context.Context, category *repository.Category) (*repository.Category, error) {
	now := time.Now().Unix()
	if category.CreatedAt == 0 {
		category.CreatedAt = now
	}
	category.UpdatedAt = category.CreatedAt
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories(name, slug, description, sort, show, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		category.Name, category.Slug, category.Description, category.Sort, boolToInt(category.Show), category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		category.ID = id
	}
	return category, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *repository.Category) error {
	if category.UpdatedAt == 0 {
		category.UpdatedAt = time.Now().Unix()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, slug = ?, description = ?, sort = ?, show = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.Slug, category.Description, category.Sort, boolToInt(category.Show), category.UpdatedAt, category.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var used int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_categories WHERE category_id = ?`, id).Scan(&used); err != nil {
			return err
		}
		if used > 0 {
			return repository.ErrInUse
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return mapWriteError(err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *categoryRepo) Sort(ctx context.Context, ids []int64, updatedAt int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET sort = ?, updated_at = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, id := range ids {
			if _, err := stmt.ExecContext(ctx, i+1, updatedAt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *categoryRepo) ExistAll(ctx context.Context, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	deduped := make([]int64, 0, len(unique))
	for id := range unique {
		deduped = append(deduped, id)
	}
	marks, args := inClause(deduped)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id IN (`+marks+`)`, args...).Scan(&count); err != nil {
		return false, err
	}
	return count == len(deduped), nil
}

func scanCategory(row scanner) (*repository.Category, error) {
	var c repository.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Sort, &c.Show, &c.CreatedAt, &c.UpdatedAt, &c.ProductCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
