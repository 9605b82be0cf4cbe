// 文件路径: internal/service/catalog_import.go
// 模块说明: 从 YAML 文件导入分类与商品（按 slug 新增或更新），供 CLI 初始化店铺数据。
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// CatalogFile 是导入文件结构，金额单位为分。
type CatalogFile struct {
	Categories []CatalogCategory `yaml:"categories"`
	Products   []CatalogProduct  `yaml:"products"`
}

// CatalogCategory 是导入文件中的分类。
type CatalogCategory struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Sort        int    `yaml:"sort"`
	Show        *bool  `yaml:"show"`
}

// CatalogProduct 是导入文件中的商品，Categories 为分类 slug。
type CatalogProduct struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug"`
	Description string   `yaml:"description"`
	Cost        int64    `yaml:"cost"`
	Margin      *float64 `yaml:"margin"`
	Discount    float64  `yaml:"discount"`
	Stock       int      `yaml:"stock"`
	Available   *bool    `yaml:"available"`
	Images      []string `yaml:"images"`
	Tags        []string `yaml:"tags"`
	Categories  []string `yaml:"categories"`
}

// CatalogImportResult 汇总导入结果。
type CatalogImportResult struct {
	CategoriesCreated int `json:"categories_created"`
	CategoriesUpdated int `json:"categories_updated"`
	ProductsCreated   int `json:"products_created"`
	ProductsUpdated   int `json:"products_updated"`
}

// ParseCatalog 解析 YAML 导入文件。
func ParseCatalog(r io.Reader) (*CatalogFile, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("parse catalog / 解析商品文件失败: %w", err)
	}
	return &file, nil
}

// CatalogImporter 复用分类与商品服务，保证导入数据经过同样的校验与定价。
type CatalogImporter struct {
	categories CategoryService
	products   ProductService
	repo       repository.ProductRepository
}

// NewCatalogImporter 组装导入器。
func NewCatalogImporter(store repository.Store, categories CategoryService, products ProductService) *CatalogImporter {
	imp := &CatalogImporter{categories: categories, products: products}
	if store != nil {
		imp.repo = store.Products()
	}
	return imp
}

// Import 按 slug 新增或更新分类和商品。
func (i *CatalogImporter) Import(ctx context.Context, file *CatalogFile) (*CatalogImportResult, error) {
	if i == nil || i.categories == nil || i.products == nil || i.repo == nil {
		return nil, fmt.Errorf("catalog importer not configured / 导入器未配置")
	}
	result := &CatalogImportResult{}
	existing, err := i.categories.List(ctx, false)
	if err != nil {
		return nil, err
	}
	slugs := make(map[string]int64, len(existing))
	for _, c := range existing {
		slugs[c.Slug] = c.ID
	}

	for idx, c := range file.Categories {
		slug := c.Slug
		if slug == "" {
			slug = c.Name
		}
		slug = slugify(slug)
		name, desc, sort := c.Name, c.Description, c.Sort
		input := CategorySaveInput{ID: slugs[slug], Name: &name, Slug: &slug, Description: &desc, Sort: &sort, Show: c.Show}
		saved, err := i.categories.Save(ctx, input)
		if err != nil {
			return result, fmt.Errorf("category #%d %q: %w", idx+1, c.Name, err)
		}
		if input.ID == 0 {
			result.CategoriesCreated++
		} else {
			result.CategoriesUpdated++
		}
		slugs[saved.Slug] = saved.ID
	}

	for idx, p := range file.Products {
		slug := p.Slug
		if slug == "" {
			slug = p.Name
		}
		slug = slugify(slug)
		categoryIDs := make([]int64, 0, len(p.Categories))
		for _, ref := range p.Categories {
			id, ok := slugs[slugify(ref)]
			if !ok {
				return result, fmt.Errorf("product #%d %q: %w: %s", idx+1, p.Name, ErrCategoryNotFound, ref)
			}
			categoryIDs = append(categoryIDs, id)
		}
		input := ProductSaveInput{
			Name:        &p.Name,
			Slug:        &slug,
			Description: &p.Description,
			CostCents:   &p.Cost,
			Margin:      p.Margin,
			Discount:    &p.Discount,
			Stock:       &p.Stock,
			Available:   p.Available,
			Images:      p.Images,
			Tags:        p.Tags,
			CategoryIDs: categoryIDs,
		}
		if current, err := i.repo.FindBySlug(ctx, slug); err == nil {
			input.ID = current.ID
		} else if !errors.Is(err, repository.ErrNotFound) {
			return result, err
		}
		if _, err := i.products.Save(ctx, input); err != nil {
			return result, fmt.Errorf("product #%d %q: %w", idx+1, p.Name, err)
		}
		if input.ID == 0 {
			result.ProductsCreated++
		} else {
			result.ProductsUpdated++
		}
	}
	return result, nil
}
