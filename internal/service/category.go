// 文件路径: internal/service/category.go
// 模块说明: 商品分类的前台展示与后台维护。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// CategoryService exposes category listing and management.
type CategoryService interface {
	List(ctx context.Context, onlyVisible bool) ([]*repository.Category, error)
	Get(ctx context.Context, id int64) (*repository.Category, error)
	Save(ctx context.Context, input CategorySaveInput) (*repository.Category, error)
	Delete(ctx context.Context, id int64) error
	Sort(ctx context.Context, ids []int64) error
}

// CategorySaveInput captures fields admins can mutate. ID 为 0 时新建。
type CategorySaveInput struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Sort        *int    `json:"sort,omitempty"`
	Show        *bool   `json:"show,omitempty"`
}

type categoryService struct {
	categories repository.CategoryRepository
	now        func() time.Time
}

// NewCategoryService wires category management.
func NewCategoryService(store repository.Store) CategoryService {
	s := &categoryService{now: time.Now}
	if store != nil {
		s.categories = store.Categories()
	}
	return s
}

func (s *categoryService) List(ctx context.Context, onlyVisible bool) ([]*repository.Category, error) {
	if s == nil || s.categories == nil {
		return nil, fmt.Errorf("category service not configured / 分类服务未配置")
	}
	list, err := s.categories.List(ctx, onlyVisible)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*repository.Category{}
	}
	return list, nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (*repository.Category, error) {
	if s == nil || s.categories == nil {
		return nil, fmt.Errorf("category service not configured / 分类服务未配置")
	}
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Save(ctx context.Context, input CategorySaveInput) (*repository.Category, error) {
	if s == nil || s.categories == nil {
		return nil, fmt.Errorf("category service not configured / 分类服务未配置")
	}
	category := &repository.Category{Show: true}
	if input.ID > 0 {
		existing, err := s.Get(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		category = existing
	}
	if input.Name != nil {
		category.Name = stripTags(*input.Name)
	}
	if category.Name == "" || len(category.Name) > 100 {
		return nil, fmt.Errorf("%w: name / 分类名称无效", ErrInvalidInput)
	}
	switch {
	case input.Slug != nil && strings.TrimSpace(*input.Slug) != "":
		category.Slug = slugify(*input.Slug)
	case input.Name != nil || category.Slug == "":
		category.Slug = slugify(category.Name)
	}
	if input.Description != nil {
		category.Description = sanitizeHTML(*input.Description)
	}
	if input.Sort != nil {
		category.Sort = *input.Sort
	}
	if input.Show != nil {
		category.Show = *input.Show
	}
	category.UpdatedAt = s.now().Unix()

	if category.ID == 0 {
		category.CreatedAt = category.UpdatedAt
		created, err := s.categories.Create(ctx, category)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrCategoryExists
			}
			return nil, err
		}
		return created, nil
	}
	if err := s.categories.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrCategoryExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if s == nil || s.categories == nil {
		return fmt.Errorf("category service not configured / 分类服务未配置")
	}
	err := s.categories.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrInUse):
		return ErrCategoryInUse
	}
	return err
}

func (s *categoryService) Sort(ctx context.Context, ids []int64) error {
	if s == nil || s.categories == nil {
		return fmt.Errorf("category service not configured / 分类服务未配置")
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids / 排序列表为空", ErrInvalidInput)
	}
	ok, err := s.categories.ExistAll(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return s.categories.Sort(ctx, ids, s.now().Unix())
}
