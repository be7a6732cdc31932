/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 14:26:03
 * @FilePath: \inventory-app\backend\internal\service\recipe\service.go
 * @LastEditTime: 2025-10-26 13:02:44
 */
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ingredientdomain "inventory-app/backend/internal/domain/ingredient"
	domain "inventory-app/backend/internal/domain/recipe"
	reportdomain "inventory-app/backend/internal/domain/report"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/repository"
	ingredientsvc "inventory-app/backend/internal/service/ingredient"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrDuplicateName     = errors.New("recipe name already exists")
	ErrInvalidInput      = errors.New("invalid recipe input")
	ErrUnknownIngredient = errors.New("recipe references unknown ingredient")
	ErrInsufficientStock = ingredientdomain.ErrInsufficientStock
)

// Recorder 写入报表事件。
type Recorder interface {
	Record(ctx context.Context, reportType reportdomain.Type, entityID int64, entityName string) (*reportdomain.Report, error)
}

// Stock 是菜谱服务需要的原料能力，*ingredient.Service 满足该接口。
type Stock interface {
	Get(ctx context.Context, id uint) (*ingredientdomain.Ingredient, error)
	ConsumeInTx(ctx context.Context, tx *gorm.DB, items []ingredientsvc.Consumption) ([]ingredientsvc.Outcome, error)
	Publish(ctx context.Context, outcomes []ingredientsvc.Outcome)
}

// Service 管理菜谱及其使用。
type Service struct {
	db       *gorm.DB
	repo     *repository.RecipeRepository
	stock    Stock
	recorder Recorder
	validate *validator.Validate
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewService 构造菜谱服务，recorder 可为空。
func NewService(db *gorm.DB, repo *repository.RecipeRepository, stock Stock, recorder Recorder) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		stock:    stock,
		recorder: recorder,
		validate: validator.New(),
		logger:   appLogger.S().With("component", "service.recipe"),
		now:      time.Now,
	}
}

// ComponentInput 是请求中的单个原料用量。
type ComponentInput struct {
	IngredientID uint    `json:"ingredientId" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
}

// CreateParams 描述新建菜谱的输入。
type CreateParams struct {
	RecipeName string           `json:"recipeName" validate:"required,max=255"`
	Components []ComponentInput `json:"recipeComponents" validate:"dive"`
}

// UpdateParams 覆盖菜谱全部字段，UseHistory 会整体替换原有记录。
type UpdateParams struct {
	RecipeName string           `json:"recipeName" validate:"required,max=255"`
	Components []ComponentInput `json:"recipeComponents" validate:"dive"`
	UseCount   int64            `json:"useCount" validate:"gte=0"`
	UseHistory []time.Time      `json:"useHistory"`
}

// Create 新建菜谱并记录 RECIPES_CREATED。
func (s *Service) Create(ctx context.Context, params CreateParams) (*domain.Recipe, error) {
	params.RecipeName = strings.TrimSpace(params.RecipeName)
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.ensureNameFree(ctx, params.RecipeName, 0); err != nil {
		return nil, err
	}
	components, err := s.resolveComponents(ctx, params.Components)
	if err != nil {
		return nil, err
	}

	item := &domain.Recipe{RecipeName: params.RecipeName}
	if err := item.SetComponents(components); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	s.record(ctx, reportdomain.TypeRecipesCreated, item)
	return item, nil
}

// List 返回全部菜谱。
func (s *Service) List(ctx context.Context) ([]domain.Recipe, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Recipe, error) {
	return wrapLookup(s.repo.FindByID(ctx, id))
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Recipe, error) {
	return wrapLookup(s.repo.FindByName(ctx, strings.TrimSpace(name)))
}

// Update 覆盖名称、构成、使用次数与使用记录。
func (s *Service) Update(ctx context.Context, id uint, params UpdateParams) (*domain.Recipe, error) {
	params.RecipeName = strings.TrimSpace(params.RecipeName)
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.RecipeName != params.RecipeName {
		if err := s.ensureNameFree(ctx, params.RecipeName, item.ID); err != nil {
			return nil, err
		}
	}
	components, err := s.resolveComponents(ctx, params.Components)
	if err != nil {
		return nil, err
	}

	item.RecipeName = params.RecipeName
	item.UseCount = params.UseCount
	if err := item.SetComponents(components); err != nil {
		return nil, err
	}
	item.UseHistory = make([]domain.UseHistory, 0, len(params.UseHistory))
	for _, at := range params.UseHistory {
		item.UseHistory = append(item.UseHistory, domain.UseHistory{RecipeID: item.ID, LastUsed: at})
	}

	if err := s.repo.Replace(ctx, item); err != nil {
		return nil, fmt.Errorf("replace recipe: %w", err)
	}
	return item, nil
}

// Delete 删除菜谱及其使用记录。
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// Use 制作一次菜谱：扣减全部原料、使用次数加一并追加使用记录，最后记录 RECIPE_USED。
// 任一原料不足时整体回滚。
func (s *Service) Use(ctx context.Context, id uint) (*domain.Recipe, error) {
	var (
		item     *domain.Recipe
		outcomes []ingredientsvc.Outcome
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}
		components, err := current.DecodeComponents()
		if err != nil {
			return err
		}

		requests := make([]ingredientsvc.Consumption, 0, len(components))
		for _, c := range components {
			requests = append(requests, ingredientsvc.Consumption{IngredientID: c.IngredientID, Amount: c.Quantity})
		}
		if s.stock != nil && len(requests) > 0 {
			outcomes, err = s.stock.ConsumeInTx(ctx, tx, requests)
			if err != nil {
				return err
			}
		}

		entry := current.MarkUsed(s.now())
		if err := repo.RecordUse(ctx, current, &entry); err != nil {
			return err
		}
		current.UseHistory[len(current.UseHistory)-1] = entry
		item = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRecipeNotFound), errors.Is(err, ingredientdomain.ErrInsufficientStock):
			return nil, err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUnknownIngredient
		default:
			return nil, fmt.Errorf("use recipe: %w", err)
		}
	}

	if s.stock != nil {
		s.stock.Publish(ctx, outcomes)
	}
	s.record(ctx, reportdomain.TypeRecipeUsed, item)
	s.logger.Infow("recipe used", "recipe_id", item.ID, "name", item.RecipeName, "use_count", item.UseCount)
	return item, nil
}

func (s *Service) resolveComponents(ctx context.Context, inputs []ComponentInput) ([]domain.Component, error) {
	components := make([]domain.Component, 0, len(inputs))
	for _, in := range inputs {
		if s.stock != nil {
			if _, err := s.stock.Get(ctx, in.IngredientID); err != nil {
				if errors.Is(err, ingredientsvc.ErrIngredientNotFound) {
					return nil, fmt.Errorf("%w: %d", ErrUnknownIngredient, in.IngredientID)
				}
				return nil, err
			}
		}
		components = append(components, domain.Component{IngredientID: in.IngredientID, Quantity: in.Quantity})
	}
	return components, nil
}

func (s *Service) record(ctx context.Context, reportType reportdomain.Type, item *domain.Recipe) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(ctx, reportType, int64(item.ID), item.RecipeName); err != nil {
		s.logger.Warnw("record report failed", "type", reportType, "recipe_id", item.ID, "error", err)
	}
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrDuplicateName
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check recipe name: %w", err)
	}
}

func wrapLookup(item *domain.Recipe, err error) (*domain.Recipe, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}
	return item, nil
}
