/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 10:05:37
 * @FilePath: \inventory-app\backend\internal\service\ingredient\service.go
 * @LastEditTime: 2025-10-26 11:48:20
 */
package ingredient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "inventory-app/backend/internal/domain/ingredient"
	reportdomain "inventory-app/backend/internal/domain/report"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/metrics"
	"inventory-app/backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrDuplicateName      = errors.New("ingredient name already exists")
	ErrInvalidInput       = errors.New("invalid ingredient input")
	ErrInsufficientStock  = domain.ErrInsufficientStock
)

// Recorder 写入报表事件，*report.Service 满足该接口。
type Recorder interface {
	Record(ctx context.Context, reportType reportdomain.Type, entityID int64, entityName string) (*reportdomain.Report, error)
}

// Service 管理原料库存，并在库存变化时产生报表事件。
type Service struct {
	db       *gorm.DB
	repo     *repository.IngredientRepository
	units    *domain.UnitCache
	recorder Recorder
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewService 构造原料服务；units 为空时创建独立缓存，recorder 可为空。
func NewService(db *gorm.DB, repo *repository.IngredientRepository, units *domain.UnitCache, recorder Recorder) *Service {
	if units == nil {
		units = domain.NewUnitCache()
	}
	return &Service{
		db:       db,
		repo:     repo,
		units:    units,
		recorder: recorder,
		validate: validator.New(),
		logger:   appLogger.S().With("component", "service.ingredient"),
	}
}

// Params 是新建与更新原料共用的输入。
type Params struct {
	ProductName       string          `json:"productName" validate:"required,max=255"`
	CurrentQuantity   float64         `json:"currentQuantity" validate:"gte=0"`
	MaxQuantityLimit  float64         `json:"maxQuantityLimit" validate:"gte=0"`
	AlertLowQuantity  float64         `json:"alertLowQuantity" validate:"gte=0"`
	PricePerUnit      decimal.Decimal `json:"pricePerUnit"`
	UnitOfMeasurement string          `json:"unitOfMeasurement" validate:"required,max=32"`
}

func (s *Service) check(params *Params) error {
	params.ProductName = strings.TrimSpace(params.ProductName)
	params.UnitOfMeasurement = strings.TrimSpace(params.UnitOfMeasurement)
	if err := s.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if params.PricePerUnit.IsNegative() {
		return fmt.Errorf("%w: pricePerUnit must not be negative", ErrInvalidInput)
	}
	return nil
}

// Create 新建原料并记录 INGREDIENTS_CREATED。
func (s *Service) Create(ctx context.Context, params Params) (*domain.Ingredient, error) {
	if err := s.check(&params); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, params.ProductName, 0); err != nil {
		return nil, err
	}

	item := &domain.Ingredient{
		ProductName: params.ProductName,
		Quantity: domain.Quantity{
			CurrentQuantity:  params.CurrentQuantity,
			MaxQuantityLimit: params.MaxQuantityLimit,
			AlertLowQuantity: params.AlertLowQuantity,
		},
		Unit: s.units.Get(params.PricePerUnit, params.UnitOfMeasurement),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	s.record(ctx, reportdomain.TypeIngredientsCreated, item)
	return item, nil
}

// List 返回全部原料。
func (s *Service) List(ctx context.Context) ([]domain.Ingredient, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Ingredient, error) {
	return wrapLookup(s.repo.FindByID(ctx, id))
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	return wrapLookup(s.repo.FindByName(ctx, strings.TrimSpace(name)))
}

// Update 覆盖原料字段，单位经缓存复用；库存跌破告警线时记录 TIMES_INGREDIENT_REACHED_LOW。
func (s *Service) Update(ctx context.Context, id uint, params Params) (*domain.Ingredient, error) {
	if err := s.check(&params); err != nil {
		return nil, err
	}

	var (
		item    *domain.Ingredient
		crossed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.ProductName != params.ProductName {
			if err := s.ensureNameFreeWith(ctx, repo, params.ProductName, current.ID); err != nil {
				return err
			}
		}
		current.ProductName = params.ProductName
		current.Quantity.MaxQuantityLimit = params.MaxQuantityLimit
		current.Quantity.AlertLowQuantity = params.AlertLowQuantity
		crossed = current.SetQuantity(params.CurrentQuantity)
		current.Unit = s.units.Get(params.PricePerUnit, params.UnitOfMeasurement)
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, translate(err, "update ingredient")
	}
	if crossed {
		s.reachedLow(ctx, item)
	}
	return item, nil
}

// Delete 删除原料。
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "delete ingredient")
	}
	return nil
}

// Consumption 描述一次扣减请求。
type Consumption struct {
	IngredientID uint
	Amount       float64
}

// Outcome 是一次扣减后的结果，由 Publish 转换为报表事件。
type Outcome struct {
	Ingredient *domain.Ingredient
	Amount     float64
	ReachedLow bool
}

// Consume 扣减单个原料库存并记录 INGREDIENT_USED。
func (s *Service) Consume(ctx context.Context, id uint, amount float64) (*domain.Ingredient, error) {
	var outcomes []Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcomes, err = s.ConsumeInTx(ctx, tx, []Consumption{{IngredientID: id, Amount: amount}})
		return err
	})
	if err != nil {
		return nil, translate(err, "consume ingredient")
	}
	s.Publish(ctx, outcomes)
	return outcomes[0].Ingredient, nil
}

// ConsumeInTx 在调用方事务内依次扣减库存，任一失败则整体返回错误。
// 事件需在事务提交后通过 Publish 写出。
func (s *Service) ConsumeInTx(ctx context.Context, tx *gorm.DB, items []Consumption) ([]Outcome, error) {
	repo := s.repo.WithTx(tx)
	outcomes := make([]Outcome, 0, len(items))
	for _, c := range items {
		item, err := repo.FindByIDForUpdate(ctx, c.IngredientID)
		if err != nil {
			return nil, err
		}
		crossed, err := item.Consume(c.Amount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.ProductName, err)
		}
		if err := repo.Update(ctx, item); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, Outcome{Ingredient: item, Amount: c.Amount, ReachedLow: crossed})
	}
	return outcomes, nil
}

// Publish 将扣减结果写成 INGREDIENT_USED 与低库存事件。
func (s *Service) Publish(ctx context.Context, outcomes []Outcome) {
	for _, o := range outcomes {
		s.record(ctx, reportdomain.TypeIngredientUsed, o.Ingredient)
		if o.ReachedLow {
			s.reachedLow(ctx, o.Ingredient)
		}
	}
}

func (s *Service) reachedLow(ctx context.Context, item *domain.Ingredient) {
	metrics.RecordLowStock(item.ProductName)
	s.logger.Warnw("ingredient reached low stock",
		"ingredient_id", item.ID,
		"name", item.ProductName,
		"current", item.Quantity.CurrentQuantity,
		"alert", item.Quantity.AlertLowQuantity,
	)
	s.record(ctx, reportdomain.TypeIngredientReachedLow, item)
}

// record 写事件失败只告警，不回滚已提交的库存修改。
func (s *Service) record(ctx context.Context, reportType reportdomain.Type, item *domain.Ingredient) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(ctx, reportType, int64(item.ID), item.ProductName); err != nil {
		s.logger.Warnw("record report failed", "type", reportType, "ingredient_id", item.ID, "error", err)
	}
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	return s.ensureNameFreeWith(ctx, s.repo, name, selfID)
}

func (s *Service) ensureNameFreeWith(ctx context.Context, repo *repository.IngredientRepository, name string, selfID uint) error {
	existing, err := repo.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrDuplicateName
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check ingredient name: %w", err)
	}
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrIngredientNotFound
	case errors.Is(err, ErrDuplicateName), errors.Is(err, domain.ErrInsufficientStock):
		return err
	case errors.Is(err, domain.ErrNegativeQuantity):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func wrapLookup(item *domain.Ingredient, err error) (*domain.Ingredient, error) {
	if err != nil {
		return nil, translate(err, "find ingredient")
	}
	return item, nil
}
