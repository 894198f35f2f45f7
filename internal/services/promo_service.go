package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizzeria/internal/models"
	"pizzeria/internal/pricing"
	"pizzeria/internal/repository"

	"go.uber.org/zap"
)

type PromoService interface {
	ValidatePromo(ctx context.Context, code string, orderAmount float64) (*pricing.Discount, error)
	Evaluate(ctx context.Context, code string, orderAmount float64) (*models.Promo, pricing.Discount, error)
	CreatePromo(ctx context.Context, promo *models.Promo, adminID uint) error
	GetPromo(ctx context.Context, id uint) (*models.Promo, error)
	ListPromos(ctx context.Context, filter repository.PromoFilter) ([]models.Promo, error)
	UpdatePromo(ctx context.Context, id uint, changes *models.Promo) (*models.Promo, error)
	DeletePromo(ctx context.Context, id uint) error
}

type promoService struct {
	promoRepo repository.PromoRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewPromoService(promoRepo repository.PromoRepository, logger *zap.Logger) PromoService {
	return &promoService{promoRepo: promoRepo, logger: logger, now: time.Now}
}

// ValidatePromo previews the discount for the given order amount. Nothing
// is redeemed; redemption happens when the order is created.
func (s *promoService) ValidatePromo(ctx context.Context, code string, orderAmount float64) (*pricing.Discount, error) {
	_, discount, err := s.Evaluate(ctx, code, orderAmount)
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// Evaluate looks the promo up and applies the eligibility rules. Rejections
// are returned as *pricing.PromoRejection.
func (s *promoService) Evaluate(ctx context.Context, code string, orderAmount float64) (*models.Promo, pricing.Discount, error) {
	promo, err := s.promoRepo.GetByCode(ctx, normalizeCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pricing.Discount{}, pricing.Reject(pricing.ReasonNotFound)
	}
	if err != nil {
		return nil, pricing.Discount{}, fmt.Errorf("failed to load promo: %w", err)
	}

	discount, err := pricing.Evaluate(termsOf(promo), orderAmount, s.now())
	if err != nil {
		return nil, pricing.Discount{}, err
	}
	return promo, discount, nil
}

func (s *promoService) CreatePromo(ctx context.Context, promo *models.Promo, adminID uint) error {
	promo.ID = 0
	promo.UsedCount = 0
	promo.CreatedBy = adminID
	promo.Code = normalizeCode(promo.Code)
	if err := validatePromo(promo); err != nil {
		return err
	}

	err := s.promoRepo.Create(ctx, promo)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return ErrPromoCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create promo: %w", err)
	}
	s.logger.Info("promo created", zap.String("code", promo.Code), zap.Uint("admin_id", adminID))
	return nil
}

func (s *promoService) GetPromo(ctx context.Context, id uint) (*models.Promo, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPromoNotFound
	}
	return promo, err
}

func (s *promoService) ListPromos(ctx context.Context, filter repository.PromoFilter) ([]models.Promo, error) {
	return s.promoRepo.List(ctx, filter)
}

func (s *promoService) UpdatePromo(ctx context.Context, id uint, changes *models.Promo) (*models.Promo, error) {
	promo, err := s.GetPromo(ctx, id)
	if err != nil {
		return nil, err
	}

	promo.Code = normalizeCode(changes.Code)
	promo.Description = changes.Description
	promo.DiscountType = changes.DiscountType
	promo.DiscountValue = changes.DiscountValue
	promo.MinOrderAmount = changes.MinOrderAmount
	promo.MaxDiscount = changes.MaxDiscount
	promo.ValidFrom = changes.ValidFrom
	promo.ValidTo = changes.ValidTo
	promo.UsageLimit = changes.UsageLimit
	promo.Active = changes.Active
	if err := validatePromo(promo); err != nil {
		return nil, err
	}

	err = s.promoRepo.Update(ctx, promo)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrPromoCodeTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update promo: %w", err)
	}
	return promo, nil
}

func (s *promoService) DeletePromo(ctx context.Context, id uint) error {
	err := s.promoRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPromoNotFound
	}
	return err
}

func termsOf(p *models.Promo) pricing.PromoTerms {
	return pricing.PromoTerms{
		Code:           p.Code,
		Type:           pricing.DiscountType(p.DiscountType),
		Value:          p.DiscountValue,
		MinOrderAmount: p.MinOrderAmount,
		MaxDiscount:    p.MaxDiscount,
		ValidFrom:      p.ValidFrom,
		ValidTo:        p.ValidTo,
		UsageLimit:     p.UsageLimit,
		UsedCount:      p.UsedCount,
		Active:         p.Active,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
