package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pizzeria/internal/models"
	"pizzeria/internal/pricing"
	cache "pizzeria/internal/redis"
	"pizzeria/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartCache is the read-through cache in front of the cart tables. SetCart
// only stores the cart while the generation read before loading it is
// still current.
type CartCache interface {
	CartGeneration(ctx context.Context, userID uint) (int64, error)
	SetCart(ctx context.Context, userID uint, generation int64, cart interface{}, ttl time.Duration) error
	GetCart(ctx context.Context, userID uint, dest interface{}) error
	InvalidateCart(ctx context.Context, userID uint) error
}

type AddItemInput struct {
	ProductID     uint                 `json:"productId"`
	Customization models.Customization `json:"customization"`
	Quantity      int                  `json:"quantity"`
}

// CartService owns the server-side cart. Every mutation returns the full,
// freshly loaded cart so clients can resynchronise from the response.
type CartService interface {
	GetCart(ctx context.Context, userID uint) (*models.Cart, error)
	AddItem(ctx context.Context, userID uint, in AddItemInput) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uint) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uint) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cache       CartCache
	ttl         time.Duration
	logger      *zap.Logger
	sfg         singleflight.Group
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, cache CartCache, ttl time.Duration, logger *zap.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	// concurrent misses for the same user share one database read
	v, err, _ := s.sfg.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		var cached models.Cart
		err := s.cache.GetCart(ctx, userID, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return s.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

func (s *cartService) AddItem(ctx context.Context, userID uint, in AddItemInput) (*models.Cart, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductUnavailable
	}

	unitPrice, err := product.PriceFor(in.Customization)
	if err != nil {
		return nil, ValidationErrors{"customization": err.Error()}
	}

	item := &models.CartItem{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Category:      product.Category,
		Image:         product.Image,
		Customization: in.Customization,
		UnitPrice:     unitPrice,
		Quantity:      in.Quantity,
	}
	if err := s.cartRepo.AddItem(ctx, userID, item); err != nil {
		if errors.Is(err, repository.ErrQuantityExceeded) {
			return nil, ValidationErrors{"quantity": fmt.Sprintf("Quantity cannot exceed %d", models.MaxItemQuantity)}
		}
		s.logger.Error("cart add item failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) (*models.Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	err := s.cartRepo.UpdateItemQuantity(ctx, userID, itemID, quantity)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		s.logger.Error("cart update quantity failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uint) (*models.Cart, error) {
	err := s.cartRepo.RemoveItem(ctx, userID, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		s.logger.Error("cart remove item failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uint) (*models.Cart, error) {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		s.logger.Error("cart clear failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.refresh(ctx, userID)
}

// refresh drops the cached copy and reloads the cart from the database.
func (s *cartService) refresh(ctx context.Context, userID uint) (*models.Cart, error) {
	s.invalidate(userID)
	return s.load(ctx, userID)
}

func (s *cartService) load(ctx context.Context, userID uint) (*models.Cart, error) {
	gen, genErr := s.cache.CartGeneration(ctx, userID)
	if genErr != nil {
		s.logger.Warn("cart cache generation failed", zap.Uint("user_id", userID), zap.Error(genErr))
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	summarize(cart)

	if genErr != nil {
		return cart, nil
	}
	err = s.cache.SetCart(ctx, userID, gen, cart, s.ttl)
	if err != nil && !errors.Is(err, cache.ErrCartChanged) {
		s.logger.Warn("cart cache set failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return cart, nil
}

func (s *cartService) invalidate(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.InvalidateCart(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func summarize(cart *models.Cart) {
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	lines := make([]pricing.LineItem, 0, len(cart.Items))
	cart.TotalItems = 0
	for _, item := range cart.Items {
		lines = append(lines, pricing.LineItem{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
		cart.TotalItems += item.Quantity
	}
	cart.Subtotal = pricing.Subtotal(lines).InexactFloat64()
}
