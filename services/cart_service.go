package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/repository"
)

// GuestCartStore is the slice of the Redis guest-cart repository this
// service needs.
type GuestCartStore interface {
	GetCart(ctx context.Context, guestToken string) (*models.GuestCart, error)
	SaveCart(ctx context.Context, cart *models.GuestCart) error
	DeleteCart(ctx context.Context, guestToken string) error
}

// CartService owns what is in a cart and its sale-aware subtotal. The cart
// identity is always supplied by the caller; guest carts live in Redis and
// authenticated carts in Postgres, behind the same operations.
type CartService interface {
	GetCart(ctx context.Context, identity models.CartIdentity) (*models.CartView, *ServiceError)
	AddItem(ctx context.Context, identity models.CartIdentity, productID uuid.UUID, qty int) *ServiceError
	SetQuantity(ctx context.Context, identity models.CartIdentity, productID uuid.UUID, qty int) *ServiceError
	RemoveItem(ctx context.Context, identity models.CartIdentity, productID uuid.UUID) *ServiceError
	Clear(ctx context.Context, identity models.CartIdentity) *ServiceError
	Subtotal(ctx context.Context, identity models.CartIdentity) (float64, *ServiceError)
	// MergeGuestCart replays every guest line into the account cart
	// (quantities additive) and deletes the guest cart only after the full
	// replay succeeds, so an interrupted merge can safely re-run.
	MergeGuestCart(ctx context.Context, guestToken string, accountID uuid.UUID) *ServiceError
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	guestCarts  GuestCartStore
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(
	cartRepo repository.CartRepository,
	guestCarts GuestCartStore,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		guestCarts:  guestCarts,
		productRepo: productRepo,
		logger:      logger,
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, identity models.CartIdentity) (*models.CartView, *ServiceError) {
	lines, svcErr := s.lines(ctx, identity)
	if svcErr != nil {
		return nil, svcErr
	}

	view := &models.CartView{Lines: lines}
	for _, line := range lines {
		view.Subtotal += line.LineTotal
	}
	return view, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, identity models.CartIdentity, productID uuid.UUID, qty int) *ServiceError {
	if qty < 1 {
		return &ServiceError{StatusCode: 400, Code: CodeInvalidQuantity, Message: "Quantity must be at least 1"}
	}

	// Stock is not enforced here; the catalog is authoritative and the
	// checkout commit re-checks it transactionally.
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to look up product", zap.String("product_id", productID.String()), zap.Error(err))
		return internalError("Failed to add item to cart")
	}

	if identity.IsGuest() {
		cart, err := s.guestCarts.GetCart(ctx, identity.GuestToken)
		if err != nil {
			s.logger.Error("Failed to load guest cart", zap.Error(err))
			return internalError("Failed to add item to cart")
		}
		if cart == nil {
			cart = &models.GuestCart{
				GuestToken: identity.GuestToken,
				Items:      make(map[uuid.UUID]int),
			}
		}
		cart.Items[productID] += qty
		if err := s.guestCarts.SaveCart(ctx, cart); err != nil {
			s.logger.Error("Failed to save guest cart", zap.Error(err))
			return internalError("Failed to add item to cart")
		}
		return nil
	}

	if err := s.cartRepo.AddQuantity(ctx, identity.AccountID, productID, qty); err != nil {
		s.logger.Error("Failed to add cart line", zap.Error(err))
		return internalError("Failed to add item to cart")
	}
	return nil
}

func (s *cartServiceImpl) SetQuantity(ctx context.Context, identity models.CartIdentity, productID uuid.UUID, qty int) *ServiceError {
	if qty < 1 {
		return &ServiceError{StatusCode: 400, Code: CodeInvalidQuantity, Message: "Quantity must be at least 1"}
	}

	if identity.IsGuest() {
		cart, err := s.guestCarts.GetCart(ctx, identity.GuestToken)
		if err != nil {
			s.logger.Error("Failed to load guest cart", zap.Error(err))
			return internalError("Failed to update cart")
		}
		if cart == nil {
			return nil
		}
		if _, ok := cart.Items[productID]; !ok {
			return nil
		}
		cart.Items[productID] = qty
		if err := s.guestCarts.SaveCart(ctx, cart); err != nil {
			s.logger.Error("Failed to save guest cart", zap.Error(err))
			return internalError("Failed to update cart")
		}
		return nil
	}

	if err := s.cartRepo.SetQuantity(ctx, identity.AccountID, productID, qty); err != nil {
		s.logger.Error("Failed to update cart line", zap.Error(err))
		return internalError("Failed to update cart")
	}
	return nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, identity models.CartIdentity, productID uuid.UUID) *ServiceError {
	// Removing an absent line is a no-op.
	if identity.IsGuest() {
		cart, err := s.guestCarts.GetCart(ctx, identity.GuestToken)
		if err != nil {
			s.logger.Error("Failed to load guest cart", zap.Error(err))
			return internalError("Failed to remove item from cart")
		}
		if cart == nil {
			return nil
		}
		delete(cart.Items, productID)
		if err := s.guestCarts.SaveCart(ctx, cart); err != nil {
			s.logger.Error("Failed to save guest cart", zap.Error(err))
			return internalError("Failed to remove item from cart")
		}
		return nil
	}

	if err := s.cartRepo.DeleteLine(ctx, identity.AccountID, productID); err != nil {
		s.logger.Error("Failed to delete cart line", zap.Error(err))
		return internalError("Failed to remove item from cart")
	}
	return nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, identity models.CartIdentity) *ServiceError {
	if identity.IsGuest() {
		if err := s.guestCarts.DeleteCart(ctx, identity.GuestToken); err != nil {
			s.logger.Error("Failed to clear guest cart", zap.Error(err))
			return internalError("Failed to clear cart")
		}
		return nil
	}

	if err := s.cartRepo.Clear(ctx, identity.AccountID); err != nil {
		s.logger.Error("Failed to clear cart", zap.Error(err))
		return internalError("Failed to clear cart")
	}
	return nil
}

func (s *cartServiceImpl) Subtotal(ctx context.Context, identity models.CartIdentity) (float64, *ServiceError) {
	view, svcErr := s.GetCart(ctx, identity)
	if svcErr != nil {
		return 0, svcErr
	}
	return view.Subtotal, nil
}

func (s *cartServiceImpl) MergeGuestCart(ctx context.Context, guestToken string, accountID uuid.UUID) *ServiceError {
	cart, err := s.guestCarts.GetCart(ctx, guestToken)
	if err != nil {
		s.logger.Error("Failed to load guest cart for merge", zap.Error(err))
		return internalError("Failed to merge cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		// Nothing to merge; drop any empty leftover key.
		_ = s.guestCarts.DeleteCart(ctx, guestToken)
		return nil
	}

	for productID, qty := range cart.Items {
		if err := s.cartRepo.AddQuantity(ctx, accountID, productID, qty); err != nil {
			s.logger.Error("Guest cart merge interrupted",
				zap.String("account_id", accountID.String()),
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
			// The guest cart is kept so the merge can re-run; replaying
			// AddQuantity is additive either way, matching the
			// at-least-once contract.
			return internalError("Failed to merge cart")
		}
	}

	if err := s.guestCarts.DeleteCart(ctx, guestToken); err != nil {
		s.logger.Error("Failed to drop merged guest cart", zap.Error(err))
		return internalError("Failed to merge cart")
	}

	s.logger.Info("Guest cart merged",
		zap.String("account_id", accountID.String()),
		zap.Int("lines", len(cart.Items)),
	)
	return nil
}

func (s *cartServiceImpl) lines(ctx context.Context, identity models.CartIdentity) ([]models.CartLine, *ServiceError) {
	if identity.IsGuest() {
		cart, err := s.guestCarts.GetCart(ctx, identity.GuestToken)
		if err != nil {
			s.logger.Error("Failed to load guest cart", zap.Error(err))
			return nil, internalError("Failed to load cart")
		}
		if cart == nil || len(cart.Items) == 0 {
			return []models.CartLine{}, nil
		}

		ids := make([]uuid.UUID, 0, len(cart.Items))
		for id := range cart.Items {
			ids = append(ids, id)
		}
		products, err := s.productRepo.FindByIDs(ctx, ids)
		if err != nil {
			s.logger.Error("Failed to load cart products", zap.Error(err))
			return nil, internalError("Failed to load cart")
		}

		lines := make([]models.CartLine, 0, len(products))
		for i := range products {
			p := &products[i]
			qty := cart.Items[p.ID]
			if qty < 1 {
				continue
			}
			lines = append(lines, priceLine(p, qty))
		}
		return lines, nil
	}

	items, err := s.cartRepo.FindByAccount(ctx, identity.AccountID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, internalError("Failed to load cart")
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lines = append(lines, priceLine(item.Product, item.Quantity))
	}
	return lines, nil
}

func priceLine(p *models.Product, qty int) models.CartLine {
	unit := p.EffectivePrice()
	return models.CartLine{
		Product:   p,
		Quantity:  qty,
		UnitPrice: unit,
		LineTotal: unit * float64(qty),
	}
}
