package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/db/models"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type offerLookup interface {
	Lookup(ctx context.Context, tx *gorm.DB, distributorID, productID uuid.UUID) (*models.DistributorInventory, error)
}

type orderCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*orders.OrderDTO, error)
}

// Service manages a customer's cart and turns it into orders.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID uuid.UUID, line LineInput) (*CartDTO, error)
	SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
	Merge(ctx context.Context, customerID uuid.UUID, lines []LineInput) (*MergeResult, error)
	Checkout(ctx context.Context, actor auth.Principal, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	offers offerLookup
	orders orderCreator
}

func NewService(repo Repository, tx txRunner, offers offerLookup, orders orderCreator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer lookup required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	return &service{repo: repo, tx: tx, offers: offers, orders: orders}, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing")
	}
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.price(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, line LineInput) (*CartDTO, error) {
	if err := validateLine(line); err != nil {
		return nil, err
	}
	if _, err := s.offers.Lookup(ctx, nil, line.DistributorID, line.ProductID); err != nil {
		return nil, err
	}
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.AddQuantity(ctx, cart.ID, line.DistributorID, line.ProductID, line.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
	}
	return s.Get(ctx, customerID)
}

func (s *service) SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	affected, err := s.repo.SetQuantity(ctx, cart.ID, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
	}
	return s.Get(ctx, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	affected, err := s.repo.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, customerID)
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Merge folds guest lines into the customer's cart. Lines the distributor no
// longer offers are skipped and reported rather than failing the merge.
func (s *service) Merge(ctx context.Context, customerID uuid.UUID, lines []LineInput) (*MergeResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing")
	}
	result := &MergeResult{Skipped: []SkippedLine{}}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		for _, line := range lines {
			if err := validateLine(line); err != nil {
				result.Skipped = append(result.Skipped, SkippedLine{LineInput: line, Reason: pkgerrors.MessageOf(err)})
				continue
			}
			if _, err := s.offers.Lookup(ctx, tx, line.DistributorID, line.ProductID); err != nil {
				if pkgerrors.CodeOf(err) == pkgerrors.CodeDependency {
					return err
				}
				result.Skipped = append(result.Skipped, SkippedLine{LineInput: line, Reason: pkgerrors.MessageOf(err)})
				continue
			}
			if err := repo.AddQuantity(ctx, cart.ID, line.DistributorID, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
			}
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	result.Cart = cart
	return result, nil
}

// Checkout places one order per distributor in the cart and empties it. Every
// order commits together or not at all.
func (s *service) Checkout(ctx context.Context, actor auth.Principal, input CheckoutInput) (*CheckoutResult, error) {
	if !actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can check out")
	}
	result := &CheckoutResult{Total: decimal.Zero}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByCustomer(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		for _, group := range groupByDistributor(cart.Items) {
			lines := make([]orders.LineInput, 0, len(group.items))
			for _, item := range group.items {
				lines = append(lines, orders.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
			}
			order, err := s.orders.CreateTx(ctx, tx, orders.CreateInput{
				CustomerID:      actor.ID,
				DistributorID:   group.distributorID,
				Notes:           input.Notes,
				DeliveryAddress: input.DeliveryAddress,
				Items:           lines,
				ActorUserID:     actor.UserID,
				ActorRole:       actor.Role,
			})
			if err != nil {
				return err
			}
			result.Orders = append(result.Orders, *order)
			result.Total = result.Total.Add(order.TotalAmount)
		}

		if err := repo.Clear(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) price(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	dto := &CartDTO{ID: cart.ID, Items: make([]ItemDTO, 0, len(cart.Items)), Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		line := ItemDTO{
			ID:            item.ID,
			DistributorID: item.DistributorID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
		}
		if item.Product != nil {
			line.SKU = item.Product.SKU
			line.ProductName = item.Product.Name
		}
		if item.Distributor != nil {
			line.DistributorName = item.Distributor.CompanyName
		}

		offer, err := s.offers.Lookup(ctx, nil, item.DistributorID, item.ProductID)
		switch {
		case err == nil:
			unit := offer.Price
			total := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.UnitPrice = &unit
			line.LineTotal = &total
			line.Available = true
			line.InStock = offer.Stock >= item.Quantity
			line.DeliveryDays = offer.DeliveryDays
			dto.Subtotal = dto.Subtotal.Add(total)
		case pkgerrors.CodeOf(err) == pkgerrors.CodeDependency:
			return nil, err
		}
		dto.Count += item.Quantity
		dto.Items = append(dto.Items, line)
	}
	return dto, nil
}

type distributorGroup struct {
	distributorID uuid.UUID
	items         []models.CartItem
}

// groupByDistributor keeps a stable order so checkouts touch inventory rows in
// the same sequence.
func groupByDistributor(items []models.CartItem) []distributorGroup {
	index := make(map[uuid.UUID]int)
	var groups []distributorGroup
	for _, item := range items {
		i, ok := index[item.DistributorID]
		if !ok {
			i = len(groups)
			index[item.DistributorID] = i
			groups = append(groups, distributorGroup{distributorID: item.DistributorID})
		}
		groups[i].items = append(groups[i].items, item)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].distributorID.String() < groups[j].distributorID.String()
	})
	for _, g := range groups {
		sort.Slice(g.items, func(i, j int) bool {
			return g.items[i].ProductID.String() < g.items[j].ProductID.String()
		})
	}
	return groups
}

func validateLine(line LineInput) error {
	if line.DistributorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if line.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if line.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}
