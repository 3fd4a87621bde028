package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// OrderService handles order creation, reads and the auxiliary data the
// transition rules depend on.
type OrderService struct {
	orders    domain.OrderRepository
	profiles  domain.ProfileRepository
	platforms domain.PlatformDirectory
	messages  domain.MessageStore
	actors    actors
}

// NewOrderService creates a service with the given adapters.
func NewOrderService(
	orders domain.OrderRepository,
	profiles domain.ProfileRepository,
	platforms domain.PlatformDirectory,
	messages domain.MessageStore,
) *OrderService {
	return &OrderService{
		orders:    orders,
		profiles:  profiles,
		platforms: platforms,
		messages:  messages,
		actors:    actors{profiles: profiles, platforms: platforms},
	}
}

// Create places a new order at the curator review stage. Only customers
// may place orders.
func (s *OrderService) Create(ctx context.Context, userID int64, platformCode, maskName string) (domain.Order, error) {
	actor, err := s.actors.resolve(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if actor.Role != domain.RoleCustomer {
		return domain.Order{}, &domain.AccessDeniedError{Reason: domain.DenialRoleRequired, Role: domain.RoleCustomer}
	}

	platformCode = strings.TrimSpace(platformCode)
	if _, err := s.platforms.GetByCode(ctx, platformCode); err != nil {
		if errors.Is(err, domain.ErrPlatformNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("looking up platform %q: %w", platformCode, err)
	}

	order, err := s.orders.Create(ctx, domain.NewOrder(actor.ID, platformCode, strings.TrimSpace(maskName)))
	if err != nil {
		return domain.Order{}, fmt.Errorf("creating order: %w", err)
	}
	return order, nil
}

// Get returns the order if the user may see it.
func (s *OrderService) Get(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	actor, err := s.actors.resolve(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	creator, err := s.profiles.GetByID(ctx, order.CreatorID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Order{}, fmt.Errorf("loading creator of order %d: %w", orderID, err)
		}
		creator = domain.Profile{ID: order.CreatorID}
	}

	if !domain.CanView(actor, order, creator) {
		return domain.Order{}, &domain.AccessDeniedError{Reason: domain.DenialCannotView}
	}
	return order, nil
}

// Messages returns the order's chat if the user may see the order.
func (s *OrderService) Messages(ctx context.Context, userID, orderID int64) ([]domain.Message, error) {
	if _, err := s.Get(ctx, userID, orderID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading messages of order %d: %w", orderID, err)
	}
	return msgs, nil
}

// List returns the orders visible to the user, narrowed by filter.
func (s *OrderService) List(ctx context.Context, userID int64, filter domain.ListFilter) ([]domain.Order, error) {
	actor, err := s.actors.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter.CreatorID, filter.CreatorCompany, filter.PlatformCode, filter.OrCreatorCompany = 0, "", "", ""
	switch actor.Role {
	case domain.RoleCustomer:
		if actor.CompanyName == "" {
			filter.CreatorID = actor.ID
		} else {
			filter.CreatorCompany = actor.CompanyName
		}
	case domain.RoleExecutor:
		switch {
		case actor.Platform != "":
			filter.PlatformCode = actor.Platform
			filter.OrCreatorCompany = actor.CompanyName
		case actor.CompanyName != "":
			filter.CreatorCompany = actor.CompanyName
		default:
			return []domain.Order{}, nil
		}
	}

	return s.orders.List(ctx, filter)
}

// SetAttachment records whether a document of the given kind is attached.
func (s *OrderService) SetAttachment(ctx context.Context, userID, orderID int64, kind domain.AttachmentKind, present bool) (domain.Order, error) {
	return s.edit(ctx, userID, orderID, "", func(o *domain.Order) {
		o.Attachments = o.Attachments.With(kind, present)
	})
}

// MarkContractReady flags the contract as prepared so the customer can
// request it. Curators only.
func (s *OrderService) MarkContractReady(ctx context.Context, userID, orderID int64) (domain.Order, error) {
	return s.edit(ctx, userID, orderID, domain.RoleCurator, func(o *domain.Order) {
		o.ContractReady = true
	})
}

func (s *OrderService) edit(ctx context.Context, userID, orderID int64, role domain.Role, mutate func(*domain.Order)) (domain.Order, error) {
	actor, err := s.actors.resolve(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if role != "" && actor.Role != role {
		return domain.Order{}, &domain.AccessDeniedError{Reason: domain.DenialRoleRequired, Role: role}
	}
	if !domain.CanEdit(actor, order) {
		return domain.Order{}, &domain.AccessDeniedError{Reason: domain.DenialNotYourOrder}
	}

	mutate(&order)
	order.UpdatedAt = time.Now().UTC()

	saved, err := s.orders.Update(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("updating order %d: %w", orderID, err)
	}
	return saved, nil
}
