package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/grocer-backend/internal/cart"
	"github.com/angelmondragon/grocer-backend/internal/distance"
	"github.com/angelmondragon/grocer-backend/internal/items"
	"github.com/angelmondragon/grocer-backend/internal/pricing"
	"github.com/angelmondragon/grocer-backend/pkg/db/models"
	"github.com/angelmondragon/grocer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
	"github.com/angelmondragon/grocer-backend/pkg/metrics"
	"github.com/google/uuid"
)

// EventOrderSubmitted is the event type published on submission.
const EventOrderSubmitted = "order.submitted"

type supermarketLoader interface {
	Load(ctx context.Context, id uuid.UUID) (*models.Supermarket, error)
}

type cartStore interface {
	Get(ctx context.Context, supermarketID uuid.UUID, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, supermarketID uuid.UUID, sessionID string) error
}

type itemLookup interface {
	FindByIDs(ctx context.Context, supermarketID uuid.UUID, ids []uuid.UUID) ([]models.Item, error)
}

type distanceResolver interface {
	Resolve(ctx context.Context, req distance.Request) distance.Result
}

type quoteTracker interface {
	Begin(ctx context.Context, session string) (int64, error)
	Check(ctx context.Context, session string, token int64) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, data any) (string, error)
}

// Service prices session carts and turns them into order messages.
type Service interface {
	Quote(ctx context.Context, supermarketID uuid.UUID, input QuoteInput) (*QuoteDTO, error)
	Submit(ctx context.Context, supermarketID uuid.UUID, input SubmitInput) (*SubmissionDTO, error)
}

// Deps groups the collaborators of the checkout service. Tracker, Publisher
// and Metrics are optional.
type Deps struct {
	Supermarkets supermarketLoader
	Carts        cartStore
	Items        itemLookup
	Distance     distanceResolver
	Profiles     *pricing.ProfileSet
	Tracker      quoteTracker
	Publisher    eventPublisher
	Metrics      *metrics.CheckoutMetrics
	Logger       *logger.Logger
}

type service struct {
	supermarkets supermarketLoader
	carts        cartStore
	items        itemLookup
	distance     distanceResolver
	profiles     *pricing.ProfileSet
	tracker      quoteTracker
	publisher    eventPublisher
	metrics      *metrics.CheckoutMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Supermarkets == nil {
		return nil, fmt.Errorf("supermarket loader required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Items == nil {
		return nil, fmt.Errorf("item lookup required")
	}
	if deps.Distance == nil {
		return nil, fmt.Errorf("distance resolver required")
	}
	if deps.Profiles == nil {
		return nil, fmt.Errorf("fee profiles required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		supermarkets: deps.Supermarkets,
		carts:        deps.Carts,
		items:        deps.Items,
		distance:     deps.Distance,
		profiles:     deps.Profiles,
		tracker:      deps.Tracker,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// priced is one pricing run together with its inputs.
type priced struct {
	supermarket *models.Supermarket
	quote       pricing.Quote
	distance    distance.Result
}

func (s *service) Quote(ctx context.Context, supermarketID uuid.UUID, input QuoteInput) (*QuoteDTO, error) {
	run, err := s.price(ctx, supermarketID, input)
	if err != nil {
		return nil, err
	}
	dto := quoteDTO(supermarketID, run.quote, run.distance)
	return &dto, nil
}

func (s *service) Submit(ctx context.Context, supermarketID uuid.UUID, input SubmitInput) (*SubmissionDTO, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	run, err := s.price(ctx, supermarketID, input.QuoteInput)
	if err != nil {
		return nil, err
	}
	payment, err := acceptedPaymentMethod(run.supermarket.PaymentMethods, input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	customer := pricing.Customer{
		Name:          name,
		Phone:         strings.TrimSpace(input.Phone),
		Address:       address,
		Note:          strings.TrimSpace(input.Note),
		PaymentMethod: payment,
	}
	summary := pricing.RenderSummary(pricing.Order{
		SupermarketName: run.supermarket.Name,
		Customer:        customer,
		Quote:           run.quote,
	})
	dto := quoteDTO(supermarketID, run.quote, run.distance)
	out := &SubmissionDTO{
		Quote:       dto,
		Summary:     summary,
		WhatsAppURL: pricing.WhatsAppURL(run.supermarket.WhatsAppPhone, summary),
	}

	ctx = s.logg.WithSupermarketID(ctx, supermarketID.String())
	s.publish(ctx, OrderSubmittedEvent{
		SupermarketID: supermarketID,
		SessionID:     input.SessionID,
		CustomerName:  customer.Name,
		Phone:         customer.Phone,
		Address:       customer.Address,
		PaymentMethod: customer.PaymentMethod,
		FeeProfile:    dto.Profile,
		Subtotal:      dto.Subtotal,
		PickingFee:    dto.PickingFee,
		DeliveryFee:   dto.DeliveryFee,
		Total:         dto.Total,
		Lines:         dto.Lines,
		SubmittedAt:   run.quote.PricedAt,
	})
	if err := s.carts.Clear(ctx, supermarketID, input.SessionID); err != nil {
		s.logg.Error(ctx, "checkout.clear_cart_failed", err)
	}
	s.metrics.IncSubmission(dto.Profile)
	return out, nil
}

func (s *service) price(ctx context.Context, supermarketID uuid.UUID, input QuoteInput) (*priced, error) {
	started := s.now()
	if err := cart.ValidateSessionID(input.SessionID); err != nil {
		return nil, err
	}
	destination, err := coordinates(input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}

	supermarket, err := s.supermarkets.Load(ctx, supermarketID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, supermarketID, input.SessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	session := supermarketID.String() + ":" + input.SessionID
	var token int64
	if s.tracker != nil {
		if token, err = s.tracker.Begin(ctx, session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start quote")
		}
	}

	lines, warnings, err := s.lineItems(ctx, supermarketID, c)
	if err != nil {
		return nil, err
	}

	req := distance.Request{Address: input.Address, Destination: destination}
	if supermarket.HasCoordinates() {
		req.Origin = &maps.LatLng{Latitude: *supermarket.Latitude, Longitude: *supermarket.Longitude}
	}
	dist := s.distance.Resolve(ctx, req)

	if s.tracker != nil {
		if err := s.tracker.Check(ctx, session, token); err != nil {
			if errors.Is(err, distance.ErrSuperseded) {
				s.metrics.IncDistanceOutcome(metrics.DistanceOutcomeSuperseded)
			}
			return nil, err
		}
	}

	profile := s.profiles.For(supermarket.FeeProfile)
	quote := pricing.Price(lines, dist.Distance(), profile, s.now().UTC())
	quote.Warnings = append(warnings, quote.Warnings...)
	s.metrics.ObserveQuote(profile.Name.String(), s.now().Sub(started))

	return &priced{supermarket: supermarket, quote: quote, distance: dist}, nil
}

// lineItems joins cart lines with the catalog. Lines whose item vanished or
// was deactivated are dropped and reported as warnings.
func (s *service) lineItems(ctx context.Context, supermarketID uuid.UUID, c *cart.Cart) ([]pricing.LineItem, []pricing.Warning, error) {
	rows, err := s.items.FindByIDs(ctx, supermarketID, c.ItemIDs())
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	byID := make(map[uuid.UUID]*models.Item, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	var (
		lines    []pricing.LineItem
		warnings []pricing.Warning
	)
	for _, line := range c.Lines {
		item, ok := byID[line.ItemID]
		switch {
		case !ok:
			warnings = append(warnings, pricing.Warning{
				Type:    enums.QuoteWarningTypeItemNotFound,
				ItemID:  line.ItemID.String(),
				Message: "item is no longer available",
			})
		case !item.IsActive:
			warnings = append(warnings, pricing.Warning{
				Type:    enums.QuoteWarningTypeItemInactive,
				ItemID:  line.ItemID.String(),
				Message: fmt.Sprintf("%s is not currently sold", item.Name),
			})
		default:
			lines = append(lines, items.LineItem(item, line.Quantity))
		}
	}
	if len(lines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no available items")
	}
	return lines, warnings, nil
}

func (s *service) publish(ctx context.Context, event OrderSubmittedEvent) {
	if s.publisher == nil {
		return
	}
	id, err := s.publisher.Publish(ctx, EventOrderSubmitted, event.SupermarketID.String(), event)
	if err != nil {
		s.logg.Error(ctx, "checkout.publish_failed", err)
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "message_id", id), "checkout.order_submitted")
}

// acceptedPaymentMethod matches the requested label against the supermarket's
// list, returning the supermarket's spelling. An empty list accepts anything.
func acceptedPaymentMethod(accepted []string, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if len(accepted) == 0 {
		return requested, nil
	}
	if requested == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	for _, method := range accepted {
		if strings.EqualFold(method, requested) {
			return method, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method not accepted by this supermarket").
		WithDetails(map[string]any{"accepted": accepted})
}

func coordinates(lat, lng *float64) (*maps.LatLng, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	return &maps.LatLng{Latitude: *lat, Longitude: *lng}, nil
}
