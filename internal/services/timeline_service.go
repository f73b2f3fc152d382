package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/buildkart/api/internal/domain"
	repositories "github.com/buildkart/api/internal/repositories"
)

// ErrTimelineConfig signals an invalid timeline service configuration.
var ErrTimelineConfig = errors.New("timeline service: invalid configuration")

// statusStages maps recognised order-status tokens to a fulfillment stage
// index. Tokens are matched case-insensitively after trimming; anything not
// listed resolves to the first stage.
var statusStages = map[string]int{
	"placed":           0,
	"pending":          0,
	"created":          0,
	"confirmed":        1,
	"accepted":         1,
	"processing":       2,
	"packed":           2,
	"shipped":          3,
	"dispatched":       3,
	"out_for_delivery": 3,
	"delivered":        4,
	"completed":        4,
}

var cancelledTokens = map[string]struct{}{
	"cancelled": {},
	"canceled":  {},
	"rejected":  {},
}

// defaultLeadDays holds the remaining delivery lead per stage. The window
// shrinks as the order advances and bottoms out at one day once shipped.
var defaultLeadDays = []int{7, 5, 3, 1, 1}

// TimelineStage is one rendered entry of the order timeline.
type TimelineStage struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Reached     bool   `json:"reached"`
	Current     bool   `json:"current"`
}

// OrderTimeline is the view model for the order-status timeline. Cancelled
// orders carry no stages and no estimate; the presentation layer decides how
// to render either shape.
type OrderTimeline struct {
	OrderID           string          `json:"orderId"`
	Status            string          `json:"status"`
	Cancelled         bool            `json:"cancelled"`
	CurrentStage      int             `json:"currentStage"`
	Stages            []TimelineStage `json:"stages,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	EstimateOnly      bool            `json:"estimateOnly"`
}

// TimelineServiceDeps bundles the collaborators required to construct a timeline service.
type TimelineServiceDeps struct {
	Orders   repositories.OrderRepository
	LeadDays []int
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// TimelineService resolves order statuses to fulfillment stages and builds
// the timeline view model.
type TimelineService struct {
	orders   repositories.OrderRepository
	leadDays []int
	logger   func(context.Context, string, map[string]any)
}

// NewTimelineService validates the lead-day table and wires the service.
func NewTimelineService(deps TimelineServiceDeps) (*TimelineService, error) {
	if deps.Orders == nil {
		return nil, fmt.Errorf("%w: order repository is required", ErrTimelineConfig)
	}

	leadDays := deps.LeadDays
	if len(leadDays) == 0 {
		leadDays = defaultLeadDays
	}
	if len(leadDays) != len(domain.FulfillmentStages()) {
		return nil, fmt.Errorf("%w: %d lead-day entries for %d stages", ErrTimelineConfig, len(leadDays), len(domain.FulfillmentStages()))
	}
	for i, days := range leadDays {
		if days < 1 {
			return nil, fmt.Errorf("%w: lead days must be positive", ErrTimelineConfig)
		}
		if i > 0 && days > leadDays[i-1] {
			return nil, fmt.Errorf("%w: lead days must not increase with stage", ErrTimelineConfig)
		}
	}
	table := make([]int, len(leadDays))
	copy(table, leadDays)

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &TimelineService{orders: deps.Orders, leadDays: table, logger: logger}, nil
}

// MapStatus resolves a raw status token to a stage index, or
// domain.CancelledStage for any of the cancellation tokens. Unknown tokens
// fall back to the first stage; no transition ordering is enforced.
func (s *TimelineService) MapStatus(status string) int {
	token := strings.ToLower(strings.TrimSpace(status))
	if _, ok := cancelledTokens[token]; ok {
		return domain.CancelledStage
	}
	if stage, ok := statusStages[token]; ok {
		return stage
	}
	return 0
}

// Timeline loads the order and builds its timeline view model.
func (s *TimelineService) Timeline(ctx context.Context, orderID string) (OrderTimeline, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return OrderTimeline{}, err
	}

	stage := s.MapStatus(order.Status)
	timeline := OrderTimeline{
		OrderID:      order.ID,
		Status:       order.Status,
		CurrentStage: stage,
	}

	if stage == domain.CancelledStage {
		timeline.Cancelled = true
		s.logger(ctx, "timeline_cancelled_order", map[string]any{"orderId": order.ID})
		return timeline, nil
	}

	stages := domain.FulfillmentStages()
	timeline.Stages = make([]TimelineStage, 0, len(stages))
	for i, def := range stages {
		timeline.Stages = append(timeline.Stages, TimelineStage{
			Key:         string(def.Key),
			Label:       def.Label,
			Description: def.Description,
			Reached:     i <= stage,
			Current:     i == stage,
		})
	}

	if !order.CreatedAt.IsZero() {
		estimate := order.CreatedAt.AddDate(0, 0, s.leadDays[stage])
		timeline.EstimatedDelivery = &estimate
		timeline.EstimateOnly = true
	}

	return timeline, nil
}
