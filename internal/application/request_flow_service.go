package application

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/availability"
)

// RequestFlowOptions configures the guest request flow service.
type RequestFlowOptions struct {
	EndInterval int
	TTL         time.Duration
	MaxFlows    int
	IDGenerator func() string
	Now         func() time.Time
	Logger      *zap.Logger
}

// RequestFlowService opens guest booking dialogs and routes operations to them.
type RequestFlowService struct {
	api         BookingAPI
	engine      *availability.Engine
	endInterval int
	registry    *flowRegistry
	idGenerator func() string
	logger      *zap.Logger
}

// NewRequestFlowService wires dependencies for guest booking requests.
func NewRequestFlowService(api BookingAPI, engine *availability.Engine, opts RequestFlowOptions) *RequestFlowService {
	if engine == nil {
		engine = availability.NewEngine(nil)
	}
	idGenerator := opts.IDGenerator
	if idGenerator == nil {
		var n atomic.Uint64
		idGenerator = func() string {
			return fmt.Sprintf("flow-%d", n.Add(1))
		}
	}
	return &RequestFlowService{
		api:         api,
		engine:      engine,
		endInterval: opts.EndInterval,
		registry:    newFlowRegistry(opts.TTL, opts.MaxFlows, opts.Now),
		idGenerator: idGenerator,
		logger:      defaultLogger(opts.Logger),
	}
}

func (s *RequestFlowService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "RequestFlowService", operation, fields...)
}

// Open starts a dialog for listing and loads its calendar.
func (s *RequestFlowService) Open(ctx context.Context, listing ListingRef) (snap FlowSnapshot, err error) {
	logger := s.loggerWith(ctx, "Open", zap.String("listing_id", listing.ID))
	defer func() {
		logResult(logger, err, "failed to open booking request", "booking request opened", zap.String("flow_id", snap.ID))
	}()

	vErr := &ValidationError{}
	listing.validate(vErr)
	if vErr.HasErrors() {
		return FlowSnapshot{}, vErr
	}
	if s.api == nil {
		return FlowSnapshot{}, fmt.Errorf("booking api not configured")
	}

	flow := newRequestFlow(s.idGenerator(), listing, s.api, s.engine, s.endInterval, logger)
	if err := flow.load(ctx); err != nil {
		return FlowSnapshot{}, err
	}
	s.registry.Store(flow)
	return flow.Snapshot(), nil
}

// Get returns the current state of a dialog.
func (s *RequestFlowService) Get(id string) (FlowSnapshot, error) {
	flow, err := s.flow(id)
	if err != nil {
		return FlowSnapshot{}, err
	}
	return flow.Snapshot(), nil
}

// SelectDate sets the dialog's date.
func (s *RequestFlowService) SelectDate(ctx context.Context, id string, date time.Time) (FlowSnapshot, error) {
	flow, err := s.flow(id)
	if err != nil {
		return FlowSnapshot{}, err
	}
	return flow.SelectDate(ctx, date)
}

// SelectTimes sets the dialog's time range.
func (s *RequestFlowService) SelectTimes(id string, sel TimeSelection) (FlowSnapshot, error) {
	flow, err := s.flow(id)
	if err != nil {
		return FlowSnapshot{}, err
	}
	return flow.SelectTimes(sel)
}

// Submit sends the dialog's booking request on behalf of principal.
func (s *RequestFlowService) Submit(ctx context.Context, principal Principal, id string) (snap FlowSnapshot, err error) {
	logger := s.loggerWith(ctx, "Submit", zap.String("flow_id", id), zap.String("principal_id", principal.UserID))
	defer func() {
		logResult(logger, err, "failed to submit booking request", "booking request confirmed")
	}()

	flow, err := s.flow(id)
	if err != nil {
		return FlowSnapshot{}, err
	}
	return flow.Submit(ctx, principal)
}

// Close abandons a dialog.
func (s *RequestFlowService) Close(id string) error {
	if !s.registry.Remove(id) {
		return ErrNotFound
	}
	return nil
}

func (s *RequestFlowService) flow(id string) (*RequestFlow, error) {
	flow, ok := s.registry.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return flow, nil
}
