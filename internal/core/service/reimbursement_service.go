package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
	"github.com/ers-app/reimbursement-api/internal/core/validation"
)

type reimbursementService struct {
	repo   ports.ReimbursementRepository
	events ports.EventRepository
	now    func() time.Time
	log    zerolog.Logger
}

// Option customises a reimbursementService.
type Option func(*reimbursementService)

// WithClock replaces the wall clock used to stamp submissions and resolutions.
func WithClock(now func() time.Time) Option {
	return func(s *reimbursementService) { s.now = now }
}

// NewReimbursementService returns a ReimbursementService implementation.
func NewReimbursementService(
	repo ports.ReimbursementRepository,
	events ports.EventRepository,
	log zerolog.Logger,
	opts ...Option,
) ports.ReimbursementService {
	s := &reimbursementService{
		repo:   repo,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reimbursementService) GetAllReimbursements(ctx context.Context) ([]*domain.Reimbursement, error) {
	reimbs, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(reimbs) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "there aren't any reimbursements")
	}
	return reimbs, nil
}

func (s *reimbursementService) GetReimbursementByID(ctx context.Context, id int) (*domain.Reimbursement, error) {
	if !validation.IsValidID(id) {
		return nil, domain.NewError(domain.KindBadRequest, "the id is not valid")
	}

	reimb, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewError(domain.KindNotFound, "there is no reimbursement with id %d", id)
	}
	return reimb, nil
}

func (s *reimbursementService) GetAllMyReimbursements(ctx context.Context, authorID int) ([]*domain.Reimbursement, error) {
	if !validation.IsValidID(authorID) {
		return nil, domain.NewError(domain.KindBadRequest, "the author id is not valid")
	}

	reimbs, err := s.repo.GetAllByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if len(reimbs) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "author %d has no reimbursements", authorID)
	}
	return reimbs, nil
}

func (s *reimbursementService) FilterReimbByType(ctx context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error) {
	if !validation.IsValidID(int(t)) {
		return nil, domain.NewError(domain.KindBadRequest, "the reimbursement type is not valid")
	}

	reimbs, err := s.repo.FilterByType(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(reimbs) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "there are no reimbursements of type %d", int(t))
	}
	return reimbs, nil
}

func (s *reimbursementService) FilterReimbByStatus(ctx context.Context, st domain.Status) ([]*domain.Reimbursement, error) {
	if !validation.IsValidID(int(st)) {
		return nil, domain.NewError(domain.KindBadRequest, "the reimbursement status is not valid")
	}

	reimbs, err := s.repo.FilterByStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	if len(reimbs) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "there are no reimbursements with status %d", int(st))
	}
	return reimbs, nil
}

// AddNewReimbursement persists a new Pending reimbursement. Lifecycle fields
// supplied by the caller are ignored.
func (s *reimbursementService) AddNewReimbursement(ctx context.Context, candidate *domain.Reimbursement) (*domain.Reimbursement, error) {
	if err := validation.ValidateObject(candidate, "ID"); err != nil {
		return nil, domain.NewError(domain.KindBadRequest, "invalid reimbursement: %v", err)
	}

	reimb := &domain.Reimbursement{
		Amount:      candidate.Amount,
		Submitted:   s.now(),
		Description: candidate.Description,
		Author:      candidate.Author,
		Status:      domain.StatusPending,
		Type:        candidate.Type,
	}

	persisted, err := s.repo.AddNew(ctx, reimb)
	if err != nil {
		return nil, err
	}

	s.record(ctx, persisted.ID, domain.ActionSubmitted, domain.StatusPending, persisted.Author)
	s.log.Info().Int("reimbursement_id", persisted.ID).Int("author", persisted.Author).Msg("reimbursement submitted")
	return persisted, nil
}

func (s *reimbursementService) UpdateReimbursement(ctx context.Context, candidate *domain.Reimbursement) (bool, error) {
	if err := validation.ValidateObject(candidate); err != nil {
		return false, domain.NewError(domain.KindBadRequest, "invalid reimbursement: %v", err)
	}

	updated, err := s.repo.Update(ctx, candidate)
	if err != nil {
		return false, err
	}
	if !updated {
		return false, s.classifyMiss(ctx, candidate.ID, "updated")
	}

	s.record(ctx, candidate.ID, domain.ActionUpdated, domain.StatusPending, candidate.Author)
	return true, nil
}

// SetReimbursementStatus resolves a pending reimbursement to Approved or Denied.
func (s *reimbursementService) SetReimbursementStatus(ctx context.Context, res *domain.Resolution) (bool, error) {
	if err := validation.ValidateObject(res); err != nil {
		return false, domain.NewError(domain.KindBadRequest, "invalid resolution: %v", err)
	}

	resolved, err := s.repo.SetStatus(ctx, *res, s.now())
	if err != nil {
		return false, err
	}
	if !resolved {
		return false, s.classifyMiss(ctx, res.ID, "resolved")
	}

	s.record(ctx, res.ID, domain.ActionResolved, res.Status, res.Resolver)
	s.log.Info().
		Int("reimbursement_id", res.ID).
		Str("status", res.Status.String()).
		Int("resolver", res.Resolver).
		Msg("reimbursement resolved")
	return true, nil
}

func (s *reimbursementService) ListReimbursementEvents(ctx context.Context, id int) ([]*domain.ReimbursementEvent, error) {
	if _, err := s.GetReimbursementByID(ctx, id); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []*domain.ReimbursementEvent{}, nil
	}
	return s.events.ListEvents(ctx, id)
}

// classifyMiss turns a conditional write that matched nothing into NotFound
// or Conflict.
func (s *reimbursementService) classifyMiss(ctx context.Context, id int, verb string) error {
	current, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewError(domain.KindNotFound, "there is no reimbursement with id %d", id)
	}
	return domain.NewError(domain.KindConflict, "reimbursement %d is %s and can no longer be %s", id, current.Status, verb)
}

// record appends to the audit trail. Failures are logged only.
func (s *reimbursementService) record(ctx context.Context, id int, action string, st domain.Status, actor int) {
	if s.events == nil {
		return
	}
	ev := &domain.ReimbursementEvent{
		ReimbursementID: id,
		Action:          action,
		Status:          st,
		ActorID:         actor,
		OccurredAt:      s.now(),
	}
	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int("reimbursement_id", id).Str("action", action).Msg("failed to insert audit event")
	}
}
