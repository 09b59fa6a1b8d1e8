package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ers-app/reimbursement-api/internal/api/middleware"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

type stubReimbService struct {
	updated  *domain.Reimbursement
	added    *domain.Reimbursement
	resolved *domain.Resolution
	filtered domain.ReimbursementType
}

func (s *stubReimbService) GetAllReimbursements(context.Context) ([]*domain.Reimbursement, error) {
	return []*domain.Reimbursement{{ID: 1}}, nil
}

func (s *stubReimbService) GetReimbursementByID(_ context.Context, id int) (*domain.Reimbursement, error) {
	if id <= 0 {
		return nil, domain.NewError(domain.KindBadRequest, "the id is not valid")
	}
	return &domain.Reimbursement{ID: id, Author: 2, Status: domain.StatusPending}, nil
}

func (s *stubReimbService) GetAllMyReimbursements(_ context.Context, authorID int) ([]*domain.Reimbursement, error) {
	return []*domain.Reimbursement{{ID: 1, Author: authorID}}, nil
}

func (s *stubReimbService) FilterReimbByType(_ context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error) {
	s.filtered = t
	return []*domain.Reimbursement{{ID: 1, Type: t}}, nil
}

func (s *stubReimbService) FilterReimbByStatus(_ context.Context, st domain.Status) ([]*domain.Reimbursement, error) {
	return []*domain.Reimbursement{{ID: 1, Status: st}}, nil
}

func (s *stubReimbService) AddNewReimbursement(_ context.Context, r *domain.Reimbursement) (*domain.Reimbursement, error) {
	s.added = r
	out := *r
	out.ID = 5
	out.Status = domain.StatusPending
	return &out, nil
}

func (s *stubReimbService) UpdateReimbursement(_ context.Context, r *domain.Reimbursement) (bool, error) {
	s.updated = r
	if r.ID == 1 {
		return false, domain.NewError(domain.KindConflict, "reimbursement 1 is approved and can no longer be updated")
	}
	return true, nil
}

func (s *stubReimbService) SetReimbursementStatus(_ context.Context, res *domain.Resolution) (bool, error) {
	s.resolved = res
	return true, nil
}

func (s *stubReimbService) ListReimbursementEvents(context.Context, int) ([]*domain.ReimbursementEvent, error) {
	return []*domain.ReimbursementEvent{}, nil
}

func TestReimbursementHandler_Create_DefaultsAuthorToCaller(t *testing.T) {
	e := newEcho()
	stub := &stubReimbService{}
	handler := NewReimbursementHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/reimbursements", `{"amount":42.5,"description":"lunch","type":3,"status":2}`), rec)
	c.Set(middleware.ContextPrincipal, &domain.Principal{ID: 7, Role: domain.RoleEmployee})

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.added.Author != 7 || stub.added.Type != domain.TypeFood || stub.added.Amount != 42.5 {
		t.Fatalf("unexpected candidate: %+v", stub.added)
	}
	if stub.added.Status != 0 {
		t.Fatalf("client-supplied status must not reach the service")
	}
}

func TestReimbursementHandler_Create_RequiresSession(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/reimbursements", `{}`), httptest.NewRecorder())
	if err := handler.Create(c); err == nil {
		t.Fatalf("expected an authentication error")
	}
}

func TestReimbursementHandler_Resolve_DefaultsResolverToCaller(t *testing.T) {
	e := newEcho()
	stub := &stubReimbService{}
	handler := NewReimbursementHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/reimbursements/status", `{"id":1,"status":2}`), rec)
	c.Set(middleware.ContextPrincipal, &domain.Principal{ID: 9, Role: domain.RoleManager})

	if err := handler.Resolve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.resolved.Resolver != 9 || stub.resolved.Status != domain.StatusApproved {
		t.Fatalf("unexpected resolution: %+v", stub.resolved)
	}
	if rec.Body.String() != "true\n" {
		t.Fatalf("expected true, got %q", rec.Body.String())
	}
}

func TestReimbursementHandler_ByType_ParsesParam(t *testing.T) {
	e := newEcho()
	stub := &stubReimbService{}
	handler := NewReimbursementHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/reimbursements/filtertype/2", nil), httptest.NewRecorder())
	c.SetParamNames("type")
	c.SetParamValues("2")

	if err := handler.ByType(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.filtered != domain.TypeTravel {
		t.Fatalf("expected travel, got %s", stub.filtered)
	}
}

func TestReimbursementHandler_Update_PropagatesConflict(t *testing.T) {
	e := newEcho()
	handler := NewReimbursementHandler(&stubReimbService{})

	c := e.NewContext(jsonRequest(http.MethodPut, "/reimbursements", `{"id":1,"amount":5,"description":"x","author":2,"type":1}`), httptest.NewRecorder())
	c.Set(middleware.ContextPrincipal, &domain.Principal{ID: 2, Role: domain.RoleEmployee})
	if err := handler.Update(c); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReimbursementHandler_Update_SubmitterOnly(t *testing.T) {
	e := newEcho()
	stub := &stubReimbService{}
	handler := NewReimbursementHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPut, "/reimbursements", `{"id":3,"amount":5,"description":"x","author":7,"type":1}`), httptest.NewRecorder())
	c.Set(middleware.ContextPrincipal, &domain.Principal{ID: 7, Role: domain.RoleManager})

	if err := handler.Update(c); domain.KindOf(err) != domain.KindAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if stub.updated != nil {
		t.Fatalf("service must not be called for a non-submitter")
	}
}

func TestReimbursementHandler_Update_DefaultsAuthorToCaller(t *testing.T) {
	e := newEcho()
	stub := &stubReimbService{}
	handler := NewReimbursementHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/reimbursements", `{"id":3,"amount":8,"description":"hotel","type":1}`), rec)
	c.Set(middleware.ContextPrincipal, &domain.Principal{ID: 2, Role: domain.RoleEmployee})

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.updated == nil || stub.updated.Author != 2 || stub.updated.Amount != 8 {
		t.Fatalf("unexpected candidate: %+v", stub.updated)
	}
	if rec.Body.String() != "true\n" {
		t.Fatalf("expected true, got %q", rec.Body.String())
	}
}
