package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
)

type stubUserService struct {
	query   []ports.QueryField
	created *domain.User
	getByID int
}

func (s *stubUserService) GetAllUsers(context.Context) ([]*domain.User, error) {
	return []*domain.User{{ID: 1, Username: "jdoe"}, {ID: 2, Username: "asmith"}}, nil
}

func (s *stubUserService) GetUserByID(_ context.Context, id int) (*domain.User, error) {
	s.getByID = id
	if id <= 0 {
		return nil, domain.NewError(domain.KindBadRequest, "the id is not valid")
	}
	return &domain.User{ID: id, Username: "jdoe"}, nil
}

func (s *stubUserService) GetUserByUniqueKey(_ context.Context, q []ports.QueryField) (*domain.User, error) {
	s.query = q
	return &domain.User{ID: 1, Username: q[0].Value}, nil
}

func (s *stubUserService) AuthenticateUser(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("not used")
}

func (s *stubUserService) AddNewUser(_ context.Context, u *domain.User) (*domain.User, error) {
	s.created = u
	out := *u
	out.ID = 10
	out.Password = ""
	return &out, nil
}

func (s *stubUserService) UpdateUser(context.Context, *domain.User) (bool, error) {
	return true, nil
}

func (s *stubUserService) DeleteUserByID(_ context.Context, id int) (bool, error) {
	if id == 3 {
		return false, domain.NewError(domain.KindConflict, "user 3 is referenced")
	}
	return true, nil
}

func TestUserHandler_List_All(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubUserService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users", nil), rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var users []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestUserHandler_List_QueryKeepsOrder(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users?username=j%20doe&email=a@example.com&id=4", nil), rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := []ports.QueryField{{Key: "username", Value: "j doe"}, {Key: "email", Value: "a@example.com"}, {Key: "id", Value: "4"}}
	if len(stub.query) != len(want) {
		t.Fatalf("expected %d fields, got %+v", len(want), stub.query)
	}
	for i := range want {
		if stub.query[i] != want[i] {
			t.Fatalf("field %d: expected %+v, got %+v", i, want[i], stub.query[i])
		}
	}
}

func TestUserHandler_Get_NonNumericID(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{}
	handler := NewUserHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/abc", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := handler.Get(c); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if stub.getByID != 0 {
		t.Fatalf("expected non-numeric id to map to 0, got %d", stub.getByID)
	}
}

func TestUserHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{}
	handler := NewUserHandler(stub)

	body := `{"username":"asmith","password":"pw","first_name":"Ann","last_name":"Smith","email":"ann@example.com","role":"manager"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", body), rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.created == nil || stub.created.FirstName != "Ann" || stub.created.Password != "pw" {
		t.Fatalf("payload not bound: %+v", stub.created)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, leaked := resp["password"]; leaked {
		t.Fatalf("password must not be rendered")
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubUserService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/users/2", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "true\n" {
		t.Fatalf("expected 200 true, got %d %q", rec.Code, rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/users/3", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := handler.Delete(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
