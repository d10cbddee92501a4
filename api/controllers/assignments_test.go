package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/api/middleware"
	"github.com/angelmondragon/installerz-backend/internal/assignments"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/pagination"
)

type testAssignmentsService struct {
	createFn       func(ctx context.Context, input assignments.CreateInput) (*assignments.View, error)
	rescheduleFn   func(ctx context.Context, input assignments.RescheduleInput) (*assignments.View, error)
	cancelFn       func(ctx context.Context, input assignments.CancelInput) (*assignments.View, error)
	startFn        func(ctx context.Context, input assignments.StartInput) (*assignments.View, error)
	completeSlotFn func(ctx context.Context, input assignments.CompleteSlotInput) (*assignments.CompletionResult, error)
	getFn          func(ctx context.Context, id uuid.UUID) (*assignments.View, error)
	getByOrderFn   func(ctx context.Context, orderID uuid.UUID) (*assignments.View, error)
	listFn         func(ctx context.Context, params pagination.Params, filters assignments.ListFilters) ([]assignments.View, string, error)
	scheduleFn     func(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]assignments.SlotView, error)
}

func (s *testAssignmentsService) Create(ctx context.Context, input assignments.CreateInput) (*assignments.View, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) Reschedule(ctx context.Context, input assignments.RescheduleInput) (*assignments.View, error) {
	if s.rescheduleFn != nil {
		return s.rescheduleFn(ctx, input)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) Cancel(ctx context.Context, input assignments.CancelInput) (*assignments.View, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) Start(ctx context.Context, input assignments.StartInput) (*assignments.View, error) {
	if s.startFn != nil {
		return s.startFn(ctx, input)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) CompleteSlot(ctx context.Context, input assignments.CompleteSlotInput) (*assignments.CompletionResult, error) {
	if s.completeSlotFn != nil {
		return s.completeSlotFn(ctx, input)
	}
	return &assignments.CompletionResult{}, nil
}

func (s *testAssignmentsService) Get(ctx context.Context, id uuid.UUID) (*assignments.View, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*assignments.View, error) {
	if s.getByOrderFn != nil {
		return s.getByOrderFn(ctx, orderID)
	}
	return &assignments.View{}, nil
}

func (s *testAssignmentsService) List(ctx context.Context, params pagination.Params, filters assignments.ListFilters) ([]assignments.View, string, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return nil, "", nil
}

func (s *testAssignmentsService) InstallerSchedule(ctx context.Context, installerID uuid.UUID, from, to time.Time) ([]assignments.SlotView, error) {
	if s.scheduleFn != nil {
		return s.scheduleFn(ctx, installerID, from, to)
	}
	return nil, nil
}

func authedRequest(method, target string, body string, role enums.ActorRole) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestAssignmentCreateSuccess(t *testing.T) {
	orderID := uuid.New()
	installerID := uuid.New()
	var captured assignments.CreateInput
	svc := &testAssignmentsService{
		createFn: func(ctx context.Context, input assignments.CreateInput) (*assignments.View, error) {
			captured = input
			return &assignments.View{ID: uuid.New(), OrderID: input.OrderID}, nil
		},
	}

	body := `{"order_id":"` + orderID.String() + `","slots":[{"installer_id":"` + installerID.String() + `","date":"2026-09-14","start_time":"09:00","end_time":"12:00"}]}`
	req := authedRequest(http.MethodPost, "/api/v1/assignments", body, enums.RoleScheduler)
	resp := httptest.NewRecorder()
	AssignmentCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != orderID {
		t.Fatalf("expected order %s got %s", orderID, captured.OrderID)
	}
	if len(captured.Slots) != 1 || captured.Slots[0].InstallerID != installerID {
		t.Fatalf("unexpected slots %+v", captured.Slots)
	}
	if captured.Slots[0].Start == nil || captured.Slots[0].Start.String() != "09:00" {
		t.Fatalf("expected start 09:00 got %v", captured.Slots[0].Start)
	}
}

func TestAssignmentCreateRejectsBadDate(t *testing.T) {
	svc := &testAssignmentsService{
		createFn: func(ctx context.Context, input assignments.CreateInput) (*assignments.View, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{"order_id":"` + uuid.NewString() + `","slots":[{"installer_id":"` + uuid.NewString() + `","date":"14/09/2026"}]}`
	req := authedRequest(http.MethodPost, "/api/v1/assignments", body, enums.RoleScheduler)
	resp := httptest.NewRecorder()
	AssignmentCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAssignmentCreateRequiresAuthContext(t *testing.T) {
	svc := &testAssignmentsService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	AssignmentCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAssignmentCreateMapsConflict(t *testing.T) {
	svc := &testAssignmentsService{
		createFn: func(ctx context.Context, input assignments.CreateInput) (*assignments.View, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "installer already booked in requested window")
		},
	}

	body := `{"order_id":"` + uuid.NewString() + `","slots":[{"installer_id":"` + uuid.NewString() + `","date":"2026-09-14"}]}`
	req := authedRequest(http.MethodPost, "/api/v1/assignments", body, enums.RoleScheduler)
	resp := httptest.NewRecorder()
	AssignmentCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAssignmentCancelPassesReason(t *testing.T) {
	assignmentID := uuid.New()
	var captured assignments.CancelInput
	svc := &testAssignmentsService{
		cancelFn: func(ctx context.Context, input assignments.CancelInput) (*assignments.View, error) {
			captured = input
			return &assignments.View{ID: input.AssignmentID, Status: enums.AssignmentStatusCancelled}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/assignments/"+assignmentID.String()+"/cancel",
		`{"reason":"customer moved"}`, enums.RoleScheduler)
	req = withURLParam(req, "assignmentId", assignmentID.String())
	resp := httptest.NewRecorder()
	AssignmentCancel(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.AssignmentID != assignmentID {
		t.Fatalf("expected assignment %s got %s", assignmentID, captured.AssignmentID)
	}
	if captured.Reason != "customer moved" {
		t.Fatalf("expected reason propagated, got %q", captured.Reason)
	}
}

func TestAssignmentCompleteSlotMapsLockTimeout(t *testing.T) {
	assignmentID := uuid.New()
	svc := &testAssignmentsService{
		completeSlotFn: func(ctx context.Context, input assignments.CompleteSlotInput) (*assignments.CompletionResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeLockTimeout, "assignment row is busy")
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/assignments/"+assignmentID.String()+"/complete-slot",
		`{"installer_id":"`+uuid.NewString()+`"}`, enums.RoleInstaller)
	req = withURLParam(req, "assignmentId", assignmentID.String())
	resp := httptest.NewRecorder()
	AssignmentCompleteSlot(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAssignmentDetailRejectsBadID(t *testing.T) {
	svc := &testAssignmentsService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/not-a-uuid", nil)
	req = withURLParam(req, "assignmentId", "not-a-uuid")
	resp := httptest.NewRecorder()
	AssignmentDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAssignmentListParsesFilters(t *testing.T) {
	installerID := uuid.New()
	var capturedFilters assignments.ListFilters
	var capturedParams pagination.Params
	svc := &testAssignmentsService{
		listFn: func(ctx context.Context, params pagination.Params, filters assignments.ListFilters) ([]assignments.View, string, error) {
			capturedParams = params
			capturedFilters = filters
			return []assignments.View{{ID: uuid.New()}}, "next", nil
		},
	}

	target := "/api/v1/assignments?limit=5&status=planned&installer_id=" + installerID.String()
	req := authedRequest(http.MethodGet, target, "", enums.RoleScheduler)
	resp := httptest.NewRecorder()
	AssignmentList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if capturedParams.Limit != 5 {
		t.Fatalf("expected limit 5 got %d", capturedParams.Limit)
	}
	if capturedFilters.Status == nil || *capturedFilters.Status != "planned" {
		t.Fatalf("expected status filter planned")
	}
	if capturedFilters.InstallerID == nil || *capturedFilters.InstallerID != installerID {
		t.Fatalf("expected installer filter")
	}

	var payload struct {
		Data struct {
			NextCursor string `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.NextCursor != "next" {
		t.Fatalf("expected cursor in response, got %q", payload.Data.NextCursor)
	}
}
