package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/middleware"
	"github.com/monocle-dev/taskboard/internal/types"
)

func newContext(params gin.Params) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Params = params
	return ctx
}

func TestGetTaskID(t *testing.T) {
	ctx := newContext(gin.Params{{Key: "task_id", Value: "42"}})
	id, err := GetTaskID(ctx)
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}

	for _, raw := range []string{"", "abc", "0", "-3"} {
		ctx := newContext(gin.Params{{Key: "task_id", Value: raw}})
		if _, err := GetTaskID(ctx); !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
	}
}

func TestGetItemIndex(t *testing.T) {
	ctx := newContext(gin.Params{{Key: "item_index", Value: "0"}})
	index, err := GetItemIndex(ctx)
	if err != nil || index != 0 {
		t.Fatalf("expected 0, got %d (%v)", index, err)
	}

	ctx = newContext(gin.Params{{Key: "item_index", Value: "-1"}})
	if index, err := GetItemIndex(ctx); err != nil || index != -1 {
		t.Fatalf("expected -1 to be passed through, got %d (%v)", index, err)
	}

	ctx = newContext(gin.Params{{Key: "item_index", Value: "first"}})
	if _, err := GetItemIndex(ctx); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetCurrentUser(t *testing.T) {
	ctx := newContext(nil)
	if _, err := GetCurrentUserID(ctx); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}

	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{ID: 7, Email: "a@x.com"})
	id, err := GetCurrentUserID(ctx)
	if err != nil || id != 7 {
		t.Fatalf("expected 7, got %d (%v)", id, err)
	}

	if _, err := GetClaims(ctx); err == nil {
		t.Fatalf("expected missing claims to fail")
	}
}
