package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const (
	schoolA = "11111111-1111-1111-1111-111111111111"
	schoolB = "22222222-2222-2222-2222-222222222222"
)

// fakeSchools is keyed by school code.
type fakeSchools map[string]model.School

func (f fakeSchools) GetSchool(_ context.Context, id string) (model.School, error) {
	for _, school := range f {
		if school.ID == id {
			return school, nil
		}
	}
	return model.School{}, repository.ErrNotFound
}

func (f fakeSchools) GetSchoolByCode(_ context.Context, code string) (model.School, error) {
	school, ok := f[code]
	if !ok {
		return model.School{}, repository.ErrNotFound
	}
	return school, nil
}

func TestScopeSchoolAdminIgnoresParameters(t *testing.T) {
	principal, err := SchoolAdmin("admin-1", schoolA)
	if err != nil {
		t.Fatalf("principal error: %v", err)
	}
	got, err := ResolveScope(context.Background(), principal, ScopeRequest{QuerySchoolID: schoolB, BodySchoolID: schoolB, SchoolCode: "OTHER", AllowCode: true}, nil)
	if err != nil {
		t.Fatalf("scope error: %v", err)
	}
	if got != schoolA {
		t.Fatalf("expected bound school %s, got %s", schoolA, got)
	}
}

func TestScopeSuperAdmin(t *testing.T) {
	ctx := context.Background()
	super := SuperAdmin("")
	schools := fakeSchools{"GVS": {ID: schoolA, Code: "GVS"}, "DPS": {ID: schoolB, Code: "DPS"}}

	got, err := ResolveScope(ctx, super, ScopeRequest{QuerySchoolID: schoolA, BodySchoolID: schoolB}, schools)
	if err != nil || got != schoolA {
		t.Fatalf("expected query school first, got %s %v", got, err)
	}
	got, err = ResolveScope(ctx, super, ScopeRequest{BodySchoolID: schoolB}, schools)
	if err != nil || got != schoolB {
		t.Fatalf("expected body school, got %s %v", got, err)
	}
	if _, err := ResolveScope(ctx, super, ScopeRequest{}, schools); !errors.Is(err, ErrSchoolRequired) {
		t.Fatalf("expected school required, got %v", err)
	}
	if _, err := ResolveScope(ctx, super, ScopeRequest{QuerySchoolID: "not-a-uuid"}, schools); !errors.Is(err, ErrInvalidSchoolID) {
		t.Fatalf("expected invalid school id, got %v", err)
	}
	if _, err := ResolveScope(ctx, super, ScopeRequest{SchoolCode: "DPS"}, schools); !errors.Is(err, ErrSchoolRequired) {
		t.Fatalf("expected code to be refused without AllowCode, got %v", err)
	}
	got, err = ResolveScope(ctx, super, ScopeRequest{SchoolCode: " dps ", AllowCode: true}, schools)
	if err != nil || got != schoolB {
		t.Fatalf("expected code lookup, got %s %v", got, err)
	}
	if _, err := ResolveScope(ctx, super, ScopeRequest{SchoolCode: "NOPE", AllowCode: true}, schools); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected unknown school, got %v", err)
	}
	if _, err := ResolveScope(ctx, super, ScopeRequest{AllowCode: true}, schools); !errors.Is(err, ErrScopeNotResolved) {
		t.Fatalf("expected unresolved scope, got %v", err)
	}
}

func TestScopeSuperAdminUnknownSchool(t *testing.T) {
	ctx := context.Background()
	schools := fakeSchools{"DPS": {ID: schoolB, Code: "DPS"}}
	missing := "33333333-3333-4333-8333-333333333333"

	if _, err := ResolveScope(ctx, SuperAdmin(""), ScopeRequest{QuerySchoolID: missing}, schools); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected unknown school id to be refused, got %v", err)
	}
	if _, err := ResolveScope(ctx, SuperAdmin(""), ScopeRequest{BodySchoolID: missing, AllowCode: true}, schools); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected unknown body school to be refused, got %v", err)
	}
	if _, err := ResolveScope(ctx, SuperAdmin(""), ScopeRequest{QuerySchoolID: schoolB}, nil); !errors.Is(err, ErrScopeNotResolved) {
		t.Fatalf("expected scope without lookup to be unresolved, got %v", err)
	}
}
