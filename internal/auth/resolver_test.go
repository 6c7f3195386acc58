package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thomas-Okram/TapTell/internal/crypto"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type fakeAdmins map[string]model.Admin

func (f fakeAdmins) GetAdminByKeyID(_ context.Context, keyID string) (model.Admin, error) {
	admin, ok := f[keyID]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return admin, nil
}

func strPtr(v string) *string { return &v }

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	hash, err := crypto.HashSecret("topsecret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	admins := fakeAdmins{
		"k_school": {ID: "admin-2", Role: model.RoleSchoolAdmin, SchoolID: strPtr("school-9"), APIKeyID: strPtr("k_school"), APIKeyHash: &hash, Active: true},
		"k_broken": {ID: "admin-3", Role: model.RoleSchoolAdmin, APIKeyID: strPtr("k_broken"), APIKeyHash: &hash, Active: true},
		"k_off":    {ID: "admin-4", Role: model.RoleSchoolAdmin, SchoolID: strPtr("school-9"), APIKeyID: strPtr("k_off"), APIKeyHash: &hash, Active: false},
	}
	return NewResolver(
		StaticKeyResolver{Key: "super-key"},
		TokenResolver{Secret: secretK1},
		LegacyKeyResolver{Admins: admins},
	), hash
}

func TestResolveStaticKey(t *testing.T) {
	resolver, _ := newTestResolver(t)
	principal, err := resolver.Resolve(context.Background(), " super-key ")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !principal.IsSuperAdmin() || principal.AdminID() != "" {
		t.Fatalf("expected anonymous super admin, got %+v", principal)
	}
}

func TestResolveToken(t *testing.T) {
	resolver, _ := newTestResolver(t)
	token, err := SignToken(secretK1, NewClaims("admin-1", model.RoleSchoolAdmin, "school-1", time.Now(), time.Hour))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	principal, err := resolver.Resolve(context.Background(), TokenPrefix+token)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if principal.Role() != model.RoleSchoolAdmin || principal.SchoolID() != "school-1" || principal.AdminID() != "admin-1" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	unscoped, _ := SignToken(secretK1, NewClaims("admin-1", model.RoleSchoolAdmin, "", time.Now(), time.Hour))
	if _, err := resolver.Resolve(context.Background(), TokenPrefix+unscoped); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected invalid scope, got %v", err)
	}

	foreign, _ := SignToken(secretK2, NewClaims("admin-1", model.RoleSuperAdmin, "", time.Now(), time.Hour))
	if _, err := resolver.Resolve(context.Background(), TokenPrefix+foreign); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}

	other, _ := SignToken(secretK1, NewClaims("admin-5", model.Role("AUDITOR"), "", time.Now(), time.Hour))
	principal, err = resolver.Resolve(context.Background(), TokenPrefix+other)
	if err != nil || !principal.IsSuperAdmin() {
		t.Fatalf("expected non school role to resolve as super admin, got %+v %v", principal, err)
	}
}

func TestResolveLegacyKey(t *testing.T) {
	resolver, _ := newTestResolver(t)
	ctx := context.Background()

	principal, err := resolver.Resolve(ctx, crypto.FormatLegacyKey("k_school", "topsecret"))
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if principal.SchoolID() != "school-9" || principal.AdminID() != "admin-2" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	cases := map[string]error{
		"sa_k_school.wrong":     ErrInvalidCredential,
		"sa_missing.topsecret":  ErrInvalidCredential,
		"sa_nodot":              ErrMalformedKey,
		"sa_.topsecret":         ErrMalformedKey,
		"sa_k_off.topsecret":    ErrInvalidCredential,
		"sa_k_broken.topsecret": ErrMisconfiguredAdmin,
		"random-garbage":        ErrInvalidCredential,
		"   ":                   ErrMissingCredential,
	}
	for credential, want := range cases {
		if _, err := resolver.Resolve(ctx, credential); !errors.Is(err, want) {
			t.Fatalf("credential %q: expected %v, got %v", credential, want, err)
		}
	}
}

func TestSchoolAdminRequiresSchool(t *testing.T) {
	if _, err := SchoolAdmin("admin-1", ""); !errors.Is(err, ErrPrincipalMissingSchool) {
		t.Fatalf("expected missing school error, got %v", err)
	}
	var zero Principal
	if zero.Valid() {
		t.Fatalf("zero principal must not be valid")
	}
}
