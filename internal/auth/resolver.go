package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/crypto"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

var (
	ErrMissingCredential  = errors.New("missing admin credential")
	ErrInvalidCredential  = errors.New("invalid admin credential")
	ErrInvalidScope       = errors.New("invalid token scope")
	ErrMisconfiguredAdmin = errors.New("admin misconfigured: missing schoolId")
	// ErrMalformedKey is an sa_ key without a keyId.secret pair.
	ErrMalformedKey = fmt.Errorf("%w: malformed key", ErrInvalidCredential)
)

// CredentialResolver reports ok=false when the credential is not its kind,
// so the next resolver in the chain gets a turn.
type CredentialResolver interface {
	Resolve(ctx context.Context, credential string) (Principal, bool, error)
}

type Resolver struct {
	chain []CredentialResolver
}

func NewResolver(chain ...CredentialResolver) *Resolver {
	return &Resolver{chain: chain}
}

func (r *Resolver) Resolve(ctx context.Context, credential string) (Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Principal{}, ErrMissingCredential
	}
	for _, resolver := range r.chain {
		principal, ok, err := resolver.Resolve(ctx, credential)
		if err != nil {
			return Principal{}, err
		}
		if ok {
			return principal, nil
		}
	}
	return Principal{}, ErrInvalidCredential
}

type StaticKeyResolver struct {
	Key string
}

func (s StaticKeyResolver) Resolve(_ context.Context, credential string) (Principal, bool, error) {
	if s.Key == "" {
		return Principal{}, false, nil
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(s.Key)) != 1 {
		return Principal{}, false, nil
	}
	return SuperAdmin(""), true, nil
}

type TokenResolver struct {
	Secret string
}

func (t TokenResolver) Resolve(_ context.Context, credential string) (Principal, bool, error) {
	raw, ok := strings.CutPrefix(credential, TokenPrefix)
	if !ok {
		return Principal{}, false, nil
	}
	claims, err := VerifyToken(t.Secret, raw)
	if err != nil {
		return Principal{}, false, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if claims.Role != model.RoleSchoolAdmin {
		return SuperAdmin(claims.Subject), true, nil
	}
	principal, err := SchoolAdmin(claims.Subject, claims.SchoolID)
	if err != nil {
		return Principal{}, false, ErrInvalidScope
	}
	return principal, true, nil
}

type AdminKeyLookup interface {
	GetAdminByKeyID(ctx context.Context, keyID string) (model.Admin, error)
}

// LegacyKeyResolver accepts sa_<keyId>.<secret> keys issued before PIN login.
type LegacyKeyResolver struct {
	Admins AdminKeyLookup
}

func (l LegacyKeyResolver) Resolve(ctx context.Context, credential string) (Principal, bool, error) {
	rest, ok := strings.CutPrefix(credential, crypto.LegacyKeyPrefix)
	if !ok {
		return Principal{}, false, nil
	}
	dot := strings.Index(rest, ".")
	if dot <= 0 {
		return Principal{}, false, ErrMalformedKey
	}
	keyID := strings.TrimSpace(rest[:dot])
	secret := strings.TrimSpace(rest[dot+1:])

	admin, err := l.Admins.GetAdminByKeyID(ctx, keyID)
	if errors.Is(err, repository.ErrNotFound) {
		return Principal{}, false, ErrInvalidCredential
	}
	if err != nil {
		return Principal{}, false, fmt.Errorf("lookup admin key: %w", err)
	}
	if !admin.Active || admin.APIKeyHash == nil {
		return Principal{}, false, ErrInvalidCredential
	}
	if err := crypto.CheckSecret(*admin.APIKeyHash, secret); err != nil {
		return Principal{}, false, ErrInvalidCredential
	}

	if admin.Role != model.RoleSchoolAdmin {
		return SuperAdmin(admin.ID), true, nil
	}
	if admin.SchoolID == nil {
		return Principal{}, false, ErrMisconfiguredAdmin
	}
	principal, err := SchoolAdmin(admin.ID, *admin.SchoolID)
	if err != nil {
		return Principal{}, false, ErrMisconfiguredAdmin
	}
	return principal, true, nil
}
