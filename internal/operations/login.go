package operations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Thomas-Okram/TapTell/internal/auth"
	"github.com/Thomas-Okram/TapTell/internal/crypto"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type LoginResult struct {
	Admin     model.Admin
	School    model.School
	Token     string
	ExpiresAt time.Time
}

// LoginWithPIN exchanges a school code and PIN for a SCHOOL_ADMIN token.
// Every active PIN admin of the school is tried in creation order.
func (s *Service) LoginWithPIN(ctx context.Context, schoolCode, pin string) (LoginResult, error) {
	schoolCode = strings.ToUpper(strings.TrimSpace(schoolCode))
	pin = strings.TrimSpace(pin)
	if schoolCode == "" || pin == "" {
		return LoginResult{}, validationError("schoolCode and pin are required")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, schoolCode)
		if err != nil {
			s.logger.Warn("login throttle unavailable", "err", err)
		} else if !allowed {
			metrics.LoginThrottled.Inc()
			return LoginResult{}, &Error{Kind: KindRateLimited, Message: "Too many login attempts, try again later"}
		}
	}

	school, err := s.store.GetSchoolByCode(ctx, schoolCode)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !school.Active) {
		return LoginResult{}, authenticationError("Invalid school code / inactive")
	}
	if err != nil {
		return LoginResult{}, internalError(err)
	}

	admins, err := s.store.ListPinAdmins(ctx, school.ID)
	if err != nil {
		return LoginResult{}, internalError(err)
	}
	if len(admins) == 0 {
		return LoginResult{}, authenticationError("No PIN admins configured for this school")
	}

	var matched *model.Admin
	for i := range admins {
		if admins[i].PinHash == nil {
			continue
		}
		if crypto.CheckSecret(*admins[i].PinHash, pin) == nil {
			matched = &admins[i]
			break
		}
	}
	if matched == nil {
		if s.limiter != nil {
			if err := s.limiter.Fail(ctx, schoolCode); err != nil {
				s.logger.Warn("failed to record login attempt", "err", err)
			}
		}
		return LoginResult{}, authenticationError("Invalid PIN")
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, schoolCode); err != nil {
			s.logger.Warn("failed to reset login attempts", "err", err)
		}
	}

	claims := auth.NewClaims(matched.ID, model.RoleSchoolAdmin, school.ID, s.now(), s.tokenTTL)
	signed, err := auth.SignToken(s.tokenSecret, claims)
	if err != nil {
		return LoginResult{}, internalError(err)
	}
	return LoginResult{
		Admin:     *matched,
		School:    school,
		Token:     auth.TokenPrefix + signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// AuthenticateDevice resolves an x-device-key to an active device.
func (s *Service) AuthenticateDevice(ctx context.Context, key string) (model.Device, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.Device{}, authenticationError("Missing x-device-key")
	}
	device, err := s.store.GetActiveDeviceByKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Device{}, authenticationError("Invalid device key")
	}
	if err != nil {
		return model.Device{}, internalError(err)
	}
	return device, nil
}
