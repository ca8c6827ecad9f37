package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"playlist_service/internal/auth"
	"playlist_service/internal/authz"
	"playlist_service/internal/models"
	"playlist_service/internal/storage"

	"github.com/gofrs/uuid"
)

const pinInUseMessage = "PIN already used by another of your profiles"

type ProfileInput struct {
	FullName string `json:"full_name" validate:"required,notblank"`
	Pin      string `json:"pin" validate:"required,notblank"`
	Avatar   string `json:"avatar" validate:"required,notblank"`
}

// CreateProfile adds a restricted profile under the calling admin. Full names
// are unique across all admins; a pin may be used once per admin so scoped
// PIN resolution stays unambiguous.
func (s *service) CreateProfile(ctx context.Context, p auth.Principal, in ProfileInput) (models.RestrictedProfile, error) {
	const op = "service.CreateProfile"

	if err := requireAdmin(p); err != nil {
		return models.RestrictedProfile{}, err
	}
	if err := s.check(in); err != nil {
		return models.RestrictedProfile{}, err
	}

	sharing, err := s.storage.FindProfilesByPin(ctx, in.Pin, p.ID)
	if err != nil {
		return models.RestrictedProfile{}, internal(op, err)
	}
	if len(sharing) > 0 {
		return models.RestrictedProfile{}, unprocessable(pinInUseMessage)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.RestrictedProfile{}, internal(op, err)
	}

	prof := models.RestrictedProfile{
		ID:       id,
		FullName: in.FullName,
		Pin:      in.Pin,
		Avatar:   in.Avatar,
		AdminID:  p.ID,
	}

	if err := s.storage.CreateProfile(ctx, prof); err != nil {
		// A concurrent create with the same pin loses on the unique index.
		if errors.Is(err, storage.ErrPinInUse) {
			return models.RestrictedProfile{}, unprocessable(pinInUseMessage)
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.RestrictedProfile{}, unprocessable("there is already a restricted user with this name")
		}
		return models.RestrictedProfile{}, internal(op, err)
	}

	s.log.Info("restricted profile created",
		slog.String("op", op),
		slog.String("profile_id", prof.ID.String()),
		slog.String("admin_id", p.ID.String()),
	)

	return prof, nil
}

func (s *service) ListProfiles(ctx context.Context, p auth.Principal) ([]models.RestrictedProfile, error) {
	const op = "service.ListProfiles"

	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	profiles, err := s.storage.ListProfilesByAdmin(ctx, p.ID)
	if err != nil {
		return nil, internal(op, err)
	}

	return profiles, nil
}

// VerifyPin checks pin against one of the caller's own profiles. Profiles of
// other admins are reported as missing.
func (s *service) VerifyPin(ctx context.Context, p auth.Principal, profileID uuid.UUID, pin string) (models.RestrictedProfile, error) {
	const op = "service.VerifyPin"

	if err := requireAdmin(p); err != nil {
		return models.RestrictedProfile{}, err
	}
	if profileID.IsNil() || pin == "" {
		return models.RestrictedProfile{}, badRequest("profileId and pin are required")
	}

	prof, err := s.storage.GetProfileByID(ctx, profileID)
	if err != nil {
		if isNotFound(err) {
			return models.RestrictedProfile{}, notFound("profile not found")
		}
		return models.RestrictedProfile{}, internal(op, err)
	}
	if !authz.CanManage(p, authz.Profile(prof)) {
		return models.RestrictedProfile{}, notFound("profile not found")
	}

	if subtle.ConstantTimeCompare([]byte(prof.Pin), []byte(pin)) != 1 {
		return models.RestrictedProfile{}, unauthorized("invalid_pin", "incorrect PIN")
	}

	return prof, nil
}

func (s *service) DeleteProfile(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	const op = "service.DeleteProfile"

	if err := requireAdmin(p); err != nil {
		return err
	}

	prof, err := s.storage.GetProfileByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound("profile not found")
		}
		return internal(op, err)
	}
	if !authz.CanManage(p, authz.Profile(prof)) {
		return forbidden("you don't have permission to delete this profile")
	}

	if err := s.storage.RemoveProfileFromPlaylists(ctx, prof.ID); err != nil {
		return internal(op, err)
	}

	if err := s.storage.DeleteProfile(ctx, prof.ID); err != nil {
		if isNotFound(err) {
			return notFound("profile not found")
		}
		return internal(op, err)
	}

	return nil
}
