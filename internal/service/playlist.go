package service

import (
	"context"
	"log/slog"

	"playlist_service/internal/auth"
	"playlist_service/internal/authz"
	"playlist_service/internal/models"

	"github.com/gofrs/uuid"
)

type PlaylistInput struct {
	Name               string      `json:"name" validate:"required,notblank"`
	AssociatedProfiles []uuid.UUID `json:"associatedProfiles"`
}

type PlaylistUpdate struct {
	Name               *string      `json:"name" validate:"omitempty,notblank"`
	AssociatedProfiles *[]uuid.UUID `json:"associatedProfiles"`
}

// ownedProfiles checks that every id is one of admin's profiles and returns
// the ids without duplicates.
func (s *service) ownedProfiles(ctx context.Context, op string, adminID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		prof, err := s.storage.GetProfileByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return nil, unprocessable("unknown restricted profile " + id.String())
			}
			return nil, internal(op, err)
		}
		if prof.AdminID != adminID {
			return nil, unprocessable("unknown restricted profile " + id.String())
		}

		out = append(out, id)
	}

	return out, nil
}

func (s *service) withCount(ctx context.Context, op string, pl models.Playlist) (models.PlaylistView, error) {
	count, err := s.storage.CountVideos(ctx, pl.ID)
	if err != nil {
		return models.PlaylistView{}, internal(op, err)
	}

	return models.PlaylistView{Playlist: pl, VideoCount: count}, nil
}

func (s *service) withCounts(ctx context.Context, op string, playlists []models.Playlist) ([]models.PlaylistView, error) {
	views := make([]models.PlaylistView, 0, len(playlists))
	for _, pl := range playlists {
		view, err := s.withCount(ctx, op, pl)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// loadPlaylist loads id and reports NotFound before any permission check.
func (s *service) loadPlaylist(ctx context.Context, op string, id uuid.UUID) (models.Playlist, error) {
	pl, err := s.storage.GetPlaylistByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Playlist{}, notFound("playlist not found")
		}
		return models.Playlist{}, internal(op, err)
	}

	return pl, nil
}

func (s *service) CreatePlaylist(ctx context.Context, p auth.Principal, in PlaylistInput) (models.Playlist, error) {
	const op = "service.CreatePlaylist"

	if err := requireAdmin(p); err != nil {
		return models.Playlist{}, err
	}
	if err := s.check(in); err != nil {
		return models.Playlist{}, err
	}

	profiles, err := s.ownedProfiles(ctx, op, p.ID, in.AssociatedProfiles)
	if err != nil {
		return models.Playlist{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Playlist{}, internal(op, err)
	}

	pl := models.Playlist{
		ID:                 id,
		Name:               in.Name,
		AdminID:            p.ID,
		AssociatedProfiles: profiles,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.storage.CreatePlaylist(ctx, pl); err != nil {
		return models.Playlist{}, internal(op, err)
	}

	s.log.Debug("playlist created", slog.String("op", op), slog.String("playlist_id", pl.ID.String()))

	return pl, nil
}

func (s *service) GetPlaylist(ctx context.Context, p auth.Principal, id uuid.UUID) (models.PlaylistView, error) {
	const op = "service.GetPlaylist"

	pl, err := s.loadPlaylist(ctx, op, id)
	if err != nil {
		return models.PlaylistView{}, err
	}

	if !authz.CanView(p, authz.Playlist(pl)) {
		return models.PlaylistView{}, forbidden("you don't have permission to view this playlist")
	}

	return s.withCount(ctx, op, pl)
}

func (s *service) ListPlaylists(ctx context.Context, p auth.Principal) ([]models.PlaylistView, error) {
	const op = "service.ListPlaylists"

	scope, ok := authz.ListScope(p)
	if !ok {
		return nil, unauthorized("missing", "authentication required")
	}

	var (
		playlists []models.Playlist
		err       error
	)
	if !scope.AdminID.IsNil() {
		playlists, err = s.storage.ListPlaylistsByAdmin(ctx, scope.AdminID)
	} else {
		playlists, err = s.storage.ListPlaylistsByProfile(ctx, scope.ProfileID)
	}
	if err != nil {
		return nil, internal(op, err)
	}

	return s.withCounts(ctx, op, playlists)
}

// ListPlaylistsByProfile lists the playlists shared with profileID. Admins
// may ask about their own profiles; a restricted profile only about itself.
func (s *service) ListPlaylistsByProfile(ctx context.Context, p auth.Principal, profileID uuid.UUID) ([]models.PlaylistView, error) {
	const op = "service.ListPlaylistsByProfile"

	switch {
	case p.IsAdmin():
		prof, err := s.storage.GetProfileByID(ctx, profileID)
		if err != nil {
			if isNotFound(err) {
				return nil, notFound("profile not found")
			}
			return nil, internal(op, err)
		}
		if !authz.CanManage(p, authz.Profile(prof)) {
			return nil, forbidden("you don't have permission to view this profile's playlists")
		}
	case p.IsRestricted():
		if p.ID != profileID {
			return nil, forbidden("you don't have permission to view this profile's playlists")
		}
	default:
		return nil, unauthorized("missing", "authentication required")
	}

	playlists, err := s.storage.ListPlaylistsByProfile(ctx, profileID)
	if err != nil {
		return nil, internal(op, err)
	}

	visible := playlists[:0]
	for _, pl := range playlists {
		if authz.CanView(p, authz.Playlist(pl)) {
			visible = append(visible, pl)
		}
	}

	return s.withCounts(ctx, op, visible)
}

func (s *service) UpdatePlaylist(ctx context.Context, p auth.Principal, id uuid.UUID, upd PlaylistUpdate) (models.Playlist, error) {
	const op = "service.UpdatePlaylist"

	if err := requireAdmin(p); err != nil {
		return models.Playlist{}, err
	}

	pl, err := s.loadPlaylist(ctx, op, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if !authz.CanManage(p, authz.Playlist(pl)) {
		return models.Playlist{}, forbidden("you don't have permission to edit this playlist")
	}

	if err := s.check(upd); err != nil {
		return models.Playlist{}, err
	}

	if upd.Name != nil {
		pl.Name = *upd.Name
	}
	if upd.AssociatedProfiles != nil {
		profiles, err := s.ownedProfiles(ctx, op, p.ID, *upd.AssociatedProfiles)
		if err != nil {
			return models.Playlist{}, err
		}
		pl.AssociatedProfiles = profiles
	}

	if err := s.storage.UpdatePlaylist(ctx, pl); err != nil {
		if isNotFound(err) {
			return models.Playlist{}, notFound("playlist not found")
		}
		return models.Playlist{}, internal(op, err)
	}

	return pl, nil
}

// DeletePlaylist removes the playlist and every video in it.
func (s *service) DeletePlaylist(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	const op = "service.DeletePlaylist"

	if err := requireAdmin(p); err != nil {
		return err
	}

	pl, err := s.loadPlaylist(ctx, op, id)
	if err != nil {
		return err
	}
	if !authz.CanManage(p, authz.Playlist(pl)) {
		return forbidden("you don't have permission to delete this playlist")
	}

	videos, err := s.storage.DeleteVideosByPlaylist(ctx, pl.ID)
	if err != nil {
		return internal(op, err)
	}

	if err := s.storage.DeletePlaylist(ctx, pl.ID); err != nil {
		if isNotFound(err) {
			return notFound("playlist not found")
		}
		return internal(op, err)
	}

	s.log.Info("playlist deleted",
		slog.String("op", op),
		slog.String("playlist_id", pl.ID.String()),
		slog.Int64("videos", videos),
	)

	return nil
}
