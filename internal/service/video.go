package service

import (
	"context"

	"playlist_service/internal/auth"
	"playlist_service/internal/authz"
	"playlist_service/internal/models"
	"playlist_service/internal/storage"

	"github.com/gofrs/uuid"
)

type VideoInput struct {
	Name        string    `json:"name" validate:"required,notblank"`
	URL         string    `json:"youtubeUrl" validate:"required,url"`
	Description string    `json:"description"`
	PlaylistID  uuid.UUID `json:"playlistId"`
}

type VideoUpdate struct {
	Name        *string    `json:"name" validate:"omitempty,notblank"`
	URL         *string    `json:"youtubeUrl" validate:"omitempty,url"`
	Description *string    `json:"description"`
	PlaylistID  *uuid.UUID `json:"playlistId"`
}

func (s *service) loadVideo(ctx context.Context, op string, id uuid.UUID) (models.Video, models.Playlist, error) {
	v, err := s.storage.GetVideoByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Video{}, models.Playlist{}, notFound("video not found")
		}
		return models.Video{}, models.Playlist{}, internal(op, err)
	}

	pl, err := s.storage.GetPlaylistByID(ctx, v.PlaylistID)
	if err != nil {
		if isNotFound(err) {
			return models.Video{}, models.Playlist{}, notFound("video's playlist not found")
		}
		return models.Video{}, models.Playlist{}, internal(op, err)
	}

	return v, pl, nil
}

// CreateVideo adds a video to one of the caller's playlists. The video keeps
// a copy of the playlist's owner for ownership checks.
func (s *service) CreateVideo(ctx context.Context, p auth.Principal, in VideoInput) (models.Video, error) {
	const op = "service.CreateVideo"

	if err := requireAdmin(p); err != nil {
		return models.Video{}, err
	}
	if in.PlaylistID.IsNil() {
		return models.Video{}, unprocessable("playlistId is required")
	}

	pl, err := s.loadPlaylist(ctx, op, in.PlaylistID)
	if err != nil {
		return models.Video{}, err
	}
	if !authz.CanManage(p, authz.Playlist(pl)) {
		return models.Video{}, forbidden("you don't have permission to add videos to this playlist")
	}

	if err := s.check(in); err != nil {
		return models.Video{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Video{}, internal(op, err)
	}

	v := models.Video{
		ID:          id,
		Name:        in.Name,
		URL:         in.URL,
		Description: in.Description,
		PlaylistID:  pl.ID,
		AdminID:     pl.AdminID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.storage.CreateVideo(ctx, v); err != nil {
		return models.Video{}, internal(op, err)
	}

	return v, nil
}

func (s *service) GetVideo(ctx context.Context, p auth.Principal, id uuid.UUID) (models.Video, error) {
	const op = "service.GetVideo"

	v, pl, err := s.loadVideo(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}

	if !authz.CanView(p, authz.Video(v, pl)) {
		return models.Video{}, forbidden("you don't have permission to view this video")
	}

	return v, nil
}

func (s *service) ListVideosByPlaylist(ctx context.Context, p auth.Principal, playlistID uuid.UUID) ([]models.Video, error) {
	const op = "service.ListVideosByPlaylist"

	pl, err := s.loadPlaylist(ctx, op, playlistID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(p, authz.Playlist(pl)) {
		return nil, forbidden("you don't have permission to view these videos")
	}

	videos, err := s.storage.ListVideos(ctx, storage.VideoFilter{PlaylistID: pl.ID})
	if err != nil {
		return nil, internal(op, err)
	}

	return videos, nil
}

// scopedFilter builds the filter matching every video p may see.
func (s *service) scopedFilter(ctx context.Context, op string, p auth.Principal) (storage.VideoFilter, error) {
	scope, ok := authz.ListScope(p)
	if !ok {
		return storage.VideoFilter{}, unauthorized("missing", "authentication required")
	}

	if !scope.AdminID.IsNil() {
		return storage.VideoFilter{AdminID: scope.AdminID}, nil
	}

	playlists, err := s.storage.ListPlaylistsByProfile(ctx, scope.ProfileID)
	if err != nil {
		return storage.VideoFilter{}, internal(op, err)
	}

	ids := make([]uuid.UUID, 0, len(playlists))
	for _, pl := range playlists {
		ids = append(ids, pl.ID)
	}

	return storage.VideoFilter{PlaylistIDs: ids}, nil
}

func (s *service) ListVideos(ctx context.Context, p auth.Principal) ([]models.Video, error) {
	const op = "service.ListVideos"

	filter, err := s.scopedFilter(ctx, op, p)
	if err != nil {
		return nil, err
	}

	videos, err := s.storage.ListVideos(ctx, filter)
	if err != nil {
		return nil, internal(op, err)
	}

	return videos, nil
}

// SearchVideos matches query against video names and descriptions,
// case-insensitively, within what p may see.
func (s *service) SearchVideos(ctx context.Context, p auth.Principal, query string) ([]models.Video, error) {
	const op = "service.SearchVideos"

	filter, err := s.scopedFilter(ctx, op, p)
	if err != nil {
		return nil, err
	}
	filter.Search = query

	videos, err := s.storage.ListVideos(ctx, filter)
	if err != nil {
		return nil, internal(op, err)
	}

	return videos, nil
}

func (s *service) UpdateVideo(ctx context.Context, p auth.Principal, id uuid.UUID, upd VideoUpdate) (models.Video, error) {
	const op = "service.UpdateVideo"

	if err := requireAdmin(p); err != nil {
		return models.Video{}, err
	}

	v, pl, err := s.loadVideo(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}
	if !authz.CanManage(p, authz.Video(v, pl)) {
		return models.Video{}, forbidden("you don't have permission to edit this video")
	}

	if err := s.check(upd); err != nil {
		return models.Video{}, err
	}

	if upd.Name != nil {
		v.Name = *upd.Name
	}
	if upd.URL != nil {
		v.URL = *upd.URL
	}
	if upd.Description != nil {
		v.Description = *upd.Description
	}
	if upd.PlaylistID != nil && *upd.PlaylistID != v.PlaylistID {
		target, err := s.loadPlaylist(ctx, op, *upd.PlaylistID)
		if err != nil {
			return models.Video{}, err
		}
		if !authz.CanManage(p, authz.Playlist(target)) {
			return models.Video{}, forbidden("you don't have permission to move videos to this playlist")
		}

		v.PlaylistID = target.ID
		v.AdminID = target.AdminID
	}

	if err := s.storage.UpdateVideo(ctx, v); err != nil {
		if isNotFound(err) {
			return models.Video{}, notFound("video not found")
		}
		return models.Video{}, internal(op, err)
	}

	return v, nil
}

func (s *service) DeleteVideo(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	const op = "service.DeleteVideo"

	if err := requireAdmin(p); err != nil {
		return err
	}

	v, pl, err := s.loadVideo(ctx, op, id)
	if err != nil {
		return err
	}
	if !authz.CanManage(p, authz.Video(v, pl)) {
		return forbidden("you don't have permission to delete this video")
	}

	if err := s.storage.DeleteVideo(ctx, v.ID); err != nil {
		if isNotFound(err) {
			return notFound("video not found")
		}
		return internal(op, err)
	}

	return nil
}
