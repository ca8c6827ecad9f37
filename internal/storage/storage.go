package storage

import (
	"context"
	"errors"
	"fmt"

	"playlist_service/internal/models"

	"github.com/gofrs/uuid"
)

const (
	accountsTable  = "accounts"
	profilesTable  = "restricted_profiles"
	playlistsTable = "playlists"
	videosTable    = "videos"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrPinInUse is returned when an admin already has a profile with the pin.
	ErrPinInUse = fmt.Errorf("pin already in use: %w", ErrAlreadyExists)
)

const profilePinConstraint = "restricted_profiles_admin_pin_key"

// VideoFilter selects videos for list and search queries. Zero-valued
// fields do not constrain the result, except PlaylistIDs: a non-nil empty
// slice matches nothing.
type VideoFilter struct {
	AdminID     uuid.UUID
	PlaylistIDs []uuid.UUID
	PlaylistID  uuid.UUID
	// Search matches name or description, case-insensitively, as a substring.
	Search string
}

type Storage interface {

	// Accounts
	CreateAccount(ctx context.Context, acc models.Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	UpdateAccount(ctx context.Context, acc models.Account) error
	ConfirmAccount(ctx context.Context, id uuid.UUID) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// Restricted profiles
	CreateProfile(ctx context.Context, p models.RestrictedProfile) error
	GetProfileByID(ctx context.Context, id uuid.UUID) (models.RestrictedProfile, error)
	ListProfilesByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.RestrictedProfile, error)
	// FindProfilesByPin returns the profiles with pin, limited to adminID's
	// profiles unless adminID is nil.
	FindProfilesByPin(ctx context.Context, pin string, adminID uuid.UUID) ([]models.RestrictedProfile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	DeleteProfilesByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error)

	// Playlists
	CreatePlaylist(ctx context.Context, p models.Playlist) error
	GetPlaylistByID(ctx context.Context, id uuid.UUID) (models.Playlist, error)
	ListPlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Playlist, error)
	ListPlaylistsByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Playlist, error)
	UpdatePlaylist(ctx context.Context, p models.Playlist) error
	RemoveProfileFromPlaylists(ctx context.Context, profileID uuid.UUID) error
	DeletePlaylist(ctx context.Context, id uuid.UUID) error
	DeletePlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error)

	// Videos
	CreateVideo(ctx context.Context, v models.Video) error
	GetVideoByID(ctx context.Context, id uuid.UUID) (models.Video, error)
	ListVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error)
	CountVideos(ctx context.Context, playlistID uuid.UUID) (int, error)
	UpdateVideo(ctx context.Context, v models.Video) error
	DeleteVideo(ctx context.Context, id uuid.UUID) error
	DeleteVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) (int64, error)
	DeleteVideosByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error)

	Close()
}
