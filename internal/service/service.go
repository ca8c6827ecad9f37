package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"playlist_service/internal/auth"
	"playlist_service/internal/models"
	"playlist_service/internal/session"
	"playlist_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofrs/uuid"
)

type Service interface {
	// Identity
	ResolveToken(ctx context.Context, token string) (auth.Principal, error)
	ResolvePin(ctx context.Context, pin string, adminID uuid.UUID) (auth.Principal, error)

	// Accounts
	Register(ctx context.Context, in RegisterInput) (models.Account, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, p auth.Principal) error
	GetAccount(ctx context.Context, p auth.Principal, id uuid.UUID) (models.Account, error)
	UpdateAccount(ctx context.Context, p auth.Principal, id uuid.UUID, upd AccountUpdate) (models.Account, error)
	DeleteAccount(ctx context.Context, p auth.Principal, id uuid.UUID) error

	// Restricted profiles
	CreateProfile(ctx context.Context, p auth.Principal, in ProfileInput) (models.RestrictedProfile, error)
	ListProfiles(ctx context.Context, p auth.Principal) ([]models.RestrictedProfile, error)
	VerifyPin(ctx context.Context, p auth.Principal, profileID uuid.UUID, pin string) (models.RestrictedProfile, error)
	DeleteProfile(ctx context.Context, p auth.Principal, id uuid.UUID) error

	// Playlists
	CreatePlaylist(ctx context.Context, p auth.Principal, in PlaylistInput) (models.Playlist, error)
	GetPlaylist(ctx context.Context, p auth.Principal, id uuid.UUID) (models.PlaylistView, error)
	ListPlaylists(ctx context.Context, p auth.Principal) ([]models.PlaylistView, error)
	ListPlaylistsByProfile(ctx context.Context, p auth.Principal, profileID uuid.UUID) ([]models.PlaylistView, error)
	UpdatePlaylist(ctx context.Context, p auth.Principal, id uuid.UUID, upd PlaylistUpdate) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, p auth.Principal, id uuid.UUID) error

	// Videos
	CreateVideo(ctx context.Context, p auth.Principal, in VideoInput) (models.Video, error)
	GetVideo(ctx context.Context, p auth.Principal, id uuid.UUID) (models.Video, error)
	ListVideos(ctx context.Context, p auth.Principal) ([]models.Video, error)
	ListVideosByPlaylist(ctx context.Context, p auth.Principal, playlistID uuid.UUID) ([]models.Video, error)
	SearchVideos(ctx context.Context, p auth.Principal, query string) ([]models.Video, error)
	UpdateVideo(ctx context.Context, p auth.Principal, id uuid.UUID, upd VideoUpdate) (models.Video, error)
	DeleteVideo(ctx context.Context, p auth.Principal, id uuid.UUID) error
}

// Mailer delivers the account confirmation link.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, name, link string) error
}

type Options struct {
	// PublicURL prefixes links sent by email, e.g. "http://localhost:3000".
	PublicURL    string
	BcryptCost   int
	MinimumAge   int
	EmailTimeout time.Duration
}

type service struct {
	storage  storage.Storage
	sessions session.Store
	tokens   *auth.TokenManager
	mailer   Mailer
	log      *slog.Logger
	validate *validator.Validate
	opts     Options
	now      func() time.Time
}

func NewService(st storage.Storage, sessions session.Store, tokens *auth.TokenManager, mailer Mailer, lgr *slog.Logger, opts Options) *service {
	if opts.MinimumAge == 0 {
		opts.MinimumAge = 18
	}
	if opts.EmailTimeout == 0 {
		opts.EmailTimeout = 30 * time.Second
	}

	validate := validator.New()
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &service{
		storage:  st,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		log:      lgr,
		validate: validate,
		opts:     opts,
		now:      time.Now,
	}
}

// validationError turns validator output into a client-facing message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return unprocessable("no valid data provided")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}

	return unprocessable("invalid fields: " + strings.Join(fields, ", "))
}

func (s *service) check(in interface{}) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}

	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func requireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return unauthorized("missing", "authentication required")
	}

	return nil
}
