package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"playlist_service/internal/auth"
	"playlist_service/internal/models"
	"playlist_service/internal/session"
	"playlist_service/internal/storage"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to, name, link string
}

type fakeMailer struct {
	sent chan sentMail
}

func (m *fakeMailer) SendConfirmation(ctx context.Context, to, name, link string) error {
	m.sent <- sentMail{to: to, name: name, link: link}
	return nil
}

type fixture struct {
	svc      *service
	storage  *storage.MemoryStorage
	sessions *session.MemoryStore
	mailer   *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := storage.NewMemoryStorage()
	sessions := session.NewMemoryStore()
	mailer := &fakeMailer{sent: make(chan sentMail, 16)}
	tokens := auth.NewTokenManager("test-secret", time.Hour, "playlist_service")
	lgr := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(st, sessions, tokens, mailer, lgr, Options{
		PublicURL:    "http://localhost:3000",
		BcryptCost:   bcrypt.MinCost,
		EmailTimeout: time.Second,
	})

	return &fixture{svc: svc, storage: st, sessions: sessions, mailer: mailer}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Password:  "s3cret-pass",
		Phone:     "555-0100",
		Pin:       "9999",
		Name:      "Ana",
		LastName:  "Mora",
		Country:   "CR",
		Birthdate: "2000-01-01",
	}
}

// admin registers, confirms and logs in an account, returning its principal.
func (f *fixture) admin(t *testing.T, email string) auth.Principal {
	t.Helper()
	ctx := context.Background()

	acc, err := f.svc.Register(ctx, registerInput(email))
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmEmail(ctx, acc.ID))

	token, err := f.svc.Login(ctx, email, "s3cret-pass")
	require.NoError(t, err)

	p, err := f.svc.ResolveToken(ctx, token)
	require.NoError(t, err)

	return p
}

func (f *fixture) profile(t *testing.T, admin auth.Principal, name, pin string) models.RestrictedProfile {
	t.Helper()

	prof, err := f.svc.CreateProfile(context.Background(), admin, ProfileInput{FullName: name, Pin: pin, Avatar: "fox.png"})
	require.NoError(t, err)

	return prof
}

func (f *fixture) playlist(t *testing.T, admin auth.Principal, name string, profiles ...uuid.UUID) models.Playlist {
	t.Helper()

	pl, err := f.svc.CreatePlaylist(context.Background(), admin, PlaylistInput{Name: name, AssociatedProfiles: profiles})
	require.NoError(t, err)

	return pl
}

func (f *fixture) video(t *testing.T, admin auth.Principal, playlistID uuid.UUID, name, desc string) models.Video {
	t.Helper()

	v, err := f.svc.CreateVideo(context.Background(), admin, VideoInput{
		Name:        name,
		URL:         "https://www.youtube.com/watch?v=" + strings.ReplaceAll(name, " ", ""),
		Description: desc,
		PlaylistID:  playlistID,
	})
	require.NoError(t, err)

	return v
}

func assertKind(t *testing.T, want Kind, err error) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, want, KindOf(err), "error: %v", err)
}

func TestRegister_UnderAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := registerInput("young@x.com")
	in.Birthdate = time.Now().AddDate(-17, 0, 0).Format(birthdateLayout)

	_, err := f.svc.Register(ctx, in)
	assertKind(t, KindUnprocessable, err)

	_, err = f.storage.GetAccountByEmail(ctx, "young@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegister_EighteenToday(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	in := registerInput("adult@x.com")
	in.Birthdate = "2008-03-15"
	_, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	in = registerInput("almost@x.com")
	in.Birthdate = "2008-03-16"
	_, err = f.svc.Register(context.Background(), in)
	assertKind(t, KindUnprocessable, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerInput("a@x.com"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerInput("A@X.com"))
	assertKind(t, KindUnprocessable, err)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }},
		{"blank name", func(in *RegisterInput) { in.Name = "   " }},
		{"missing pin", func(in *RegisterInput) { in.Pin = "" }},
		{"bad birthdate", func(in *RegisterInput) { in.Birthdate = "01/01/2000" }},
		{"passwords differ", func(in *RegisterInput) { in.RepeatPassword = "other" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput("v-" + uuid.Must(uuid.NewV4()).String() + "@x.com")
			tt.mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			assertKind(t, KindUnprocessable, err)
		})
	}
}

func TestRegister_SendsConfirmationLink(t *testing.T) {
	f := newFixture(t)

	acc, err := f.svc.Register(context.Background(), registerInput("mail@x.com"))
	require.NoError(t, err)
	assert.False(t, acc.Confirmed)
	assert.NotEqual(t, "s3cret-pass", acc.PasswordHash)

	select {
	case m := <-f.mailer.sent:
		assert.Equal(t, "mail@x.com", m.to)
		assert.Equal(t, "http://localhost:3000/api/users/confirm?id="+acc.ID.String(), m.link)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email was not sent")
	}
}

func TestConfirmEmail_Unknown(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ConfirmEmail(context.Background(), uuid.Must(uuid.NewV4()))
	assertKind(t, KindNotFound, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.svc.Register(ctx, registerInput("login@x.com"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "login@x.com", "s3cret-pass")
	assertKind(t, KindForbidden, err)

	require.NoError(t, f.svc.ConfirmEmail(ctx, acc.ID))

	_, err = f.svc.Login(ctx, "login@x.com", "wrong")
	assertKind(t, KindUnprocessable, err)

	_, err = f.svc.Login(ctx, "ghost@x.com", "s3cret-pass")
	assertKind(t, KindUnprocessable, err)

	token, err := f.svc.Login(ctx, "login@x.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	open, err := f.sessions.HasSession(ctx, "login@x.com")
	require.NoError(t, err)
	assert.True(t, open)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.admin(t, "out@x.com")
	require.NoError(t, f.svc.Logout(ctx, p))

	_, err := f.svc.ResolveToken(ctx, p.Token)
	assertKind(t, KindUnauthorized, err)
	assert.Equal(t, "revoked", ReasonOf(err))

	open, err := f.sessions.HasSession(ctx, "out@x.com")
	require.NoError(t, err)
	assert.False(t, open)

	// A fresh login is unaffected by the earlier revocation.
	token, err := f.svc.Login(ctx, "out@x.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = f.svc.ResolveToken(ctx, token)
	require.NoError(t, err)
}

func TestResolveToken_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveToken(ctx, "")
	assert.Equal(t, "missing", ReasonOf(err))

	_, err = f.svc.ResolveToken(ctx, "not-a-token")
	assert.Equal(t, "invalid", ReasonOf(err))

	other := auth.NewTokenManager("other-secret", time.Hour, "playlist_service")
	forged, err := other.Issue(uuid.Must(uuid.NewV4()), "x@x.com", "X")
	require.NoError(t, err)
	_, err = f.svc.ResolveToken(ctx, forged)
	assertKind(t, KindUnauthorized, err)
	assert.Equal(t, "invalid", ReasonOf(err))

	stale := auth.NewTokenManager("test-secret", -time.Minute, "playlist_service")
	expired, err := stale.Issue(uuid.Must(uuid.NewV4()), "x@x.com", "X")
	require.NoError(t, err)
	_, err = f.svc.ResolveToken(ctx, expired)
	assertKind(t, KindUnauthorized, err)
	assert.Equal(t, "expired", ReasonOf(err))
}

func TestResolvePin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kidA := f.profile(t, a, "Kid A", "1111")
	kidB := f.profile(t, b, "Kid B", "1111")
	solo := f.profile(t, a, "Solo", "2222")

	p, err := f.svc.ResolvePin(ctx, "1111", a.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.KindRestricted, p.Kind)
	assert.Equal(t, kidA.ID, p.ID)
	assert.Equal(t, a.ID, p.AdminID)

	p, err = f.svc.ResolvePin(ctx, "1111", b.ID)
	require.NoError(t, err)
	assert.Equal(t, kidB.ID, p.ID)

	_, err = f.svc.ResolvePin(ctx, "1111", uuid.Nil)
	assert.Equal(t, "ambiguous_pin", ReasonOf(err))

	p, err = f.svc.ResolvePin(ctx, "2222", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, solo.ID, p.ID)

	_, err = f.svc.ResolvePin(ctx, "2222", b.ID)
	assert.Equal(t, "invalid_pin", ReasonOf(err))

	_, err = f.svc.ResolvePin(ctx, "", a.ID)
	assert.Equal(t, "missing", ReasonOf(err))
}

func TestCreateProfile_Uniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	f.profile(t, a, "Leo", "1234")

	_, err := f.svc.CreateProfile(ctx, a, ProfileInput{FullName: "Mia", Pin: "1234", Avatar: "cat.png"})
	assertKind(t, KindUnprocessable, err)

	// Full names are unique across admins.
	_, err = f.svc.CreateProfile(ctx, b, ProfileInput{FullName: "Leo", Pin: "5678", Avatar: "cat.png"})
	assertKind(t, KindUnprocessable, err)

	_, err = f.svc.CreateProfile(ctx, auth.RestrictedPrincipal(uuid.Must(uuid.NewV4()), a.ID), ProfileInput{FullName: "Zed", Pin: "0", Avatar: "x"})
	assertKind(t, KindUnauthorized, err)
}

func TestVerifyPin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kid := f.profile(t, a, "Kid", "4321")

	got, err := f.svc.VerifyPin(ctx, a, kid.ID, "4321")
	require.NoError(t, err)
	assert.Equal(t, kid.ID, got.ID)

	_, err = f.svc.VerifyPin(ctx, a, kid.ID, "0000")
	assert.Equal(t, "invalid_pin", ReasonOf(err))

	_, err = f.svc.VerifyPin(ctx, b, kid.ID, "4321")
	assertKind(t, KindNotFound, err)

	_, err = f.svc.VerifyPin(ctx, a, uuid.Nil, "4321")
	assertKind(t, KindBadRequest, err)
}

func TestPlaylistVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kid := f.profile(t, a, "Kid", "1111")
	other := f.profile(t, a, "Other", "2222")

	shared := f.playlist(t, a, "Kids", kid.ID)
	private := f.playlist(t, a, "Grown ups")
	f.video(t, a, shared.ID, "Song one", "")
	f.video(t, a, shared.ID, "Song two", "")

	restricted := auth.RestrictedPrincipal(kid.ID, a.ID)

	view, err := f.svc.GetPlaylist(ctx, restricted, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.VideoCount)

	_, err = f.svc.GetPlaylist(ctx, restricted, private.ID)
	assertKind(t, KindForbidden, err)

	_, err = f.svc.GetPlaylist(ctx, auth.RestrictedPrincipal(other.ID, a.ID), shared.ID)
	assertKind(t, KindForbidden, err)

	_, err = f.svc.GetPlaylist(ctx, b, shared.ID)
	assertKind(t, KindForbidden, err)

	// Missing resources are reported before any permission decision.
	_, err = f.svc.GetPlaylist(ctx, b, uuid.Must(uuid.NewV4()))
	assertKind(t, KindNotFound, err)

	list, err := f.svc.ListPlaylists(ctx, restricted)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shared.ID, list[0].ID)

	list, err = f.svc.ListPlaylists(ctx, a)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListPlaylists(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.UpdatePlaylist(ctx, restricted, shared.ID, PlaylistUpdate{})
	assertKind(t, KindUnauthorized, err)
}

func TestListPlaylistsByProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kid := f.profile(t, a, "Kid", "1111")
	sibling := f.profile(t, a, "Sibling", "2222")
	pl := f.playlist(t, a, "Kids", kid.ID)
	f.playlist(t, a, "Sibling only", sibling.ID)

	list, err := f.svc.ListPlaylistsByProfile(ctx, a, kid.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pl.ID, list[0].ID)

	_, err = f.svc.ListPlaylistsByProfile(ctx, b, kid.ID)
	assertKind(t, KindForbidden, err)

	_, err = f.svc.ListPlaylistsByProfile(ctx, auth.RestrictedPrincipal(kid.ID, a.ID), sibling.ID)
	assertKind(t, KindForbidden, err)

	_, err = f.svc.ListPlaylistsByProfile(ctx, a, uuid.Must(uuid.NewV4()))
	assertKind(t, KindNotFound, err)
}

func TestCreatePlaylist_RejectsForeignProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kidB := f.profile(t, b, "Kid B", "1111")

	_, err := f.svc.CreatePlaylist(ctx, a, PlaylistInput{Name: "Mine", AssociatedProfiles: []uuid.UUID{kidB.ID}})
	assertKind(t, KindUnprocessable, err)

	_, err = f.svc.CreatePlaylist(ctx, a, PlaylistInput{Name: "  "})
	assertKind(t, KindUnprocessable, err)
}

func TestVideos_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	pl := f.playlist(t, a, "Kids")

	_, err := f.svc.CreateVideo(ctx, b, VideoInput{Name: "Intruder", URL: "https://youtu.be/x", PlaylistID: pl.ID})
	assertKind(t, KindForbidden, err)

	_, err = f.svc.CreateVideo(ctx, a, VideoInput{Name: "Song", URL: "https://youtu.be/x", PlaylistID: uuid.Must(uuid.NewV4())})
	assertKind(t, KindNotFound, err)

	_, err = f.svc.CreateVideo(ctx, a, VideoInput{Name: "Song", URL: "not a url", PlaylistID: pl.ID})
	assertKind(t, KindUnprocessable, err)

	v := f.video(t, a, pl.ID, "Song", "")
	assert.Equal(t, a.ID, v.AdminID)

	_, err = f.svc.UpdateVideo(ctx, b, v.ID, VideoUpdate{})
	assertKind(t, KindForbidden, err)

	err = f.svc.DeleteVideo(ctx, b, v.ID)
	assertKind(t, KindForbidden, err)

	err = f.svc.DeleteVideo(ctx, b, uuid.Must(uuid.NewV4()))
	assertKind(t, KindNotFound, err)

	bpl := f.playlist(t, b, "B's")
	moveTo := bpl.ID
	_, err = f.svc.UpdateVideo(ctx, a, v.ID, VideoUpdate{PlaylistID: &moveTo})
	assertKind(t, KindForbidden, err)

	name := "Renamed"
	upd, err := f.svc.UpdateVideo(ctx, a, v.ID, VideoUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", upd.Name)
}

func TestVideos_RestrictedScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	kid := f.profile(t, a, "Kid", "1111")
	shared := f.playlist(t, a, "Kids", kid.ID)
	private := f.playlist(t, a, "Private")

	dino := f.video(t, a, shared.ID, "Dinosaur song", "roar")
	f.video(t, a, shared.ID, "Counting", "numbers with DINOSAURS")
	hidden := f.video(t, a, private.ID, "Dinosaur documentary", "")

	restricted := auth.RestrictedPrincipal(kid.ID, a.ID)

	all, err := f.svc.ListVideos(ctx, restricted)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.svc.SearchVideos(ctx, restricted, "dinosaur")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = f.svc.SearchVideos(ctx, a, "dinosaur")
	require.NoError(t, err)
	assert.Len(t, found, 3)

	got, err := f.svc.GetVideo(ctx, restricted, dino.ID)
	require.NoError(t, err)
	assert.Equal(t, dino.ID, got.ID)

	_, err = f.svc.GetVideo(ctx, restricted, hidden.ID)
	assertKind(t, KindForbidden, err)

	_, err = f.svc.ListVideosByPlaylist(ctx, restricted, private.ID)
	assertKind(t, KindForbidden, err)

	// A profile without playlists sees nothing at all.
	lonely := f.profile(t, a, "Lonely", "3333")
	all, err = f.svc.ListVideos(ctx, auth.RestrictedPrincipal(lonely.ID, a.ID))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeletePlaylist_CascadesVideos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	pl := f.playlist(t, a, "Kids")
	keep := f.playlist(t, a, "Keep")
	v1 := f.video(t, a, pl.ID, "One", "")
	v2 := f.video(t, a, pl.ID, "Two", "")
	kept := f.video(t, a, keep.ID, "Three", "")

	require.NoError(t, f.svc.DeletePlaylist(ctx, a, pl.ID))

	for _, id := range []uuid.UUID{v1.ID, v2.ID} {
		_, err := f.storage.GetVideoByID(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
	_, err := f.storage.GetVideoByID(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestDeleteProfile_DetachesFromPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kid := f.profile(t, a, "Kid", "1111")
	pl := f.playlist(t, a, "Kids", kid.ID)

	assertKind(t, KindForbidden, f.svc.DeleteProfile(ctx, b, kid.ID))
	require.NoError(t, f.svc.DeleteProfile(ctx, a, kid.ID))
	assertKind(t, KindNotFound, f.svc.DeleteProfile(ctx, a, kid.ID))

	got, err := f.storage.GetPlaylistByID(ctx, pl.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssociatedProfiles)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")
	kid := f.profile(t, a, "Kid", "1111")
	pl := f.playlist(t, a, "Kids", kid.ID)
	v := f.video(t, a, pl.ID, "Song", "")
	other := f.profile(t, b, "Other kid", "2222")

	assertKind(t, KindForbidden, f.svc.DeleteAccount(ctx, b, a.ID))

	require.NoError(t, f.svc.DeleteAccount(ctx, a, a.ID))

	_, err := f.storage.GetAccountByID(ctx, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.storage.GetProfileByID(ctx, kid.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.storage.GetPlaylistByID(ctx, pl.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.storage.GetVideoByID(ctx, v.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.storage.GetProfileByID(ctx, other.ID)
	assert.NoError(t, err)

	open, err := f.sessions.HasSession(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, open)

	_, err = f.svc.ResolveToken(ctx, a.Token)
	assert.Equal(t, "revoked", ReasonOf(err))

	assertKind(t, KindNotFound, f.svc.DeleteAccount(ctx, b, a.ID))
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.admin(t, "a@x.com")
	b := f.admin(t, "b@x.com")

	taken := "b@x.com"
	_, err := f.svc.UpdateAccount(ctx, a, a.ID, AccountUpdate{Email: &taken})
	assertKind(t, KindUnprocessable, err)

	_, err = f.svc.GetAccount(ctx, b, a.ID)
	assertKind(t, KindForbidden, err)

	email, name := "New@X.com", "Ana Maria"
	acc, err := f.svc.UpdateAccount(ctx, a, a.ID, AccountUpdate{Email: &email, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", acc.Email)
	assert.Equal(t, "Ana Maria", acc.Name)

	open, err := f.sessions.HasSession(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, open)
	open, err = f.sessions.HasSession(ctx, "new@x.com")
	require.NoError(t, err)
	assert.True(t, open)

	password := "changed-pass"
	_, err = f.svc.UpdateAccount(ctx, a, a.ID, AccountUpdate{Password: &password})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "new@x.com", "changed-pass")
	require.NoError(t, err)
}

func TestPasswordOverByteLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 40 runes pass the length tag but take 80 bytes, beyond bcrypt's limit.
	long := strings.Repeat("é", 40)

	in := registerInput("long@x.com")
	in.Password = long
	_, err := f.svc.Register(ctx, in)
	assertKind(t, KindUnprocessable, err)

	a := f.admin(t, "a@x.com")
	_, err = f.svc.UpdateAccount(ctx, a, a.ID, AccountUpdate{Password: &long})
	assertKind(t, KindUnprocessable, err)

	_, err = f.svc.Login(ctx, "a@x.com", "s3cret-pass")
	assert.NoError(t, err)
}

func TestCreateProfile_ConcurrentSamePin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admin(t, "a@x.com")

	const attempts = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := f.svc.CreateProfile(ctx, a, ProfileInput{FullName: fmt.Sprintf("Kid %d", i), Pin: "7777", Avatar: "fox.png"})
			if err != nil {
				assert.Equal(t, KindUnprocessable, KindOf(err), "error: %v", err)
				return
			}

			mu.Lock()
			created++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	p, err := f.svc.ResolvePin(ctx, "7777", a.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.KindRestricted, p.Kind)
}
