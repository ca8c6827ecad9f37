package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"playlist_service/internal/models"

	"github.com/gofrs/uuid"
)

// MemoryStorage is a process-local Storage with the same uniqueness rules as
// the Postgres schema: account emails and profile full names are unique.
type MemoryStorage struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]models.Account
	profiles  map[uuid.UUID]models.RestrictedProfile
	playlists map[uuid.UUID]models.Playlist
	videos    map[uuid.UUID]models.Video
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		accounts:  make(map[uuid.UUID]models.Account),
		profiles:  make(map[uuid.UUID]models.RestrictedProfile),
		playlists: make(map[uuid.UUID]models.Playlist),
		videos:    make(map[uuid.UUID]models.Video),
	}
}

func clonePlaylist(p models.Playlist) models.Playlist {
	p.AssociatedProfiles = append([]uuid.UUID{}, p.AssociatedProfiles...)
	return p
}

// ---- accounts ----

func (m *MemoryStorage) emailTakenLocked(email string, except uuid.UUID) bool {
	for id, acc := range m.accounts {
		if id != except && strings.EqualFold(acc.Email, email) {
			return true
		}
	}

	return false
}

func (m *MemoryStorage) CreateAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.CreateAccount"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acc.ID]; ok || m.emailTakenLocked(acc.Email, uuid.Nil) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	m.accounts[acc.ID] = acc

	return nil
}

func (m *MemoryStorage) GetAccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	const op = "storage.GetAccountByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return acc, nil
}

func (m *MemoryStorage) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "storage.GetAccountByEmail"

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acc := range m.accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc, nil
		}
	}

	return models.Account{}, fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (m *MemoryStorage) UpdateAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.UpdateAccount"

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.accounts[acc.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if m.emailTakenLocked(acc.Email, acc.ID) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}

	acc.Birthdate = cur.Birthdate
	acc.Confirmed = cur.Confirmed
	acc.CreatedAt = cur.CreatedAt
	m.accounts[acc.ID] = acc

	return nil
}

func (m *MemoryStorage) ConfirmAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.ConfirmAccount"

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	acc.Confirmed = true
	m.accounts[id] = acc

	return nil
}

func (m *MemoryStorage) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteAccount"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(m.accounts, id)

	return nil
}

// ---- restricted profiles ----

func sortProfiles(profiles []models.RestrictedProfile) {
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].FullName < profiles[j].FullName })
}

func (m *MemoryStorage) CreateProfile(ctx context.Context, p models.RestrictedProfile) error {
	const op = "storage.CreateProfile"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[p.ID]; ok {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	for _, existing := range m.profiles {
		if existing.FullName == p.FullName {
			return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		if existing.AdminID == p.AdminID && existing.Pin == p.Pin {
			return fmt.Errorf("%s: %w", op, ErrPinInUse)
		}
	}
	m.profiles[p.ID] = p

	return nil
}

func (m *MemoryStorage) GetProfileByID(ctx context.Context, id uuid.UUID) (models.RestrictedProfile, error) {
	const op = "storage.GetProfileByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return models.RestrictedProfile{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return p, nil
}

func (m *MemoryStorage) ListProfilesByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.RestrictedProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profiles := []models.RestrictedProfile{}
	for _, p := range m.profiles {
		if p.AdminID == adminID {
			profiles = append(profiles, p)
		}
	}
	sortProfiles(profiles)

	return profiles, nil
}

func (m *MemoryStorage) FindProfilesByPin(ctx context.Context, pin string, adminID uuid.UUID) ([]models.RestrictedProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profiles := []models.RestrictedProfile{}
	for _, p := range m.profiles {
		if p.Pin != pin {
			continue
		}
		if !adminID.IsNil() && p.AdminID != adminID {
			continue
		}
		profiles = append(profiles, p)
	}
	sortProfiles(profiles)

	return profiles, nil
}

func (m *MemoryStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteProfile"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(m.profiles, id)

	return nil
}

func (m *MemoryStorage) DeleteProfilesByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.profiles {
		if p.AdminID == adminID {
			delete(m.profiles, id)
			n++
		}
	}

	return n, nil
}

// ---- playlists ----

func sortPlaylists(playlists []models.Playlist) {
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].CreatedAt.Before(playlists[j].CreatedAt) })
}

func (m *MemoryStorage) CreatePlaylist(ctx context.Context, p models.Playlist) error {
	const op = "storage.CreatePlaylist"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[p.ID]; ok {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	m.playlists[p.ID] = clonePlaylist(p)

	return nil
}

func (m *MemoryStorage) GetPlaylistByID(ctx context.Context, id uuid.UUID) (models.Playlist, error) {
	const op = "storage.GetPlaylistByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.playlists[id]
	if !ok {
		return models.Playlist{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return clonePlaylist(p), nil
}

func (m *MemoryStorage) ListPlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	playlists := []models.Playlist{}
	for _, p := range m.playlists {
		if p.AdminID == adminID {
			playlists = append(playlists, clonePlaylist(p))
		}
	}
	sortPlaylists(playlists)

	return playlists, nil
}

func (m *MemoryStorage) ListPlaylistsByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	playlists := []models.Playlist{}
	for _, p := range m.playlists {
		if p.HasProfile(profileID) {
			playlists = append(playlists, clonePlaylist(p))
		}
	}
	sortPlaylists(playlists)

	return playlists, nil
}

func (m *MemoryStorage) UpdatePlaylist(ctx context.Context, p models.Playlist) error {
	const op = "storage.UpdatePlaylist"

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.playlists[p.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	cur.Name = p.Name
	cur.AssociatedProfiles = append([]uuid.UUID{}, p.AssociatedProfiles...)
	m.playlists[p.ID] = cur

	return nil
}

func (m *MemoryStorage) RemoveProfileFromPlaylists(ctx context.Context, profileID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.playlists {
		if !p.HasProfile(profileID) {
			continue
		}
		kept := make([]uuid.UUID, 0, len(p.AssociatedProfiles))
		for _, pid := range p.AssociatedProfiles {
			if pid != profileID {
				kept = append(kept, pid)
			}
		}
		p.AssociatedProfiles = kept
		m.playlists[id] = p
	}

	return nil
}

func (m *MemoryStorage) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeletePlaylist"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[id]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(m.playlists, id)

	return nil
}

func (m *MemoryStorage) DeletePlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.playlists {
		if p.AdminID == adminID {
			delete(m.playlists, id)
			n++
		}
	}

	return n, nil
}

// ---- videos ----

func (m *MemoryStorage) CreateVideo(ctx context.Context, v models.Video) error {
	const op = "storage.CreateVideo"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[v.ID]; ok {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	m.videos[v.ID] = v

	return nil
}

func (m *MemoryStorage) GetVideoByID(ctx context.Context, id uuid.UUID) (models.Video, error) {
	const op = "storage.GetVideoByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return v, nil
}

func (f VideoFilter) matches(v models.Video) bool {
	if !f.AdminID.IsNil() && v.AdminID != f.AdminID {
		return false
	}
	if !f.PlaylistID.IsNil() && v.PlaylistID != f.PlaylistID {
		return false
	}
	if f.PlaylistIDs != nil {
		found := false
		for _, id := range f.PlaylistIDs {
			if id == v.PlaylistID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(v.Name), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) {
			return false
		}
	}

	return true
}

func (m *MemoryStorage) ListVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	videos := []models.Video{}
	for _, v := range m.videos {
		if filter.matches(v) {
			videos = append(videos, v)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].CreatedAt.Before(videos[j].CreatedAt) })

	return videos, nil
}

func (m *MemoryStorage) CountVideos(ctx context.Context, playlistID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, v := range m.videos {
		if v.PlaylistID == playlistID {
			count++
		}
	}

	return count, nil
}

func (m *MemoryStorage) UpdateVideo(ctx context.Context, v models.Video) error {
	const op = "storage.UpdateVideo"

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.videos[v.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	v.CreatedAt = cur.CreatedAt
	m.videos[v.ID] = v

	return nil
}

func (m *MemoryStorage) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteVideo"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[id]; !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(m.videos, id)

	return nil
}

func (m *MemoryStorage) deleteVideosWhere(match func(models.Video) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, v := range m.videos {
		if match(v) {
			delete(m.videos, id)
			n++
		}
	}

	return n
}

func (m *MemoryStorage) DeleteVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) (int64, error) {
	return m.deleteVideosWhere(func(v models.Video) bool { return v.PlaylistID == playlistID }), nil
}

func (m *MemoryStorage) DeleteVideosByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	return m.deleteVideosWhere(func(v models.Video) bool { return v.AdminID == adminID }), nil
}

func (m *MemoryStorage) Close() {}
