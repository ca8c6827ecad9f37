// Package authz decides what a resolved principal may do with playlists and
// videos. Admins manage what they own; restricted profiles only view the
// playlists shared with them and the videos inside those playlists.
package authz

import (
	"playlist_service/internal/auth"
	"playlist_service/internal/models"

	"github.com/gofrs/uuid"
)

// Resource is anything carrying an owning admin id.
type Resource interface {
	OwnerID() uuid.UUID
}

type PlaylistResource struct {
	models.Playlist
}

func (r PlaylistResource) OwnerID() uuid.UUID { return r.AdminID }

// VideoResource pairs a video with the playlist it lives in, which decides
// restricted visibility.
type VideoResource struct {
	Video    models.Video
	Playlist models.Playlist
}

func (r VideoResource) OwnerID() uuid.UUID { return r.Video.AdminID }

type ProfileResource struct {
	models.RestrictedProfile
}

func (r ProfileResource) OwnerID() uuid.UUID { return r.AdminID }

type AccountResource struct {
	models.Account
}

func (r AccountResource) OwnerID() uuid.UUID { return r.ID }

func Playlist(p models.Playlist) PlaylistResource { return PlaylistResource{p} }

func Video(v models.Video, p models.Playlist) VideoResource {
	return VideoResource{Video: v, Playlist: p}
}

func Profile(p models.RestrictedProfile) ProfileResource { return ProfileResource{p} }

func Account(a models.Account) AccountResource { return AccountResource{a} }

// CanManage is the only basis for writes.
func CanManage(p auth.Principal, r Resource) bool {
	return p.IsAdmin() && !p.ID.IsNil() && r.OwnerID() == p.ID
}

func CanView(p auth.Principal, r Resource) bool {
	if CanManage(p, r) {
		return true
	}
	if !p.IsRestricted() {
		return false
	}

	switch res := r.(type) {
	case PlaylistResource:
		return res.HasProfile(p.ID)
	case VideoResource:
		return res.Playlist.ID == res.Video.PlaylistID && res.Playlist.HasProfile(p.ID)
	default:
		return false
	}
}

// Scope narrows list and search queries to what a principal may see.
// Exactly one of AdminID and ProfileID is set for a valid scope.
type Scope struct {
	AdminID   uuid.UUID
	ProfileID uuid.UUID
}

func ListScope(p auth.Principal) (Scope, bool) {
	switch {
	case p.IsAdmin() && !p.ID.IsNil():
		return Scope{AdminID: p.ID}, true
	case p.IsRestricted() && !p.ID.IsNil():
		return Scope{ProfileID: p.ID}, true
	default:
		return Scope{}, false
	}
}
