package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone_number"`
	Pin          string    `json:"-"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Country      string    `json:"country"`
	Birthdate    time.Time `json:"birthdate"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

type RestrictedProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Pin      string    `json:"-"`
	Avatar   string    `json:"avatar"`
	AdminID  uuid.UUID `json:"admin_id"`
}

type Playlist struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	AdminID            uuid.UUID   `json:"adminId"`
	AssociatedProfiles []uuid.UUID `json:"associatedProfiles"`
	CreatedAt          time.Time   `json:"created_at"`
}

// HasProfile reports whether profileID was granted visibility into the playlist.
func (p Playlist) HasProfile(profileID uuid.UUID) bool {
	for _, id := range p.AssociatedProfiles {
		if id == profileID {
			return true
		}
	}

	return false
}

// PlaylistView is a playlist as returned to clients, with its video count.
type PlaylistView struct {
	Playlist
	VideoCount int `json:"videoCount"`
}

type Video struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"youtubeUrl"`
	Description string    `json:"description"`
	PlaylistID  uuid.UUID `json:"playlistId"`
	AdminID     uuid.UUID `json:"adminId"`
	CreatedAt   time.Time `json:"created_at"`
}
