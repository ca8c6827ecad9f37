package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"playlist_service/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, DbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, DbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{
		db: conn,
	}, nil
}

// Migrate creates missing tables and indexes.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	const op = "storage.Migrate"

	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// wrap translates driver errors into the package sentinels.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == profilePinConstraint {
			return fmt.Errorf("%s: %w", op, ErrPinInUse)
		}
		return fmt.Errorf("%s: %w: %s", op, ErrAlreadyExists, pgErr.ConstraintName)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func expectOne(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}

	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.FromString(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}

	return out, nil
}

// ---- accounts ----

const accountColumns = "id, email, password_hash, phone_number, pin, name, last_name, country, birthdate, confirmed, created_at"

func scanAccount(row pgx.Row) (models.Account, error) {
	var acc models.Account
	err := row.Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.Phone,
		&acc.Pin,
		&acc.Name,
		&acc.LastName,
		&acc.Country,
		&acc.Birthdate,
		&acc.Confirmed,
		&acc.CreatedAt,
	)

	return acc, err
}

func (p *PostgresStorage) CreateAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.CreateAccount"

	query := fmt.Sprintf(`INSERT INTO %s(%s)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, accountsTable, accountColumns)

	_, err := p.db.Exec(ctx, query,
		acc.ID, acc.Email, acc.PasswordHash, acc.Phone, acc.Pin, acc.Name,
		acc.LastName, acc.Country, acc.Birthdate, acc.Confirmed, acc.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}

	return nil
}

func (p *PostgresStorage) GetAccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	const op = "storage.GetAccountByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", accountColumns, accountsTable)

	acc, err := scanAccount(p.db.QueryRow(ctx, query, id))
	if err != nil {
		return acc, wrap(op, err)
	}

	return acc, nil
}

func (p *PostgresStorage) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "storage.GetAccountByEmail"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE email=$1", accountColumns, accountsTable)

	acc, err := scanAccount(p.db.QueryRow(ctx, query, email))
	if err != nil {
		return acc, wrap(op, err)
	}

	return acc, nil
}

func (p *PostgresStorage) UpdateAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.UpdateAccount"

	query := fmt.Sprintf(`UPDATE %s
	SET email=$2, password_hash=$3, phone_number=$4, pin=$5, name=$6, last_name=$7, country=$8
	WHERE id=$1`, accountsTable)

	tag, err := p.db.Exec(ctx, query,
		acc.ID, acc.Email, acc.PasswordHash, acc.Phone, acc.Pin, acc.Name, acc.LastName, acc.Country)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) ConfirmAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.ConfirmAccount"

	query := fmt.Sprintf("UPDATE %s SET confirmed=TRUE WHERE id=$1", accountsTable)
	tag, err := p.db.Exec(ctx, query, id)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteAccount"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1", accountsTable)
	tag, err := p.db.Exec(ctx, query, id)

	return expectOne(op, tag, err)
}

// ---- restricted profiles ----

const profileColumns = "id, full_name, pin, avatar, admin_id"

func scanProfile(row pgx.Row) (models.RestrictedProfile, error) {
	var prof models.RestrictedProfile
	err := row.Scan(&prof.ID, &prof.FullName, &prof.Pin, &prof.Avatar, &prof.AdminID)

	return prof, err
}

func (p *PostgresStorage) queryProfiles(ctx context.Context, op, query string, args ...interface{}) ([]models.RestrictedProfile, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	profiles := []models.RestrictedProfile{}
	for rows.Next() {
		prof, err := scanProfile(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		profiles = append(profiles, prof)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return profiles, nil
}

func (p *PostgresStorage) CreateProfile(ctx context.Context, prof models.RestrictedProfile) error {
	const op = "storage.CreateProfile"

	query := fmt.Sprintf("INSERT INTO %s(%s) VALUES ($1, $2, $3, $4, $5)", profilesTable, profileColumns)

	if _, err := p.db.Exec(ctx, query, prof.ID, prof.FullName, prof.Pin, prof.Avatar, prof.AdminID); err != nil {
		return wrap(op, err)
	}

	return nil
}

func (p *PostgresStorage) GetProfileByID(ctx context.Context, id uuid.UUID) (models.RestrictedProfile, error) {
	const op = "storage.GetProfileByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", profileColumns, profilesTable)

	prof, err := scanProfile(p.db.QueryRow(ctx, query, id))
	if err != nil {
		return prof, wrap(op, err)
	}

	return prof, nil
}

func (p *PostgresStorage) ListProfilesByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.RestrictedProfile, error) {
	const op = "storage.ListProfilesByAdmin"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE admin_id=$1 ORDER BY full_name", profileColumns, profilesTable)

	return p.queryProfiles(ctx, op, query, adminID)
}

func (p *PostgresStorage) FindProfilesByPin(ctx context.Context, pin string, adminID uuid.UUID) ([]models.RestrictedProfile, error) {
	const op = "storage.FindProfilesByPin"

	if adminID.IsNil() {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE pin=$1 LIMIT 2", profileColumns, profilesTable)
		return p.queryProfiles(ctx, op, query, pin)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE pin=$1 AND admin_id=$2 LIMIT 2", profileColumns, profilesTable)

	return p.queryProfiles(ctx, op, query, pin, adminID)
}

func (p *PostgresStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteProfile"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1", profilesTable)
	tag, err := p.db.Exec(ctx, query, id)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) DeleteProfilesByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	const op = "storage.DeleteProfilesByAdmin"

	query := fmt.Sprintf("DELETE FROM %s WHERE admin_id=$1", profilesTable)
	tag, err := p.db.Exec(ctx, query, adminID)
	if err != nil {
		return 0, wrap(op, err)
	}

	return tag.RowsAffected(), nil
}

// ---- playlists ----

const playlistColumns = "id, name, admin_id, associated_profiles::text[], created_at"

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var (
		pl       models.Playlist
		profiles []string
	)

	if err := row.Scan(&pl.ID, &pl.Name, &pl.AdminID, &profiles, &pl.CreatedAt); err != nil {
		return pl, err
	}

	ids, err := parseUUIDs(profiles)
	if err != nil {
		return pl, err
	}
	pl.AssociatedProfiles = ids

	return pl, nil
}

func (p *PostgresStorage) queryPlaylists(ctx context.Context, op, query string, args ...interface{}) ([]models.Playlist, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return playlists, nil
}

func (p *PostgresStorage) CreatePlaylist(ctx context.Context, pl models.Playlist) error {
	const op = "storage.CreatePlaylist"

	query := fmt.Sprintf(`INSERT INTO %s(id, name, admin_id, associated_profiles, created_at)
	VALUES ($1, $2, $3, $4::uuid[], $5)`, playlistsTable)

	_, err := p.db.Exec(ctx, query, pl.ID, pl.Name, pl.AdminID, uuidStrings(pl.AssociatedProfiles), pl.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}

	return nil
}

func (p *PostgresStorage) GetPlaylistByID(ctx context.Context, id uuid.UUID) (models.Playlist, error) {
	const op = "storage.GetPlaylistByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", playlistColumns, playlistsTable)

	pl, err := scanPlaylist(p.db.QueryRow(ctx, query, id))
	if err != nil {
		return pl, wrap(op, err)
	}

	return pl, nil
}

func (p *PostgresStorage) ListPlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Playlist, error) {
	const op = "storage.ListPlaylistsByAdmin"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE admin_id=$1 ORDER BY created_at", playlistColumns, playlistsTable)

	return p.queryPlaylists(ctx, op, query, adminID)
}

func (p *PostgresStorage) ListPlaylistsByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Playlist, error) {
	const op = "storage.ListPlaylistsByProfile"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE $1::uuid = ANY(associated_profiles) ORDER BY created_at",
		playlistColumns, playlistsTable)

	return p.queryPlaylists(ctx, op, query, profileID)
}

func (p *PostgresStorage) UpdatePlaylist(ctx context.Context, pl models.Playlist) error {
	const op = "storage.UpdatePlaylist"

	query := fmt.Sprintf("UPDATE %s SET name=$2, associated_profiles=$3::uuid[] WHERE id=$1", playlistsTable)
	tag, err := p.db.Exec(ctx, query, pl.ID, pl.Name, uuidStrings(pl.AssociatedProfiles))

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) RemoveProfileFromPlaylists(ctx context.Context, profileID uuid.UUID) error {
	const op = "storage.RemoveProfileFromPlaylists"

	query := fmt.Sprintf(`UPDATE %s SET associated_profiles = array_remove(associated_profiles, $1::uuid)
	WHERE $1::uuid = ANY(associated_profiles)`, playlistsTable)

	if _, err := p.db.Exec(ctx, query, profileID); err != nil {
		return wrap(op, err)
	}

	return nil
}

func (p *PostgresStorage) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeletePlaylist"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1", playlistsTable)
	tag, err := p.db.Exec(ctx, query, id)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) DeletePlaylistsByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	const op = "storage.DeletePlaylistsByAdmin"

	query := fmt.Sprintf("DELETE FROM %s WHERE admin_id=$1", playlistsTable)
	tag, err := p.db.Exec(ctx, query, adminID)
	if err != nil {
		return 0, wrap(op, err)
	}

	return tag.RowsAffected(), nil
}

// ---- videos ----

const videoColumns = "id, name, url, description, playlist_id, admin_id, created_at"

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Name, &v.URL, &v.Description, &v.PlaylistID, &v.AdminID, &v.CreatedAt)

	return v, err
}

func (p *PostgresStorage) CreateVideo(ctx context.Context, v models.Video) error {
	const op = "storage.CreateVideo"

	query := fmt.Sprintf("INSERT INTO %s(%s) VALUES ($1, $2, $3, $4, $5, $6, $7)", videosTable, videoColumns)

	_, err := p.db.Exec(ctx, query, v.ID, v.Name, v.URL, v.Description, v.PlaylistID, v.AdminID, v.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}

	return nil
}

func (p *PostgresStorage) GetVideoByID(ctx context.Context, id uuid.UUID) (models.Video, error) {
	const op = "storage.GetVideoByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", videoColumns, videosTable)

	v, err := scanVideo(p.db.QueryRow(ctx, query, id))
	if err != nil {
		return v, wrap(op, err)
	}

	return v, nil
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (p *PostgresStorage) ListVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	const op = "storage.ListVideos"

	if filter.PlaylistIDs != nil && len(filter.PlaylistIDs) == 0 {
		return []models.Video{}, nil
	}

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.AdminID.IsNil() {
		where = append(where, "admin_id="+arg(filter.AdminID))
	}
	if !filter.PlaylistID.IsNil() {
		where = append(where, "playlist_id="+arg(filter.PlaylistID))
	}
	if filter.PlaylistIDs != nil {
		where = append(where, "playlist_id = ANY("+arg(uuidStrings(filter.PlaylistIDs))+"::uuid[])")
	}
	if filter.Search != "" {
		pattern := arg("%" + escapeLike(filter.Search) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", pattern, pattern))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", videoColumns, videosTable)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return videos, nil
}

func (p *PostgresStorage) CountVideos(ctx context.Context, playlistID uuid.UUID) (int, error) {
	const op = "storage.CountVideos"

	var count int
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE playlist_id=$1", videosTable)

	if err := p.db.QueryRow(ctx, query, playlistID).Scan(&count); err != nil {
		return 0, wrap(op, err)
	}

	return count, nil
}

func (p *PostgresStorage) UpdateVideo(ctx context.Context, v models.Video) error {
	const op = "storage.UpdateVideo"

	query := fmt.Sprintf(`UPDATE %s SET name=$2, url=$3, description=$4, playlist_id=$5, admin_id=$6
	WHERE id=$1`, videosTable)
	tag, err := p.db.Exec(ctx, query, v.ID, v.Name, v.URL, v.Description, v.PlaylistID, v.AdminID)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteVideo"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1", videosTable)
	tag, err := p.db.Exec(ctx, query, id)

	return expectOne(op, tag, err)
}

func (p *PostgresStorage) DeleteVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) (int64, error) {
	const op = "storage.DeleteVideosByPlaylist"

	query := fmt.Sprintf("DELETE FROM %s WHERE playlist_id=$1", videosTable)
	tag, err := p.db.Exec(ctx, query, playlistID)
	if err != nil {
		return 0, wrap(op, err)
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresStorage) DeleteVideosByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	const op = "storage.DeleteVideosByAdmin"

	query := fmt.Sprintf("DELETE FROM %s WHERE admin_id=$1", videosTable)
	tag, err := p.db.Exec(ctx, query, adminID)
	if err != nil {
		return 0, wrap(op, err)
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}
