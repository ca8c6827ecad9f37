package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"playlist_service/internal/auth"
	"playlist_service/internal/authz"
	"playlist_service/internal/models"
	"playlist_service/internal/storage"

	"github.com/gofrs/uuid"
)

const birthdateLayout = "2006-01-02"

type RegisterInput struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,notblank,max=72"`
	RepeatPassword string `json:"repeat_password" validate:"omitempty,eqfield=Password"`
	Phone          string `json:"phone_number" validate:"required,notblank"`
	Pin            string `json:"pin" validate:"required,notblank"`
	Name           string `json:"name" validate:"required,notblank"`
	LastName       string `json:"last_name" validate:"required,notblank"`
	Country        string `json:"country"`
	Birthdate      string `json:"birthdate" validate:"required,datetime=2006-01-02"`
}

// AccountUpdate holds the self-service mutable fields of an account.
// Nil fields are left untouched.
type AccountUpdate struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,notblank,max=72"`
	Phone    *string `json:"phone_number" validate:"omitempty,notblank"`
	Pin      *string `json:"pin" validate:"omitempty,notblank"`
	Name     *string `json:"name" validate:"omitempty,notblank"`
	LastName *string `json:"last_name" validate:"omitempty,notblank"`
	Country  *string `json:"country"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ageAt returns the number of whole years between birthdate and now.
func ageAt(birthdate, now time.Time) int {
	age := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		age--
	}

	return age
}

func (s *service) Register(ctx context.Context, in RegisterInput) (models.Account, error) {
	const op = "service.Register"

	log := s.log.With(slog.String("op", op))

	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return models.Account{}, err
	}

	birthdate, err := time.Parse(birthdateLayout, in.Birthdate)
	if err != nil {
		return models.Account{}, unprocessable("birthdate must be formatted as YYYY-MM-DD")
	}
	if ageAt(birthdate, s.now()) < s.opts.MinimumAge {
		return models.Account{}, unprocessable(fmt.Sprintf("user must be at least %d years old", s.opts.MinimumAge))
	}

	if _, err := s.storage.GetAccountByEmail(ctx, in.Email); err == nil {
		return models.Account{}, unprocessable("email already registered")
	} else if !isNotFound(err) {
		return models.Account{}, internal(op, err)
	}

	passwordHash, err := auth.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		if auth.IsHashTooLong(err) {
			return models.Account{}, unprocessable("password too long")
		}
		return models.Account{}, internal(op, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Account{}, internal(op, err)
	}

	acc := models.Account{
		ID:           id,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Phone:        in.Phone,
		Pin:          in.Pin,
		Name:         in.Name,
		LastName:     in.LastName,
		Country:      in.Country,
		Birthdate:    birthdate,
		Confirmed:    false,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.storage.CreateAccount(ctx, acc); err != nil {
		// Lost a race against a concurrent registration; the unique index wins.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Account{}, unprocessable("email already registered")
		}
		return models.Account{}, internal(op, err)
	}

	log.Info("account registered", slog.String("account_id", acc.ID.String()))

	s.sendConfirmation(ctx, acc)

	return acc, nil
}

func (s *service) confirmationLink(id uuid.UUID) string {
	q := url.Values{}
	q.Set("id", id.String())

	return strings.TrimRight(s.opts.PublicURL, "/") + "/api/users/confirm?" + q.Encode()
}

// sendConfirmation mails the confirmation link in the background. Delivery
// failures are logged and never reach the caller.
func (s *service) sendConfirmation(ctx context.Context, acc models.Account) {
	const op = "service.sendConfirmation"

	if s.mailer == nil {
		return
	}

	link := s.confirmationLink(acc.ID)
	log := s.log.With(slog.String("op", op), slog.String("account_id", acc.ID.String()))

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.EmailTimeout)
		defer cancel()

		if err := s.mailer.SendConfirmation(ctx, acc.Email, acc.Name, link); err != nil {
			log.Error("failed to send confirmation email", slog.Any("error", err))
			return
		}

		log.Info("confirmation email sent")
	}()
}

func (s *service) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	const op = "service.ConfirmEmail"

	if err := s.storage.ConfirmAccount(ctx, id); err != nil {
		if isNotFound(err) {
			return notFound("user doesn't exist")
		}
		return internal(op, err)
	}

	s.log.Info("account confirmed", slog.String("op", op), slog.String("account_id", id.String()))

	return nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.Login"

	acc, err := s.storage.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return "", unprocessable("invalid credentials")
		}
		return "", internal(op, err)
	}

	if ok := auth.CheckPasswordHash(acc.PasswordHash, password); !ok {
		return "", unprocessable("invalid credentials")
	}

	if !acc.Confirmed {
		return "", forbidden("account email has not been confirmed")
	}

	token, err := s.tokens.Issue(acc.ID, acc.Email, strings.TrimSpace(acc.Name+" "+acc.LastName))
	if err != nil {
		return "", internal(op, err)
	}

	if err := s.sessions.OpenSession(ctx, acc.Email, s.tokens.TTL()); err != nil {
		return "", internal(op, err)
	}

	return token, nil
}

func (s *service) Logout(ctx context.Context, p auth.Principal) error {
	const op = "service.Logout"

	if err := requireAdmin(p); err != nil {
		return err
	}

	existed, err := s.sessions.CloseSession(ctx, p.Email)
	if err != nil {
		return internal(op, err)
	}
	if !existed {
		s.log.Debug("no active session marker", slog.String("op", op), slog.String("account_id", p.ID.String()))
	}

	if err := s.revoke(ctx, p); err != nil {
		return internal(op, err)
	}

	return nil
}

// revoke records p's token in the ledger until it would have expired anyway.
func (s *service) revoke(ctx context.Context, p auth.Principal) error {
	if p.Token == "" {
		return nil
	}

	ttl := s.tokens.TTL()
	if p.ExpiresAt > 0 {
		ttl = time.Unix(p.ExpiresAt, 0).Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}

	return s.sessions.Revoke(ctx, p.Token, ttl)
}

// loadOwnAccount loads id and checks that p may manage it. Existence is
// checked first.
func (s *service) loadOwnAccount(ctx context.Context, op string, p auth.Principal, id uuid.UUID) (models.Account, error) {
	if err := requireAdmin(p); err != nil {
		return models.Account{}, err
	}

	acc, err := s.storage.GetAccountByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Account{}, notFound("user doesn't exist")
		}
		return models.Account{}, internal(op, err)
	}

	if !authz.CanManage(p, authz.Account(acc)) {
		return models.Account{}, forbidden("you can only access your own account")
	}

	return acc, nil
}

func (s *service) GetAccount(ctx context.Context, p auth.Principal, id uuid.UUID) (models.Account, error) {
	const op = "service.GetAccount"

	return s.loadOwnAccount(ctx, op, p, id)
}

func (s *service) UpdateAccount(ctx context.Context, p auth.Principal, id uuid.UUID, upd AccountUpdate) (models.Account, error) {
	const op = "service.UpdateAccount"

	acc, err := s.loadOwnAccount(ctx, op, p, id)
	if err != nil {
		return models.Account{}, err
	}

	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
	}
	if err := s.check(upd); err != nil {
		return models.Account{}, err
	}

	oldEmail := acc.Email
	if upd.Email != nil {
		acc.Email = *upd.Email
	}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password, s.opts.BcryptCost)
		if err != nil {
			if auth.IsHashTooLong(err) {
				return models.Account{}, unprocessable("password too long")
			}
			return models.Account{}, internal(op, err)
		}
		acc.PasswordHash = hash
	}
	if upd.Phone != nil {
		acc.Phone = *upd.Phone
	}
	if upd.Pin != nil {
		acc.Pin = *upd.Pin
	}
	if upd.Name != nil {
		acc.Name = *upd.Name
	}
	if upd.LastName != nil {
		acc.LastName = *upd.LastName
	}
	if upd.Country != nil {
		acc.Country = *upd.Country
	}

	if err := s.storage.UpdateAccount(ctx, acc); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Account{}, unprocessable("email already registered")
		}
		return models.Account{}, internal(op, err)
	}

	if acc.Email != oldEmail {
		if err := s.moveSession(ctx, oldEmail, acc.Email); err != nil {
			return models.Account{}, internal(op, err)
		}
	}

	return acc, nil
}

// moveSession re-keys an active session marker after an email change.
func (s *service) moveSession(ctx context.Context, from, to string) error {
	existed, err := s.sessions.CloseSession(ctx, from)
	if err != nil || !existed {
		return err
	}

	return s.sessions.OpenSession(ctx, to, s.tokens.TTL())
}

// DeleteAccount removes the account together with everything it owns, closes
// its session marker and revokes the token used for the request.
func (s *service) DeleteAccount(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	const op = "service.DeleteAccount"

	log := s.log.With(slog.String("op", op), slog.String("account_id", id.String()))

	acc, err := s.loadOwnAccount(ctx, op, p, id)
	if err != nil {
		return err
	}

	profiles, err := s.storage.DeleteProfilesByAdmin(ctx, acc.ID)
	if err != nil {
		return internal(op, err)
	}

	videos, err := s.storage.DeleteVideosByAdmin(ctx, acc.ID)
	if err != nil {
		return internal(op, err)
	}

	playlists, err := s.storage.DeletePlaylistsByAdmin(ctx, acc.ID)
	if err != nil {
		return internal(op, err)
	}

	if _, err := s.sessions.CloseSession(ctx, acc.Email); err != nil {
		return internal(op, err)
	}

	if err := s.storage.DeleteAccount(ctx, acc.ID); err != nil {
		if isNotFound(err) {
			return notFound("user doesn't exist")
		}
		return internal(op, err)
	}

	if err := s.revoke(ctx, p); err != nil {
		log.Error("failed to revoke token of deleted account", slog.Any("error", err))
	}

	log.Info("account deleted",
		slog.Int64("profiles", profiles),
		slog.Int64("playlists", playlists),
		slog.Int64("videos", videos),
	)

	return nil
}
