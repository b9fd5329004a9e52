// Package service provides the business logic of NoteKeeper: registration
// and login, notes, groups and user lookup. Persistence is delegated to
// repository interfaces.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/hasher"
	"github.com/atinyakov/NoteKeeper/internal/invitation"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ConfirmationSubject is the subject of the registration mail.
	ConfirmationSubject = "Confirm registration for NoteKeeper"
	// MailTimeout bounds the delivery of a single mail.
	MailTimeout = 30 * time.Second
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreatePending stores an inactive user and its invitation atomically.
	CreatePending(ctx context.Context, u models.User, inv models.Invitation) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetInvitation(ctx context.Context, id string) (models.Invitation, error)
	// Activate resolves the invitation and activates the user, or returns
	// repository.ErrInvitationClosed if either was already consumed.
	Activate(ctx context.Context, invitationID, userID string, now time.Time) error
}

// PasswordHasher hashes and verifies user credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// AuthService implements registration, confirmation and login.
type AuthService struct {
	repo       AuthRepository
	hasher     PasswordHasher
	mail       mailer.Sender
	confirmURL func(invitationID string) string
	log        *zap.Logger
	now        func() time.Time
	// dummyHash is verified against when no stored hash exists, so unknown
	// accounts cost the same as known ones.
	dummyHash string
}

// NewAuthService constructs an AuthService. confirmURL turns an invitation id
// into the link mailed to the user.
func NewAuthService(
	repo AuthRepository,
	h PasswordHasher,
	sender mailer.Sender,
	confirmURL func(invitationID string) string,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	dummy, err := h.Hash(uuid.NewString())
	if err != nil {
		log.Warn("cannot prepare dummy password hash", zap.Error(err))
	}
	return &AuthService{
		repo:       repo,
		hasher:     h,
		mail:       sender,
		confirmURL: confirmURL,
		log:        log,
		now:        time.Now,
		dummyHash:  dummy,
	}
}

// verifyDummy spends the same work as a real password check.
func (s *AuthService) verifyDummy(password string) {
	_, _ = s.hasher.Verify(s.dummyHash, password)
}

// Register stores an inactive user with a fresh invitation and mails the
// confirmation link. Mail delivery happens in the background and its failure
// does not undo the registration.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.Invitation, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return models.Invitation{}, apperr.ErrInternal
	}

	u := models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: hash,
		Active:   0,
	}
	inv := invitation.IssueFor(u, s.now())

	if err := s.repo.CreatePending(ctx, u, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.log.Info("registration for taken email", zap.String("email", email))
		} else {
			s.log.Error("create pending user", zap.Error(err))
		}
		return models.Invitation{}, apperr.ErrInternal
	}

	go s.sendConfirmation(inv)
	return inv, nil
}

func (s *AuthService) sendConfirmation(inv models.Invitation) {
	if s.mail == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), MailTimeout)
	defer cancel()

	if err := s.mail.Send(ctx, inv.Email, ConfirmationSubject, s.confirmURL(inv.ID)); err != nil {
		s.log.Error("send confirmation mail",
			zap.String("invitation_id", inv.ID),
			zap.Error(err),
		)
	}
}

// Confirm consumes the invitation and activates its user, provided the
// credentials match the registration. Every rejection is apperr.ErrUnauthorized;
// the reason only goes to the log.
func (s *AuthService) Confirm(ctx context.Context, invitationID, email, password string) (models.Principal, error) {
	reject := func(reason string) (models.Principal, error) {
		s.log.Info("confirmation rejected",
			zap.String("reason", reason),
			zap.String("invitation_id", invitationID),
			zap.String("email", email),
		)
		return models.Principal{}, apperr.ErrUnauthorized
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		s.verifyDummy(password)
		return reject("unknown email")
	}
	if err != nil {
		s.log.Error("load user", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}

	inv, err := s.repo.GetInvitation(ctx, invitationID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.verifyDummy(password)
		return reject("unknown invitation")
	}
	if err != nil {
		s.log.Error("load invitation", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}
	if inv.Email != u.Email {
		s.verifyDummy(password)
		return reject("invitation issued for another email")
	}

	ok, err := s.hasher.Verify(u.Password, password)
	if errors.Is(err, hasher.ErrMalformedHash) {
		return reject("malformed stored hash")
	}
	if err != nil {
		s.log.Error("verify password", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}
	if !ok {
		return reject("wrong password")
	}

	now := s.now()
	if !invitation.IsOpen(inv, now) {
		return reject("invitation resolved or expired")
	}

	err = s.repo.Activate(ctx, inv.ID, u.ID, now)
	if errors.Is(err, repository.ErrInvitationClosed) {
		return reject("invitation consumed concurrently")
	}
	if err != nil {
		s.log.Error("activate user", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}

	s.log.Info("user activated", zap.String("user_id", u.ID))
	return models.PrincipalFrom(u), nil
}

// Login checks the credentials of an active user. Accounts whose invitation
// was never confirmed are rejected even with the right password.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Principal, error) {
	reject := func(reason string) (models.Principal, error) {
		s.log.Info("login rejected", zap.String("reason", reason), zap.String("email", email))
		return models.Principal{}, apperr.ErrUnauthorized
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		s.verifyDummy(password)
		return reject("unknown email")
	}
	if err != nil {
		s.log.Error("load user", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}

	ok, err := s.hasher.Verify(u.Password, password)
	if errors.Is(err, hasher.ErrMalformedHash) {
		return reject("malformed stored hash")
	}
	if err != nil {
		s.log.Error("verify password", zap.Error(err))
		return models.Principal{}, apperr.ErrInternal
	}
	if !ok {
		return reject("wrong password")
	}
	if u.Active != 1 {
		return reject("user not confirmed")
	}
	return models.PrincipalFrom(u), nil
}
