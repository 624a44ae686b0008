package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var _ ports.AccountService = (*AccountServiceImpl)(nil)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	userRepo     ports.UserRepository
	walletRepo   ports.WalletRepository
	verifyRepo   ports.VerificationRepository
	verification ports.VerificationService
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	verifyRepo ports.VerificationRepository,
	verification ports.VerificationService,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		userRepo:     userRepo,
		walletRepo:   walletRepo,
		verifyRepo:   verifyRepo,
		verification: verification,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		transactor:   transactor,
		log:          log,
	}
}

// StartRegistration sends a phone code for a number that has no account yet.
func (s *AccountServiceImpl) StartRegistration(ctx context.Context, phone string) (*domain.IssueResult, error) {
	phone = strings.TrimSpace(phone)
	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("check phone: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrPhoneExists()
	}
	return s.verification.Issue(ctx, domain.ChannelSMS, phone)
}

// VerifyRegistration consumes the phone code.
func (s *AccountServiceImpl) VerifyRegistration(ctx context.Context, phone string, code string) (*domain.VerifiedOutcome, error) {
	return s.verification.Verify(ctx, domain.ChannelSMS, phone, code)
}

// CompleteRegistration creates a verified user and its zero-balance wallet.
// The phone must have a consumed code; the code is discarded in the same
// transaction so it cannot complete a second registration.
func (s *AccountServiceImpl) CompleteRegistration(ctx context.Context, req ports.RegistrationRequest) (*domain.User, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.verification.RequireConsumed(ctx, domain.ChannelSMS, phone); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, username, email, phone); err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: passwordHash,
		Verified:     true,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = dbTx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, registrationConflict(err)
	}
	if err := s.walletRepo.Create(ctx, dbTx, &domain.Wallet{UserID: user.ID, Balance: decimal.Zero}); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("create wallet: %w", err))
	}
	if err := s.verifyRepo.Delete(ctx, dbTx, domain.ChannelSMS, phone); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("discard verification record: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("commit registration: %w", err))
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login authenticates by email and password and returns a JWT.
func (s *AccountServiceImpl) Login(ctx context.Context, email string, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", time.Time{}, apperror.ErrStoreUnavailable(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !user.Verified {
		return "", time.Time{}, apperror.ErrUserNotVerified()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiresAt, nil
}

// RequestEmailVerification sends a code to the caller's email address.
func (s *AccountServiceImpl) RequestEmailVerification(ctx context.Context, userID int64) (*domain.IssueResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, apperror.Validation("email is already verified")
	}
	return s.verification.Issue(ctx, domain.ChannelEmail, user.Email)
}

// VerifyEmail consumes the email code and marks the address verified.
func (s *AccountServiceImpl) VerifyEmail(ctx context.Context, userID int64, code string) (*domain.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.verification.Verify(ctx, domain.ChannelEmail, user.Email, code); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetEmailVerified(ctx, userID); err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	user.EmailVerified = true
	return user, nil
}

// GetProfile returns the caller's account.
func (s *AccountServiceImpl) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.loadUser(ctx, userID)
}

// UpdateEmail replaces the caller's email address. The new address must be
// verified again before it counts as verified.
func (s *AccountServiceImpl) UpdateEmail(ctx context.Context, userID int64, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Email == email {
		return user, nil
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	if err := s.userRepo.UpdateEmail(ctx, userID, email); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.ErrStoreUnavailable(err)
	}

	user.Email = email
	user.EmailVerified = false
	s.log.Info().Int64("user_id", userID).Msg("email address changed")
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AccountServiceImpl) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := s.hashSvc.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return apperror.ErrInvalidCredentials()
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return apperror.ErrStoreUnavailable(err)
	}

	s.log.Info().Int64("user_id", userID).Msg("password changed")
	return nil
}

// hashPassword passes input errors such as an over-long password through.
func (s *AccountServiceImpl) hashPassword(password string) (string, error) {
	hash, err := s.hashSvc.Hash(password)
	if apperror.KindOf(err) == apperror.KindInvalidInput {
		return "", err
	}
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}
	return hash, nil
}

func (s *AccountServiceImpl) loadUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}
	return user, nil
}

// checkUnique reports duplicates early with a precise error. The unique
// indexes still decide races, see registrationConflict.
func (s *AccountServiceImpl) checkUnique(ctx context.Context, username, email, phone string) error {
	checks := []struct {
		lookup func(context.Context, string) (*domain.User, error)
		value  string
		err    func() *apperror.AppError
	}{
		{s.userRepo.GetByUsername, username, apperror.ErrUsernameExists},
		{s.userRepo.GetByEmail, email, apperror.ErrEmailExists},
		{s.userRepo.GetByPhone, phone, apperror.ErrPhoneExists},
	}
	for _, c := range checks {
		existing, err := c.lookup(ctx, c.value)
		if err != nil {
			return apperror.ErrStoreUnavailable(fmt.Errorf("check uniqueness: %w", err))
		}
		if existing != nil {
			return c.err()
		}
	}
	return nil
}

func registrationConflict(err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return apperror.ErrUsernameExists()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return apperror.ErrEmailExists()
	case errors.Is(err, domain.ErrDuplicatePhone):
		return apperror.ErrPhoneExists()
	}
	return apperror.ErrStoreUnavailable(fmt.Errorf("create user: %w", err))
}
