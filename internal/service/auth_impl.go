package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	userRepo interfaces.UserRepository
	cache    interfaces.UserCache
	tokens   TokenService
	emails   interfaces.EmailDispatcher
	images   interfaces.ImageUploader
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(
	userRepo interfaces.UserRepository,
	cache interfaces.UserCache,
	tokens TokenService,
	emails interfaces.EmailDispatcher,
	images interfaces.ImageUploader,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		cache:    cache,
		tokens:   tokens,
		emails:   emails,
		images:   images,
		logger:   logger.Named("AuthService"),
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// gravatarURL derives the default avatar for a new account from the email.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s", hex.EncodeToString(sum[:]))
}

func (s *authServiceImpl) Signup(ctx context.Context, username, email, password, baseURL string) (*models.User, error) {
	log := s.logger.With(zap.String("email", email))

	hash, err := HashPassword(password)
	if err != nil {
		log.Error("Password hashing failed", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	avatar := gravatarURL(email)
	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Avatar:   &avatar,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrEmailAlreadyExists) {
			log.Info("Signup rejected: email already registered")
			return nil, models.ErrEmailAlreadyExists
		}
		log.Error("Failed to create user", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	if err := s.cache.UpdateUser(ctx, user); err != nil {
		log.Warn("Failed to cache new user", zap.Error(err))
	}

	// Verification delivery happens out of band; a broker hiccup must not
	// fail the signup itself.
	if err := s.emails.DispatchVerification(ctx, user.Email, user.Username, baseURL); err != nil {
		log.Warn("Failed to dispatch verification email", zap.Error(err))
	}

	log.Info("User signed up", zap.String("userID", user.ID.String()))
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	log := s.logger.With(zap.String("email", email))

	user, err := s.cache.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Info("Login rejected: unknown email")
			return nil, models.ErrInvalidCredentials
		}
		log.Error("Failed to load user for login", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	if !user.EmailVerified {
		log.Info("Login rejected: email not confirmed")
		return nil, models.ErrEmailNotVerified
	}

	if !CheckPassword(user.Password, password) {
		log.Info("Login rejected: wrong password")
		return nil, models.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info("User logged in", zap.String("userID", user.ID.String()))
	return pair, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	email, err := s.tokens.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("email", email))

	user, err := s.cache.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Refresh rejected: token subject no longer exists")
			return nil, models.ErrTokenInvalid
		}
		log.Error("Failed to load user for refresh", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	// A token that was already rotated out (or never issued) is treated as
	// possible theft: revoke the stored token so both parties must re-login.
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		log.Warn("Refresh rejected: presented token does not match stored token, revoking session")
		if revokeErr := s.userRepo.UpdateRefreshToken(ctx, user.ID, nil); revokeErr != nil {
			log.Error("Failed to revoke stored refresh token", zap.Error(revokeErr))
		} else {
			user.RefreshToken = nil
			if cacheErr := s.cache.UpdateUser(ctx, user); cacheErr != nil {
				log.Warn("Failed to refresh cache after revocation", zap.Error(cacheErr))
			}
		}
		return nil, models.ErrRefreshTokenMismatch
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Debug("Token pair rotated", zap.String("userID", user.ID.String()))
	return pair, nil
}

// issueTokens mints a fresh pair and rotates the stored refresh token.
func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	log := s.logger.With(zap.String("email", user.Email))

	accessToken, err := s.tokens.CreateAccessToken(user.Email)
	if err != nil {
		log.Error("Failed to create access token", zap.Error(err))
		return nil, models.ErrInternalServer
	}
	refreshToken, err := s.tokens.CreateRefreshToken(user.Email)
	if err != nil {
		log.Error("Failed to create refresh token", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		log.Error("Failed to store refresh token", zap.Error(err))
		return nil, models.ErrInternalServer
	}
	user.RefreshToken = &refreshToken
	if err := s.cache.UpdateUser(ctx, user); err != nil {
		log.Warn("Failed to refresh cache after token rotation", zap.Error(err))
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func (s *authServiceImpl) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.EmailFromToken(token)
	if err != nil {
		return false, models.ErrEmailTokenInvalid
	}
	log := s.logger.With(zap.String("email", email))

	user, err := s.cache.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Confirmation rejected: token subject does not exist")
			return false, models.ErrVerificationFailed
		}
		log.Error("Failed to load user for confirmation", zap.Error(err))
		return false, models.ErrInternalServer
	}

	if user.EmailVerified {
		log.Debug("Email already confirmed")
		return true, nil
	}

	if err := s.userRepo.MarkEmailVerified(ctx, email); err != nil {
		log.Error("Failed to mark email verified", zap.Error(err))
		return false, models.ErrInternalServer
	}
	user.EmailVerified = true
	if err := s.cache.UpdateUser(ctx, user); err != nil {
		log.Warn("Failed to refresh cache after confirmation", zap.Error(err))
	}

	log.Info("Email confirmed")
	return false, nil
}

func (s *authServiceImpl) ResendVerification(ctx context.Context, email, baseURL string) (bool, error) {
	log := s.logger.With(zap.String("email", email))

	user, err := s.cache.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Info("Resend rejected: unknown email")
			return false, models.ErrInvalidCredentials
		}
		log.Error("Failed to load user for resend", zap.Error(err))
		return false, models.ErrInternalServer
	}

	if user.EmailVerified {
		return true, nil
	}

	if err := s.emails.DispatchVerification(ctx, user.Email, user.Username, baseURL); err != nil {
		log.Warn("Failed to dispatch verification email", zap.Error(err))
	}
	return false, nil
}

func (s *authServiceImpl) TrackOpen(ctx context.Context, email string) {
	if err := s.userRepo.MarkVerificationOpened(ctx, email); err != nil {
		s.logger.Warn("Failed to record letter open", zap.Error(err), zap.String("email", email))
		return
	}
	// Keep the cached snapshot in step with the row it mirrors.
	if user, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
		if cacheErr := s.cache.UpdateUser(ctx, user); cacheErr != nil {
			s.logger.Warn("Failed to refresh cache after letter open", zap.Error(cacheErr), zap.String("email", email))
		}
	}
}

func (s *authServiceImpl) CurrentUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.cache.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("Failed to load current user", zap.Error(err), zap.String("email", email))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

func (s *authServiceImpl) UpdateAvatar(ctx context.Context, email string, file io.Reader) (*models.User, error) {
	log := s.logger.With(zap.String("email", email))

	url, err := s.images.Upload(ctx, file, fmt.Sprintf("contacts_api/%s", email))
	if err != nil {
		log.Error("Avatar upload failed", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	user, err := s.userRepo.UpdateAvatar(ctx, email, &url)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		log.Error("Failed to store avatar URL", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	if err := s.cache.UpdateUser(ctx, user); err != nil {
		log.Warn("Failed to refresh cache after avatar update", zap.Error(err))
	}

	log.Info("Avatar updated", zap.String("url", url))
	return user, nil
}
