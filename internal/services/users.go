package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	// bcrypt ignores nothing past 72 bytes; it rejects longer input outright.
	maxPasswordLength = 72
)

type UserService struct {
	db       *gorm.DB
	jwt      *auth.JWTManager
	denylist auth.Denylist
	logger   *log.Logger
}

// NewUserService wires account operations. denylist may be nil, in which case
// logout only clears the client cookie.
func NewUserService(db *gorm.DB, jwt *auth.JWTManager, denylist auth.Denylist, logger *log.Logger) *UserService {
	return &UserService{db: db, jwt: jwt, denylist: denylist, logger: defaultLogger(logger)}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	User      types.UserResponse
	Token     string
	ExpiresAt time.Time
}

type UserPatch struct {
	Name        *string
	Email       *string
	OldPassword *string
	NewPassword *string
}

type BoardShares struct {
	SharedTo   []types.UserResponse `json:"sharedTo"`
	SharedWith []types.UserResponse `json:"sharedWith"`
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.UserResponse, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return types.UserResponse{}, apperr.Validation("Credentials is required!")
	}
	if err := checkPasswordLength(input.Password); err != nil {
		return types.UserResponse{}, err
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return types.UserResponse{}, err
	}
	if taken {
		return types.UserResponse{}, apperr.Conflict("User is already Exist")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return types.UserResponse{}, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.insertUser(ctx, &user); err != nil {
		return types.UserResponse{}, err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")

	return toUserResponse(user), nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{}, apperr.Validation("Invalid email or password")
	}
	if err != nil {
		return LoginResult{}, apperr.Internal(fmt.Errorf("load user: %w", err))
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, apperr.Validation("Invalid email or password")
	}

	token, claims, err := s.jwt.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return LoginResult{}, apperr.Internal(fmt.Errorf("generate token: %w", err))
	}

	return LoginResult{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.denylist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

// Authenticate resolves a verified token to its user, rejecting revoked
// tokens and users that no longer exist.
func (s *UserService) Authenticate(ctx context.Context, claims *auth.Claims) (types.UserResponse, error) {
	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return types.UserResponse{}, apperr.Internal(fmt.Errorf("check token revocation: %w", err))
		}
		if revoked {
			return types.UserResponse{}, apperr.Authentication("Invalid or expired token")
		}
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.UserResponse{}, apperr.Authentication("User not found")
	}
	if err != nil {
		return types.UserResponse{}, apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	return toUserResponse(user), nil
}

func (s *UserService) UpdateUser(ctx context.Context, userID uint, patch UserPatch) (types.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return types.UserResponse{}, notFoundOr(err, "User not found")
	}

	updates := make(map[string]interface{})

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}

	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		email := normalizeEmail(*patch.Email)
		if email != user.Email {
			taken, err := s.emailTaken(ctx, email, user.ID)
			if err != nil {
				return types.UserResponse{}, err
			}
			if taken {
				return types.UserResponse{}, apperr.Conflict("This Email is already Exist")
			}
			updates["email"] = email
		}
	}

	if patch.NewPassword != nil && *patch.NewPassword != "" {
		if patch.OldPassword == nil || *patch.OldPassword == "" {
			return types.UserResponse{}, apperr.Validation("Old password is required to change password")
		}
		if !auth.CheckPassword(user.PasswordHash, *patch.OldPassword) {
			return types.UserResponse{}, apperr.Validation("Old password is incorrect")
		}
		if err := checkPasswordLength(*patch.NewPassword); err != nil {
			return types.UserResponse{}, err
		}
		hash, err := auth.HashPassword(*patch.NewPassword)
		if err != nil {
			return types.UserResponse{}, apperr.Internal(fmt.Errorf("hash password: %w", err))
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return types.UserResponse{}, apperr.Validation("No valid fields to update")
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.UserResponse{}, apperr.Conflict("This Email is already Exist")
		}
		return types.UserResponse{}, apperr.Internal(fmt.Errorf("update user: %w", err))
	}

	if err := s.db.WithContext(ctx).First(&user, user.ID).Error; err != nil {
		return types.UserResponse{}, apperr.Internal(fmt.Errorf("refresh user: %w", err))
	}

	return toUserResponse(user), nil
}

func (s *UserService) GetUserName(ctx context.Context, userID uint) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "name").First(&user, userID).Error; err != nil {
		return "", notFoundOr(err, "User not found")
	}
	return user.Name, nil
}

// ListAssigneeEmails returns the e-mail of every user except the caller.
func (s *UserService) ListAssigneeEmails(ctx context.Context, userID uint) ([]string, error) {
	emails := []string{}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", userID).Order("email").Pluck("email", &emails).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list emails: %w", err))
	}
	return emails, nil
}

// ListBoardShares returns both ends of the user's sharing edges.
func (s *UserService) ListBoardShares(ctx context.Context, userID uint) (BoardShares, error) {
	db := s.db.WithContext(ctx)

	toIDs, err := sharedTo(db, userID)
	if err != nil {
		return BoardShares{}, apperr.Internal(err)
	}
	withIDs, err := sharedWith(db, userID)
	if err != nil {
		return BoardShares{}, apperr.Internal(err)
	}

	to, err := s.usersByID(ctx, toIDs)
	if err != nil {
		return BoardShares{}, err
	}
	with, err := s.usersByID(ctx, withIDs)
	if err != nil {
		return BoardShares{}, err
	}
	return BoardShares{SharedTo: to, SharedWith: with}, nil
}

// insertUser relies on the unique e-mail index for registrations that race
// past the emailTaken check.
func (s *UserService) insertUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("User is already Exist")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	return nil
}

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

func (s *UserService) usersByID(ctx context.Context, ids []uint) ([]types.UserResponse, error) {
	out := []types.UserResponse{}
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("load users: %w", err))
	}
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperr.Internal(fmt.Errorf("check email: %w", err))
	}
	return count > 0, nil
}

func toUserResponse(user models.User) types.UserResponse {
	return types.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}
