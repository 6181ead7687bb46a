package auth

import (
	"context"
	"errors"
	"strings"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/sanitizer"
	"taskhub/internal/pkg/validator"
)

type TokenIssuer interface {
	GenerateToken(userID int64, email, role string) (string, error)
}

type Service struct {
	users  *UserRepository
	tokens TokenIssuer
	log    *logger.Logger
}

func NewService(users *UserRepository, tokens TokenIssuer, log *logger.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

// Register creates an account, or claims the guest account a previous
// booking created for the same email.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid registration").WithDetails(map[string]any{"fields": fields})
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}

	phone := ""
	if req.Phone != "" {
		if phone = sanitizer.NormalizePhone(req.Phone); phone == "" {
			return nil, apperr.Validation("invalid phone number")
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &domain.User{Email: req.Email, PasswordHash: hash, Name: req.Name, Phone: phone, Role: req.Role}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		u.ID = existing.ID
		u.Address = existing.Address
		u.CreatedAt = existing.CreatedAt
		err = s.users.Claim(ctx, u)
		if err == nil {
			s.log.Info("guest account claimed", "user_id", u.ID)
		}
	case errors.Is(err, ErrUserNotFound):
		err = s.users.Create(ctx, u)
		if database.IsUniqueViolation(err) {
			err = ErrEmailAlreadyExists
		}
	}
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, apperr.Conflict("this email is already registered")
		}
		return nil, apperr.Store(err)
	}

	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid credentials").WithDetails(map[string]any{"fields": fields})
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Store(err)
	}
	if u == nil || CheckPassword(req.Password, u.PasswordHash) != nil {
		return nil, apperr.Unauthorized("email or password is incorrect")
	}
	return s.issue(u)
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid profile").WithDetails(map[string]any{"fields": fields})
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		phone := sanitizer.NormalizePhone(*req.Phone)
		if phone == "" && strings.TrimSpace(*req.Phone) != "" {
			return nil, apperr.Validation("invalid phone number")
		}
		updates["phone"] = phone
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	return s.update(ctx, userID, updates)
}

// UpdateAddress replaces the saved address bookings fall back to.
func (s *Service) UpdateAddress(ctx context.Context, userID int64, addr domain.Address) (*domain.User, error) {
	if fields := validator.Validate(&addr); fields != nil {
		return nil, apperr.Validation("invalid address").WithDetails(map[string]any{"fields": fields})
	}

	return s.update(ctx, userID, map[string]any{
		"address_line1":    strings.TrimSpace(addr.Line1),
		"address_line2":    strings.TrimSpace(addr.Line2),
		"address_postcode": addr.Postcode,
		"address_city":     strings.TrimSpace(addr.City),
		"address_state":    strings.TrimSpace(addr.State),
	})
}

func (s *Service) update(ctx context.Context, userID int64, updates map[string]any) (*domain.User, error) {
	if err := s.users.Update(ctx, userID, updates); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}
	return s.Me(ctx, userID)
}

func (s *Service) issue(u *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{User: u, AccessToken: token}, nil
}
