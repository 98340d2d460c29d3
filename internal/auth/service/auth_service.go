package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/auth/email"
	"github.com/campushub/campushub-backend/internal/auth/verification"
	"github.com/campushub/campushub-backend/internal/logging"
	"github.com/campushub/campushub-backend/internal/users/domain"
	"github.com/campushub/campushub-backend/internal/validation"
)

type UserStore interface {
	GetByPCNumber(ctx context.Context, pc int64) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	SetMail(ctx context.Context, id, mail string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type CodeStore interface {
	Issue(ctx context.Context, userID, mail string) (string, error)
	Confirm(ctx context.Context, userID, code string) (string, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	codes  CodeStore
	mailer email.Sender
	cost   int
}

func NewAuthService(users UserStore, tokens TokenIssuer, codes CodeStore, mailer email.Sender) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		codes:  codes,
		mailer: mailer,
		cost:   bcrypt.DefaultCost,
	}
}

// LoginRequest is the login payload; Login is the student PC number.
type LoginRequest struct {
	Login    int64  `json:"login" validate:"required,gt=0"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

func ParseLogin(req LoginRequest) (LoginRequest, error) {
	if err := validation.Struct(req); err != nil {
		return LoginRequest{}, err
	}
	return req, nil
}

// Login authenticates by PC number and password. The first login of an
// unknown PC number provisions the account with that password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, error) {
	u, err := s.users.GetByPCNumber(ctx, req.Login)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		u, err = s.provision(ctx, req)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	case u.PasswordHash == "":
		hash, err := s.hash(req.Password)
		if err != nil {
			return "", err
		}
		if err := s.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
			return "", err
		}
	default:
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			return "", apperr.Unauthorized("invalid credentials")
		}
	}

	return s.tokens.Issue(u.ID)
}

func (s *AuthService) provision(ctx context.Context, req LoginRequest) (*domain.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	pc := req.Login
	u := &domain.User{PCNumber: &pc, PasswordHash: hash, Role: domain.RoleStudent}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent first login; retry as a normal login.
		if errors.Is(err, apperr.ErrConflict) {
			existing, gerr := s.users.GetByPCNumber(ctx, pc)
			if gerr != nil {
				return nil, gerr
			}
			if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(req.Password)) != nil {
				return nil, apperr.Unauthorized("invalid credentials")
			}
			return existing, nil
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("user provisioned on first login", zap.String("user_id", u.ID))
	return u, nil
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

type EmailRequest struct {
	Mail string `json:"mail" validate:"required,email,max=254"`
}

type EmailConfirm struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// RequestEmailVerification sends a confirmation code to the given address.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string, req EmailRequest) error {
	req.Mail = strings.TrimSpace(strings.ToLower(req.Mail))
	if err := validation.Struct(req); err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, userID, req.Mail)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, email.Message{
		To:      req.Mail,
		Subject: "Your CampusHub verification code",
		Body:    fmt.Sprintf("Your verification code is %s.\r\n", code),
	})
}

// ConfirmEmail checks the code and stores the verified address.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID string, req EmailConfirm) (string, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := validation.Struct(req); err != nil {
		return "", err
	}

	mail, err := s.codes.Confirm(ctx, userID, req.Code)
	if err != nil {
		if errors.Is(err, verification.ErrNoPendingCode) || errors.Is(err, verification.ErrCodeMismatch) {
			return "", apperr.Validation("invalid or expired code", map[string]string{"code": err.Error()})
		}
		return "", err
	}
	if err := s.users.SetMail(ctx, userID, mail); err != nil {
		return "", err
	}
	return mail, nil
}
