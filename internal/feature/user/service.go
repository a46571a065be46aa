package user

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/core/auth"
	"go-gin-gorm-cms/internal/domain"
	"go-gin-gorm-cms/pkg/utils"
)

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate 校验规范化后的值，调用方的入参不变
func (in RegisterInput) Validate() error {
	in = in.normalized()
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat, validation.Length(0, 191)),
		validation.Field(&in.FirstName, validation.Required, validation.RuneLength(2, 64)),
		validation.Field(&in.LastName, validation.Required, validation.RuneLength(2, 64)),
		validation.Field(&in.Password,
			validation.Required,
			validation.Length(8, 72),
			validation.Match(hasLower).Error("must contain a lowercase letter"),
			validation.Match(hasUpper).Error("must contain an uppercase letter"),
			validation.Match(hasDigit).Error("must contain a number"),
		),
	)
}

func (in RegisterInput) normalized() RegisterInput {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	in.Email = normalizeEmail(in.Email)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required),
	)
}

// Summary is the public view of a user.
type Summary struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func NewSummary(u *domain.User) Summary {
	return Summary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

type AuthResult struct {
	AccessToken string  `json:"accessToken"`
	User        Summary `json:"user"`
}

type Service struct {
	repo domain.UserRepository
	jwt  *auth.JWTer
	log  *zap.Logger
}

func NewService(repo domain.UserRepository, j *auth.JWTer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, jwt: j, log: log.Named("user")}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with this email already exists: %w", domain.ErrConflict)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleUser,
	}
	// 并发注册同一邮箱时由唯一索引兜底，仓储层会归类为 ErrConflict
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.Uint64("id", u.ID))
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	u, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.issue(u)
}

// Profile reloads the user behind a token.
func (s *Service) Profile(ctx context.Context, id uint64) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *Service) issue(u *domain.User) (*AuthResult, error) {
	tok, err := s.jwt.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{AccessToken: tok, User: NewSummary(u)}, nil
}
