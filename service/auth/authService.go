package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"bookrental/model"
	userrepo "bookrental/repository/user"
	"bookrental/util/apperr"
	"bookrental/util/database"
	"bookrental/util/hash"
	jwtutil "bookrental/util/jwt"
)

var (
	ErrEmailTaken    = apperr.New(apperr.KindConflict, "EMAIL_TAKEN")
	ErrUsernameTaken = apperr.New(apperr.KindConflict, "USERNAME_TAKEN")
	ErrBadInput      = apperr.New(apperr.KindInvalid, "BAD_INPUT")
	ErrInvalidCreds  = apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS")
)

type DB interface {
	Q() database.Querier
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	// EnsureAdmin creates the account with the admin role, or promotes it
	// when the email is already registered.
	EnsureAdmin(ctx context.Context, req model.RegisterReq) (*model.User, bool, error)
}

type service struct {
	db     DB
	ur     userrepo.Repo
	secret string
	ttl    time.Duration
}

func New(db DB, ur userrepo.Repo, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{db: db, ur: ur, secret: secret, ttl: ttl}
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func validRegister(req model.RegisterReq) bool {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return false
	}
	n := utf8.RuneCountInString(req.Username)
	return n >= 3 && n <= 50 && utf8.RuneCountInString(req.Password) >= 6
}

func (s *service) create(ctx context.Context, req model.RegisterReq, role model.Role) (*model.User, error) {
	req.Email = normEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if !validRegister(req) {
		return nil, ErrBadInput
	}

	q := s.db.Q()
	if _, err := s.ur.ByEmail(ctx, q, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.ur.Create(ctx, q, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	u, err := s.create(ctx, req, model.RoleUser)
	if err != nil {
		return nil, "", err
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// mapDuplicateErr covers the race where two registrations pass the lookup.
func mapDuplicateErr(err error) error {
	cn, ok := database.IsUniqueViolation(err)
	if !ok {
		return nil
	}
	cn = strings.ToLower(cn)
	switch {
	case strings.Contains(cn, "email"):
		return ErrEmailTaken
	case strings.Contains(cn, "username"):
		return ErrUsernameTaken
	}
	return ErrBadInput
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := normEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", ErrBadInput
	}
	u, err := s.ur.ByEmail(ctx, s.db.Q(), email)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, "", ErrInvalidCreds
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) EnsureAdmin(ctx context.Context, req model.RegisterReq) (*model.User, bool, error) {
	q := s.db.Q()
	u, err := s.ur.ByEmail(ctx, q, normEmail(req.Email))
	switch {
	case err == nil:
		if u.Role != model.RoleAdmin {
			if err := s.ur.SetRole(ctx, q, u.ID, model.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("promote user: %w", err)
			}
			u.Role = model.RoleAdmin
		}
		return u, false, nil
	case !errors.Is(err, userrepo.ErrNotFound):
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	u, err = s.create(ctx, req, model.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
