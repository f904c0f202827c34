package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postbox/internal/server/validation"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string
	UserID string
}

// UserService registers accounts and issues session tokens. It keeps no
// state between calls.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.BcryptHasher
	tokens      *auth.TokenService

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.BcryptHasher, tokens *auth.TokenService) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
	}
}

func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {

	if err := validation.AsError(validation.ValidateRegistration(email, password)); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrAlreadyExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		PostIDs:      []string{},
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user.Public(), nil
}

// dummyDigest is compared against when the email is unknown so that both
// login failures cost one bcrypt comparison.
func (s *UserService) dummyDigest() []byte {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("postbox-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Login checks credentials and issues a token. An unknown email yields
// common.ErrorNotFound, a wrong password common.ErrInvalidCredentials; the
// transport reports both the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyDigest())
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.SessionClaims{UserID: user.ID, Email: user.Email}, s.tokens.TTL())
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{Token: token, UserID: user.ID}, nil
}
