package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/auth"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/cryptox"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/google/uuid"
)

const (
	settingSalt     = "auth.salt"
	settingVerifier = "auth.verifier"
)

// AuthService guards access with a single master credential. Sessions last
// models.SessionTTL from Authenticate and are never extended.
type AuthService interface {
	// Setup stores the master credential; it can run only once.
	Setup(ctx context.Context, credential []byte) error
	Initialized(ctx context.Context) (bool, error)
	Authenticate(ctx context.Context, credential []byte) (*models.Session, error)
	// Validate returns the open session a token names, or
	// ErrSessionExpired / ErrUnknownSession.
	Validate(ctx context.Context, token string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	// ChangeCredential replaces the credential and revokes every session.
	ChangeCredential(ctx context.Context, current, next []byte) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type authService struct {
	*Deps
	signer *auth.Signer
}

// NewAuthService builds the service; secret is the key-file secret the
// token signing key is derived from.
func NewAuthService(deps *Deps, secret []byte) (AuthService, error) {
	signer, err := auth.NewSigner(secret, deps.now)
	if err != nil {
		return nil, err
	}
	return &authService{Deps: deps, signer: signer}, nil
}

func (s *authService) Setup(ctx context.Context, credential []byte) error {
	if len(credential) == 0 {
		return fmt.Errorf("%w: credential must not be empty", common.ErrValidation)
	}

	err := dbx.WithTx(ctx, s.DB.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Settings(tx)
		existing, err := repo.Get(ctx, settingVerifier)
		if err != nil {
			return err
		}
		if existing != nil {
			return common.ErrAlreadyInitialized
		}
		return s.storeCredential(ctx, tx, credential)
	})
	if err != nil {
		return err
	}
	s.Log.Info(ctx, "master credential set")
	return nil
}

func (s *authService) storeCredential(ctx context.Context, tx dbx.DBTX, credential []byte) error {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	masterKey := cryptox.DeriveMasterKey(credential, salt)
	defer common.WipeByteArray(masterKey)

	repo := s.Repos.Settings(tx)
	if err := repo.Set(ctx, settingSalt, salt); err != nil {
		return err
	}
	return repo.Set(ctx, settingVerifier, cryptox.MakeVerifier(masterKey))
}

func (s *authService) Initialized(ctx context.Context) (bool, error) {
	v, err := s.Repos.Settings(s.DB).Get(ctx, settingVerifier)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// verify checks credential against the stored verifier.
func (s *authService) verify(ctx context.Context, db dbx.DBTX, credential []byte) error {
	repo := s.Repos.Settings(db)
	salt, err := repo.Get(ctx, settingSalt)
	if err != nil {
		return err
	}
	verifier, err := repo.Get(ctx, settingVerifier)
	if err != nil {
		return err
	}
	if salt == nil || verifier == nil {
		return common.ErrNotInitialized
	}

	masterKey := cryptox.DeriveMasterKey(credential, salt)
	defer common.WipeByteArray(masterKey)
	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(masterKey)) != 1 {
		return common.ErrInvalidCredential
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, credential []byte) (*models.Session, error) {
	if err := s.verify(ctx, s.DB, credential); err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			s.Log.Warn(ctx, "authentication failed")
		}
		return nil, err
	}

	// Token claims carry whole seconds; the stored session uses the same
	// instants so both expire together.
	now := s.now().Truncate(time.Second)
	sess := &models.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(models.SessionTTL),
	}
	token, err := s.signer.Generate(sess.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	if err := s.Repos.Sessions(s.DB).Create(ctx, sess); err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "session opened", "session", sess.ID, "expires", sess.ExpiresAt)
	return sess, nil
}

func (s *authService) Validate(ctx context.Context, token string) (*models.Session, error) {
	id, err := s.signer.Parse(token)
	if err != nil {
		return nil, err
	}

	sess, err := s.Repos.Sessions(s.DB).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownSession
		}
		return nil, err
	}
	if !sess.ValidAt(s.now()) {
		return nil, common.ErrSessionExpired
	}
	sess.Token = token
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	id, err := s.signer.Parse(token)
	if err != nil && !errors.Is(err, common.ErrSessionExpired) {
		return err
	}

	if err := s.Repos.Sessions(s.DB).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUnknownSession
		}
		return err
	}
	s.Log.Info(ctx, "session closed", "session", id)
	return nil
}

func (s *authService) ChangeCredential(ctx context.Context, current, next []byte) error {
	if len(next) == 0 {
		return fmt.Errorf("%w: credential must not be empty", common.ErrValidation)
	}

	err := dbx.WithTx(ctx, s.DB.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.verify(ctx, tx, current); err != nil {
			return err
		}
		if err := s.storeCredential(ctx, tx, next); err != nil {
			return err
		}
		return s.Repos.Sessions(tx).DeleteAll(ctx)
	})
	if err != nil {
		return err
	}
	s.Log.Info(ctx, "master credential changed, sessions revoked")
	return nil
}

func (s *authService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.Repos.Sessions(s.DB).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Debug(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}
