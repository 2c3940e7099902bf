// Package services contains the application services of the tipsync client:
// the sync engine, the tip repository facade, and the session, profile and
// image services built around them.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/users"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/cryptox"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/logging"
)

// CurrentUserProvider tells the sync layer who is logged in.
type CurrentUserProvider interface {
	CurrentUserID(ctx context.Context) (string, bool)
	// CurrentUser returns nil, nil when nobody is logged in.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// DB is the database handle the session needs: plain statements plus
// transactions. *sql.DB satisfies it.
type DB interface {
	dbx.DBTX
	dbx.Beginner
}

var ErrLocalDataNotAvailable = common.New(common.KindUnauthorized, "session.offlineLogin", "no cached credentials for offline login")

// SessionService handles register, online and offline login, and logout.
// It caches the username, salt and verifier so a returning user can log in
// without the server.
type SessionService struct {
	client client.Client
	db     DB
	logger logging.Logger

	mu       sync.RWMutex
	userID   string
	username string
	remote   bool
}

var _ CurrentUserProvider = (*SessionService)(nil)

func NewSessionService(c client.Client, db DB, l logging.Logger) *SessionService {
	return &SessionService{client: c, db: db, logger: l.With("module", "session")}
}

func (s *SessionService) metadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SessionService) usersRepo(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (s *SessionService) CurrentUserID(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

func (s *SessionService) CurrentUser(ctx context.Context) (*models.User, error) {
	id, ok := s.CurrentUserID(ctx)
	if !ok {
		return nil, nil
	}
	u, err := s.usersRepo(s.db).Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID != id {
		return nil, nil
	}
	return u, nil
}

// Username returns the name used at login, or "".
func (s *SessionService) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// RemoteAuthenticated reports whether the server accepted this session.
// Offline logins are local only until Reauthenticate succeeds.
func (s *SessionService) RemoteAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

func (s *SessionService) setSession(userID, username string, remote bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.username = username
	s.remote = remote
}

// Register creates an account on the server and returns its id. The
// password never leaves this process; only the salt and verifier do.
func (s *SessionService) Register(ctx context.Context, username string, password []byte) (string, error) {
	salt := cryptox.NewSalt()
	verifier := cryptox.VerifierFor(password, salt)

	id, err := s.client.Register(ctx, username, salt, verifier)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	s.logger.Info(ctx, "registered", "username", username)
	return id, nil
}

// OnlineLogin authenticates against the server and caches what offline
// login needs.
func (s *SessionService) OnlineLogin(ctx context.Context, username string, password []byte) (*models.User, error) {
	salt, err := s.client.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	verifier := cryptox.VerifierFor(password, salt)
	userID, err := s.client.Login(ctx, username, verifier)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	u, err := s.saveOfflineData(ctx, userID, username, salt, verifier)
	if err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}

	s.setSession(userID, username, true)
	s.logger.Info(ctx, "logged in", "mode", "online", "user_id", userID)
	return u, nil
}

// saveOfflineData stores the credentials cache and makes sure the current
// user row belongs to userID, in one transaction.
func (s *SessionService) saveOfflineData(ctx context.Context, userID, username string, salt, verifier []byte) (*models.User, error) {
	var current *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := s.metadataRepo(tx)
		for k, v := range map[string][]byte{
			metadata.KeyUsername: []byte(username),
			metadata.KeySalt:     salt,
			metadata.KeyVerifier: verifier,
			metadata.KeyUserID:   []byte(userID),
		} {
			if err := meta.Set(ctx, k, v); err != nil {
				return err
			}
		}

		repo := s.usersRepo(tx)
		u, err := repo.Current(ctx)
		if err != nil {
			return err
		}
		if u == nil || u.ID != userID {
			u = &models.User{ID: userID, Name: username}
			if err := repo.SaveCurrent(ctx, u); err != nil {
				return err
			}
		}
		current = u
		return nil
	})
	return current, err
}

// OfflineLogin verifies the password against the cached verifier.
func (s *SessionService) OfflineLogin(ctx context.Context, username string, password []byte) (*models.User, error) {
	meta := s.metadataRepo(s.db)

	savedUsername, err := metadata.GetString(ctx, meta, metadata.KeyUsername)
	if err != nil {
		return nil, err
	}
	if savedUsername == "" {
		return nil, ErrLocalDataNotAvailable
	}
	if savedUsername != username {
		return nil, client.ErrUnauthorized
	}

	salt, err := meta.Get(ctx, metadata.KeySalt)
	if err != nil {
		return nil, err
	}
	savedVerifier, err := meta.Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return nil, err
	}
	userID, err := metadata.GetString(ctx, meta, metadata.KeyUserID)
	if err != nil {
		return nil, err
	}
	if salt == nil || savedVerifier == nil || userID == "" {
		return nil, ErrLocalDataNotAvailable
	}

	if !cryptox.VerifiersEqual(savedVerifier, cryptox.VerifierFor(password, salt)) {
		return nil, client.ErrUnauthorized
	}

	repo := s.usersRepo(s.db)
	u, err := repo.Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID != userID {
		u = &models.User{ID: userID, Name: username}
		if err := repo.SaveCurrent(ctx, u); err != nil {
			return nil, err
		}
	}

	s.setSession(userID, username, false)
	s.logger.Info(ctx, "logged in", "mode", "offline", "user_id", userID)
	return u, nil
}

// Reauthenticate upgrades an offline session once the server is reachable,
// using the cached verifier. It is a no-op for remote sessions.
func (s *SessionService) Reauthenticate(ctx context.Context) error {
	id, ok := s.CurrentUserID(ctx)
	if !ok || s.RemoteAuthenticated() {
		return nil
	}

	meta := s.metadataRepo(s.db)
	verifier, err := meta.Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return err
	}
	if verifier == nil {
		return ErrLocalDataNotAvailable
	}

	username := s.Username()
	userID, err := s.client.Login(ctx, username, verifier)
	if err != nil {
		return fmt.Errorf("reauthenticate: %w", err)
	}
	if userID != "" && userID != id {
		return common.New(common.KindUnauthorized, "session.reauthenticate", "server returned a different user")
	}

	s.setSession(id, username, true)
	s.logger.Info(ctx, "session upgraded to online", "user_id", id)
	return nil
}

// Logout drops the session, the cached credentials and the profile row.
// Local tips are kept.
func (s *SessionService) Logout(ctx context.Context) error {
	s.client.Logout()
	s.setSession("", "", false)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.metadataRepo(tx).Clear(ctx); err != nil {
			return err
		}
		return s.usersRepo(tx).Clear(ctx)
	})
}

func (s *SessionService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SessionService) Close() error {
	return s.client.Close()
}
