package catalog

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Users struct {
	store  database.Store
	logger *slog.Logger
}

func NewUsers(store database.Store, logger *slog.Logger) *Users {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	return &Users{store: store, logger: logger}
}

// HashPassword returns the bcrypt hash stored for login accounts.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.BadRequest("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(errors.KindInternal, err, "cannot hash password")
	}
	return string(hash), nil
}

// Create adds an account under a fresh user id. Logins are unique.
func (u *Users) Create(ctx context.Context, login, passwordHash, email, nickname string) (model.UserData, error) {
	login = strings.TrimSpace(login)
	if login == "" || passwordHash == "" {
		return model.UserData{}, errors.BadRequest("login and password are required")
	}
	user := model.UserData{
		Key:            model.UserKey(login),
		UserID:         uuid.NewString(),
		Login:          login,
		HashedPassword: passwordHash,
		Email:          email,
		Nickname:       nickname,
	}
	err := u.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		var existing model.UserData
		err := tx.Get(ctx, user.Key, &existing)
		if err == nil {
			return errors.Conflict("login %q is taken", login)
		}
		if !stderrors.Is(err, database.ErrNoSuchEntity) {
			return errors.Wrap(errors.KindInternal, err, "cannot read user")
		}
		if err := tx.Put(ctx, user.Key, &user); err != nil {
			return errors.Wrap(errors.KindInternal, err, "cannot store user")
		}
		return nil
	})
	if err != nil {
		return model.UserData{}, Contended(err)
	}
	u.logger.Info("user created", "login", login, "user_id", user.UserID)
	return user, nil
}

// Seed creates the configured accounts, skipping logins that already exist.
func (u *Users) Seed(ctx context.Context, seeds []config.SeedUser) (int, error) {
	created := 0
	for _, s := range seeds {
		_, err := u.Create(ctx, s.Login, s.PasswordHash, s.Email, s.Nickname)
		if errors.Is(err, errors.KindConflict) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
