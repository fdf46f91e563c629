package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/coworkspace/internal/persistence"
)

// UserDataPurger removes every record owned by a user. PreparePurge must not
// write; the directory commits the returned plans only after every registered
// purger has prepared.
type UserDataPurger interface {
	PreparePurge(ctx context.Context, userID string) (PurgePlan, error)
}

// PurgePlan is a prepared removal. Commit writes the filtered records and
// Restore writes back the records observed when the plan was prepared.
type PurgePlan struct {
	Removed int
	Commit  func(ctx context.Context) error
	Restore func(ctx context.Context) error
}

func (p PurgePlan) commit(ctx context.Context) error {
	if p.Commit == nil {
		return nil
	}
	return p.Commit(ctx)
}

func (p PurgePlan) restore(ctx context.Context) error {
	if p.Restore == nil {
		return nil
	}
	return p.Restore(ctx)
}

// preparePurge filters out the records of collection owned by userID. The
// returned plan is a no-op when nothing matches.
func preparePurge[T any](ctx context.Context, collection *persistence.Collection[T], userID string, owner func(T) string) (PurgePlan, error) {
	records, err := collection.Load(ctx)
	if err != nil {
		return PurgePlan{}, err
	}

	remaining := make([]T, 0, len(records))
	for _, record := range records {
		if owner(record) != userID {
			remaining = append(remaining, record)
		}
	}
	removed := len(records) - len(remaining)
	if removed == 0 {
		return PurgePlan{}, nil
	}
	return PurgePlan{
		Removed: removed,
		Commit:  func(ctx context.Context) error { return collection.Save(ctx, remaining) },
		Restore: func(ctx context.Context) error { return collection.Save(ctx, records) },
	}, nil
}

// UserDirectory owns the user collection and the session lifecycle.
type UserDirectory struct {
	users       *persistence.Collection[User]
	purgers     []UserDataPurger
	idGenerator func() string
	logger      *slog.Logger
}

// NewUserDirectory constructs a directory over the users collection.
func NewUserDirectory(users *persistence.Collection[User], idGenerator func() string) *UserDirectory {
	return NewUserDirectoryWithLogger(users, idGenerator, nil)
}

// NewUserDirectoryWithLogger constructs a directory with a specified logger.
func NewUserDirectoryWithLogger(users *persistence.Collection[User], idGenerator func() string, logger *slog.Logger) *UserDirectory {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &UserDirectory{users: users, idGenerator: idGenerator, logger: defaultLogger(logger)}
}

// CascadeTo registers purgers invoked when a user is deleted.
func (d *UserDirectory) CascadeTo(purgers ...UserDataPurger) {
	d.purgers = append(d.purgers, purgers...)
}

func (d *UserDirectory) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, d.logger, "UserDirectory", operation, attrs...)
}

// Registration holds the fields of a new account. Phone is optional.
type Registration struct {
	Email    string
	Name     string
	Password string
	Phone    string
}

// Register creates a user. Email uniqueness is an exact, case-sensitive match.
func (d *UserDirectory) Register(ctx context.Context, email, name, password string) (User, error) {
	return d.RegisterUser(ctx, Registration{Email: email, Name: name, Password: password})
}

// RegisterUser is Register with the optional profile fields, stored in one write.
func (d *UserDirectory) RegisterUser(ctx context.Context, reg Registration) (user User, err error) {
	if d == nil {
		err = fmt.Errorf("UserDirectory is nil")
		return
	}

	logger := d.loggerWith(ctx, "Register")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	var users []User
	users, err = d.users.Load(ctx)
	if err != nil {
		return
	}
	for _, existing := range users {
		if existing.Email == reg.Email {
			err = fmt.Errorf("email %q: %w", reg.Email, ErrDuplicateEmail)
			return
		}
	}

	user = User{ID: d.idGenerator(), Email: reg.Email, Name: reg.Name, Password: reg.Password, Phone: reg.Phone}
	if err = d.users.Save(ctx, append(users, user)); err != nil {
		user = User{}
	}
	return
}

// Authenticate returns the user matching both email and password and points
// the session carried by ctx at it.
func (d *UserDirectory) Authenticate(ctx context.Context, email, password string) (user User, err error) {
	if d == nil {
		err = fmt.Errorf("UserDirectory is nil")
		return
	}

	logger := d.loggerWith(ctx, "Authenticate")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user authenticated")
	}()

	var users []User
	users, err = d.users.Load(ctx)
	if err != nil {
		return
	}

	found := false
	for _, candidate := range users {
		if candidate.Email == email && candidate.Password == password {
			user, found = candidate, true
			break
		}
	}
	if !found {
		err = ErrInvalidCredentials
		return
	}

	if session, ok := SessionFromContext(ctx); ok {
		if err = session.set(ctx, user); err != nil {
			user = User{}
		}
	}
	return
}

// EndSession signs out the session carried by ctx. No records are removed.
func (d *UserDirectory) EndSession(ctx context.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	if err := session.clear(ctx); err != nil {
		return err
	}
	d.loggerWith(ctx, "EndSession").InfoContext(ctx, "session ended")
	return nil
}

// GetUser returns the user with id.
func (d *UserDirectory) GetUser(ctx context.Context, id string) (User, error) {
	users, err := d.users.Load(ctx)
	if err != nil {
		return User{}, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, notFound("user", id)
}

// ListUsers returns every registered user in storage order.
func (d *UserDirectory) ListUsers(ctx context.Context) ([]User, error) {
	return d.users.Load(ctx)
}

// UpdateProfile applies the non-nil fields of update. The session is
// refreshed when it points at the same user.
func (d *UserDirectory) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (user User, err error) {
	if d == nil {
		err = fmt.Errorf("UserDirectory is nil")
		return
	}

	logger := d.loggerWith(ctx, "UpdateProfile", "user_id", userID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	var users []User
	users, err = d.users.Load(ctx)
	if err != nil {
		return
	}

	idx := -1
	for i := range users {
		if users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		err = notFound("user", userID)
		return
	}

	updated := users[idx]
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Phone != nil {
		updated.Phone = *update.Phone
	}
	if update.Password != nil {
		updated.Password = *update.Password
	}
	users[idx] = updated

	if err = d.users.Save(ctx, users); err != nil {
		return
	}
	if session, ok := SessionFromContext(ctx); ok && session.IsUser(userID) {
		if err = session.set(ctx, updated); err != nil {
			return
		}
	}
	user = updated
	return
}

// DeleteUser removes the user and everything the registered purgers own for
// it, then signs the session out if it pointed at the user. Nothing is written
// until every purger has prepared, and a failed write restores the records
// already purged.
func (d *UserDirectory) DeleteUser(ctx context.Context, userID string) (err error) {
	if d == nil {
		return fmt.Errorf("UserDirectory is nil")
	}

	logger := d.loggerWith(ctx, "DeleteUser", "user_id", userID)
	purged := 0
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted", "purged_records", purged)
	}()

	var users []User
	users, err = d.users.Load(ctx)
	if err != nil {
		return
	}

	remaining := make([]User, 0, len(users))
	for _, user := range users {
		if user.ID != userID {
			remaining = append(remaining, user)
		}
	}
	if len(remaining) == len(users) {
		err = notFound("user", userID)
		return
	}

	plans := make([]PurgePlan, 0, len(d.purgers))
	for _, purger := range d.purgers {
		var plan PurgePlan
		plan, err = purger.PreparePurge(ctx, userID)
		if err != nil {
			err = fmt.Errorf("purge records of user %q: %w", userID, err)
			return
		}
		plans = append(plans, plan)
	}

	for i, plan := range plans {
		if err = plan.commit(ctx); err != nil {
			d.restore(ctx, logger, plans[:i])
			err = fmt.Errorf("purge records of user %q: %w", userID, err)
			return
		}
		purged += plan.Removed
	}

	if err = d.users.Save(ctx, remaining); err != nil {
		d.restore(ctx, logger, plans)
		return
	}
	if session, ok := SessionFromContext(ctx); ok && session.IsUser(userID) {
		err = session.clear(ctx)
	}
	return
}

// restore rolls committed plans back in reverse order. Restore failures are
// logged because the original error is the one returned.
func (d *UserDirectory) restore(ctx context.Context, logger *slog.Logger, committed []PurgePlan) {
	for i := len(committed) - 1; i >= 0; i-- {
		if err := committed[i].restore(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to restore purged records", "error", err, "error_kind", ErrorKind(err))
		}
	}
}
