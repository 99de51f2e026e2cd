package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
	"github.com/okian/fieldscout/pkg/logger"
	"github.com/okian/fieldscout/pkg/metrics"
)

// NewUser is the payload for creating a user.
type NewUser struct {
	Username  string      `json:"username" validate:"gte=4,lte=32,alphanum"`
	Password  string      `json:"password" validate:"gte=8,lte=128"`
	RealmID   int64       `json:"realmId" validate:"required"`
	FirstName string      `json:"firstName" validate:"required"`
	LastName  string      `json:"lastName" validate:"required"`
	Stars     []string    `json:"stars" validate:"dive,eventkey"`
	Roles     model.Roles `json:"roles"`
}

// UserPatch changes the fields that are set.
type UserPatch struct {
	Username  *string      `json:"username" validate:"omitempty,gte=4,lte=32,alphanum"`
	Password  *string      `json:"password" validate:"omitempty,gte=8,lte=128"`
	FirstName *string      `json:"firstName" validate:"omitempty,gte=1"`
	LastName  *string      `json:"lastName" validate:"omitempty,gte=1"`
	Stars     []string     `json:"stars" validate:"omitempty,dive,eventkey"`
	Roles     *model.Roles `json:"roles"`
}

func requireAuth(a access.Actor) error {
	if a.Anonymous() {
		return ErrUnauthorized
	}
	return nil
}

// Authenticate checks credentials and returns a signed token. Unverified
// users may log in; their token carries isVerified=false.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	const op = "service.authenticate"
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordAuthAttempt("unknown_user")
		return "", fmt.Errorf("%s: %w", op, ErrBadCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.passwords.Check(user.PasswordHash, password); err != nil {
		metrics.RecordAuthAttempt("bad_password")
		return "", fmt.Errorf("%s: %w", op, ErrBadCredentials)
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordAuthAttempt("success")
	return token, nil
}

// ListRealms returns every realm to super-admins, and otherwise the
// caller's realm plus the realms that share their reports.
func (s *Service) ListRealms(ctx context.Context, a access.Actor) ([]model.Realm, error) {
	const op = "service.list_realms"
	realms, err := s.store.ListRealms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if a.SuperAdmin() {
		return realms, nil
	}
	out := make([]model.Realm, 0, len(realms))
	for _, r := range realms {
		if r.ShareReports || (!a.Anonymous() && r.ID == a.RealmID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateRealm is reserved to super-admins.
func (s *Service) CreateRealm(ctx context.Context, a access.Actor, realm model.Realm) (model.Realm, error) {
	const op = "service.create_realm"
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{}); err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := model.Validate(realm); err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	realm.ID = 0
	if err := s.store.CreateRealm(ctx, &realm); err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "realm created", logger.Int64("realm_id", realm.ID), logger.Int64("by", a.ID))
	return realm, nil
}

// GetRealm is readable by the realm's members and, when it shares reports,
// by anyone.
func (s *Service) GetRealm(ctx context.Context, a access.Actor, id int64) (model.Realm, error) {
	const op = "service.get_realm"
	realm, err := s.store.GetRealm(ctx, id)
	if err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	res := access.Resource{RealmID: id, Public: realm.ShareReports, Members: access.GrantRead}
	if err := s.guard.Authorize(a, access.OpRead, res); err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	return realm, nil
}

// UpdateRealm is reserved to the realm's admins and super-admins.
func (s *Service) UpdateRealm(ctx context.Context, a access.Actor, realm model.Realm) error {
	const op = "service.update_realm"
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: realm.ID}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := model.Validate(realm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.UpdateRealm(ctx, realm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteRealm deletes the realm and its users.
func (s *Service) DeleteRealm(ctx context.Context, a access.Actor, id int64) error {
	const op = "service.delete_realm"
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: id}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteRealm(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "realm deleted", logger.Int64("realm_id", id), logger.Int64("by", a.ID))
	return nil
}

// CreateUser adds a user to a realm. Admins may only add users to their
// own realm and never grant super-admin.
func (s *Service) CreateUser(ctx context.Context, a access.Actor, nu NewUser) (model.User, error) {
	const op = "service.create_user"
	if err := requireAuth(a); err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.guard.Authorize(a, access.OpWrite, access.Resource{RealmID: nu.RealmID}); err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := model.Validate(nu); err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.store.GetRealm(ctx, nu.RealmID); err != nil {
		return model.User{}, fmt.Errorf("%s: realm: %w", op, err)
	}
	if !a.SuperAdmin() {
		nu.Roles.IsSuperAdmin = false
	}
	hash, err := s.passwords.Hash(nu.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user := model.User{
		Username:     nu.Username,
		PasswordHash: hash,
		RealmID:      nu.RealmID,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Stars:        nonNil(nu.Stars),
		Roles:        nu.Roles,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "user created",
		logger.Int64("user_id", user.ID),
		logger.Int64("realm_id", user.RealmID),
		logger.Int64("by", a.ID),
	)
	return user, nil
}

// ListUsers returns all users to verified super-admins and the realm's
// users to verified admins.
func (s *Service) ListUsers(ctx context.Context, a access.Actor) ([]model.User, error) {
	const op = "service.list_users"
	if err := requireAuth(a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.guard.Authorize(a, access.OpList, access.Resource{RealmID: a.RealmID}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	realm := a.RealmID
	if a.SuperAdmin() {
		realm = 0
	}
	users, err := s.store.ListUsers(ctx, realm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *Service) authorizedUser(ctx context.Context, a access.Actor, op access.Op, id int64) (model.User, error) {
	if err := requireAuth(a); err != nil {
		return model.User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	res := access.Resource{RealmID: user.RealmID, OwnerID: user.ID, Elevated: user.Roles.IsSuperAdmin}
	if err := s.guard.Authorize(a, op, res); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// GetUser is readable by the user, the realm's admins and super-admins.
func (s *Service) GetUser(ctx context.Context, a access.Actor, id int64) (model.User, error) {
	const op = "service.get_user"
	user, err := s.authorizedUser(ctx, a, access.OpRead, id)
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// PatchUser applies patch to a user. Roles in a patch a user sends for
// itself are ignored, and only super-admins may grant super-admin.
func (s *Service) PatchUser(ctx context.Context, a access.Actor, id int64, patch UserPatch) error {
	const op = "service.patch_user"
	user, err := s.authorizedUser(ctx, a, access.OpWrite, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := model.Validate(patch); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Password != nil {
		hash, err := s.passwords.Hash(*patch.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		user.PasswordHash = hash
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Stars != nil {
		user.Stars = patch.Stars
	}
	if patch.Roles != nil && a.ID != user.ID {
		roles := *patch.Roles
		if !a.SuperAdmin() {
			roles.IsSuperAdmin = user.Roles.IsSuperAdmin
		}
		user.Roles = roles
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser is allowed to the user, the realm's admins and super-admins.
func (s *Service) DeleteUser(ctx context.Context, a access.Actor, id int64) error {
	const op = "service.delete_user"
	if _, err := s.authorizedUser(ctx, a, access.OpWrite, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Bootstrap creates a realm holding a verified super-admin. It bypasses the
// guard and is meant for administrative tooling on a fresh store, where no
// caller could otherwise be authorized to create the first account.
func (s *Service) Bootstrap(ctx context.Context, realmName string, nu NewUser) (model.Realm, model.User, error) {
	const op = "service.bootstrap"
	realm := model.Realm{Name: realmName}
	if err := model.Validate(realm); err != nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	nu.Roles = model.Roles{IsSuperAdmin: true, IsAdmin: true, IsVerified: true}
	nu.RealmID = -1 // placeholder until the realm exists
	if err := model.Validate(nu); err != nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.store.GetUserByUsername(ctx, nu.Username); err == nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, ErrConflict)
	}
	hash, err := s.passwords.Hash(nu.Password)
	if err != nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.CreateRealm(ctx, &realm); err != nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user := model.User{
		Username:     nu.Username,
		PasswordHash: hash,
		RealmID:      realm.ID,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Stars:        nonNil(nu.Stars),
		Roles:        nu.Roles,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return model.Realm{}, model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "super-admin bootstrapped",
		logger.Int64("realm_id", realm.ID),
		logger.String("username", user.Username),
	)
	return realm, user, nil
}

// ActorFor resolves username into the actor its token would carry. It lets
// administrative tooling act on behalf of an existing user.
func (s *Service) ActorFor(ctx context.Context, username string) (access.Actor, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return access.Actor{}, fmt.Errorf("service.actor_for: %w", err)
	}
	return access.Actor{
		ID:           user.ID,
		RealmID:      user.RealmID,
		IsVerified:   user.Roles.IsVerified,
		IsAdmin:      user.Roles.IsAdmin,
		IsSuperAdmin: user.Roles.IsSuperAdmin,
	}, nil
}
