package repository

import (
	"context"
	"fmt"

	"github.com/okian/fieldscout/internal/domain/model"
	"go.etcd.io/bbolt"
)

// CreateRealm stores realm and assigns its ID.
func (s *BoltStore) CreateRealm(ctx context.Context, realm *model.Realm) error {
	const op = "repository.create_realm"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRealms)
		id, err := nextID(b)
		if err != nil {
			return err
		}
		realm.ID = id
		return putJSON(b, idKey(id), realm)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) GetRealm(ctx context.Context, id int64) (model.Realm, error) {
	const op = "repository.get_realm"
	var realm model.Realm
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		realm, err = getJSON[model.Realm](tx.Bucket(bucketRealms), idKey(id))
		return err
	})
	if err != nil {
		return model.Realm{}, fmt.Errorf("%s: %w", op, err)
	}
	return realm, nil
}

func (s *BoltStore) ListRealms(ctx context.Context) ([]model.Realm, error) {
	const op = "repository.list_realms"
	var realms []model.Realm
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		realms, err = listJSON[model.Realm](tx.Bucket(bucketRealms), nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return realms, nil
}

func (s *BoltStore) UpdateRealm(ctx context.Context, realm model.Realm) error {
	const op = "repository.update_realm"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRealms)
		if b.Get(idKey(realm.ID)) == nil {
			return ErrNotFound
		}
		return putJSON(b, idKey(realm.ID), realm)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteRealm removes the realm and all of its users.
func (s *BoltStore) DeleteRealm(ctx context.Context, id int64) error {
	const op = "repository.delete_realm"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		realms := tx.Bucket(bucketRealms)
		if realms.Get(idKey(id)) == nil {
			return ErrNotFound
		}
		users, err := listJSON[model.User](tx.Bucket(bucketUsers), nil)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.RealmID != id {
				continue
			}
			if err := deleteUser(tx, u); err != nil {
				return err
			}
		}
		return realms.Delete(idKey(id))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateUser stores user and assigns its ID. Returns ErrConflict when the
// username is taken.
func (s *BoltStore) CreateUser(ctx context.Context, user *model.User) error {
	const op = "repository.create_user"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		names := tx.Bucket(bucketUsernames)
		if names.Get([]byte(user.Username)) != nil {
			return ErrConflict
		}
		users := tx.Bucket(bucketUsers)
		id, err := nextID(users)
		if err != nil {
			return err
		}
		user.ID = id
		if err := names.Put([]byte(user.Username), idKey(id)); err != nil {
			return err
		}
		return putJSON(users, idKey(id), storedUser{User: *user, PasswordHash: user.PasswordHash})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// storedUser keeps the password hash, which model.User hides from JSON.
type storedUser struct {
	model.User
	PasswordHash string `json:"passwordHash"`
}

func (u storedUser) user() model.User {
	out := u.User
	out.PasswordHash = u.PasswordHash
	return out
}

func getUser(tx *bbolt.Tx, id int64) (model.User, error) {
	su, err := getJSON[storedUser](tx.Bucket(bucketUsers), idKey(id))
	if err != nil {
		return model.User{}, err
	}
	return su.user(), nil
}

func deleteUser(tx *bbolt.Tx, u model.User) error {
	if err := tx.Bucket(bucketUsernames).Delete([]byte(u.Username)); err != nil {
		return err
	}
	return tx.Bucket(bucketUsers).Delete(idKey(u.ID))
}

func (s *BoltStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	const op = "repository.get_user"
	var user model.User
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *BoltStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	const op = "repository.get_user_by_username"
	var user model.User
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUsernames).Get([]byte(username))
		if id == nil {
			return ErrNotFound
		}
		su, err := getJSON[storedUser](tx.Bucket(bucketUsers), id)
		user = su.user()
		return err
	})
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *BoltStore) ListUsers(ctx context.Context, realmID int64) ([]model.User, error) {
	const op = "repository.list_users"
	users := []model.User{}
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		stored, err := listJSON[storedUser](tx.Bucket(bucketUsers), nil)
		if err != nil {
			return err
		}
		for _, su := range stored {
			if realmID == 0 || su.RealmID == realmID {
				users = append(users, su.user())
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateUser replaces the stored user, moving its username index entry when
// the username changes.
func (s *BoltStore) UpdateUser(ctx context.Context, user model.User) error {
	const op = "repository.update_user"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		old, err := getUser(tx, user.ID)
		if err != nil {
			return err
		}
		names := tx.Bucket(bucketUsernames)
		if old.Username != user.Username {
			if names.Get([]byte(user.Username)) != nil {
				return ErrConflict
			}
			if err := names.Delete([]byte(old.Username)); err != nil {
				return err
			}
			if err := names.Put([]byte(user.Username), idKey(user.ID)); err != nil {
				return err
			}
		}
		return putJSON(tx.Bucket(bucketUsers), idKey(user.ID), storedUser{User: user, PasswordHash: user.PasswordHash})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BoltStore) DeleteUser(ctx context.Context, id int64) error {
	const op = "repository.delete_user"
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		u, err := getUser(tx, id)
		if err != nil {
			return err
		}
		return deleteUser(tx, u)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
