// Package access decides whether an actor may read or write a realm-scoped
// resource. Decisions are pure: the guard never touches storage.
package access

import "errors"

// Sentinel decisions. ErrUnauthorized means no credential was presented,
// ErrForbidden means the credential is not sufficient.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Op is the kind of access requested.
type Op int

const (
	// OpRead reads a single resource.
	OpRead Op = iota
	// OpList reads a collection.
	OpList
	// OpWrite creates, replaces, patches or deletes.
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpList:
		return "list"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Grant is what verified, non-admin members of the owning realm may do.
type Grant int

const (
	GrantNone Grant = iota
	GrantRead
	GrantReadWrite
)

func (g Grant) allows(op Op) bool {
	switch g {
	case GrantReadWrite:
		return true
	case GrantRead:
		return op != OpWrite
	default:
		return false
	}
}

// Actor is the authenticated caller. The zero Actor is anonymous.
type Actor struct {
	ID           int64
	RealmID      int64
	IsVerified   bool
	IsAdmin      bool
	IsSuperAdmin bool
}

// Anonymous reports whether no credential was presented.
func (a Actor) Anonymous() bool { return a.ID == 0 }

// SuperAdmin reports whether a is a verified super-admin.
func (a Actor) SuperAdmin() bool { return a.IsVerified && a.IsSuperAdmin }

// Admin reports whether a is a verified admin of realm.
func (a Actor) Admin(realm int64) bool { return a.IsVerified && a.IsAdmin && a.RealmID == realm }

// Member reports whether a is a verified member of realm.
func (a Actor) Member(realm int64) bool { return a.IsVerified && a.RealmID == realm }

// Resource describes what is being accessed.
type Resource struct {
	// RealmID owns the resource; zero for global resources.
	RealmID int64
	// OwnerID is the user that owns the resource, if any.
	OwnerID int64
	// Public resources are readable by anyone.
	Public bool
	// Members is the grant for verified members of RealmID.
	Members Grant
	// Elevated resources, such as super-admin accounts, are writable only
	// by super-admins and their owner.
	Elevated bool
}
