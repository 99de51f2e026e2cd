package access

// decision is the outcome of a single rule.
type decision int

const (
	pass decision = iota
	allow
	deny
)

// rule inspects a request and either decides it or passes.
type rule struct {
	name  string
	check func(a Actor, op Op, r Resource) (decision, error)
}

// Guard evaluates an ordered list of rules; the first decisive rule wins.
type Guard struct {
	rules []rule
}

// NewGuard returns a guard with the realm policy:
// anonymous, super-admin, elevated, admin, owner, public, member, default
// deny.
func NewGuard() *Guard {
	return &Guard{rules: []rule{
		{name: "anonymous", check: anonymousRule},
		{name: "super_admin", check: superAdminRule},
		{name: "elevated", check: elevatedRule},
		{name: "admin", check: adminRule},
		{name: "owner", check: ownerRule},
		{name: "public", check: publicRule},
		{name: "member", check: memberRule},
	}}
}

// Authorize returns nil when a may perform op on r, otherwise ErrUnauthorized
// or ErrForbidden.
func (g *Guard) Authorize(a Actor, op Op, r Resource) error {
	for _, ru := range g.rules {
		d, err := ru.check(a, op, r)
		switch d {
		case allow:
			return nil
		case deny:
			return err
		case pass:
		}
	}
	return ErrForbidden
}

func anonymousRule(a Actor, op Op, r Resource) (decision, error) {
	if !a.Anonymous() {
		return pass, nil
	}
	if op == OpWrite {
		return deny, ErrUnauthorized
	}
	if r.Public {
		return allow, nil
	}
	return deny, ErrForbidden
}

func superAdminRule(a Actor, _ Op, _ Resource) (decision, error) {
	if a.SuperAdmin() {
		return allow, nil
	}
	return pass, nil
}

// elevatedRule keeps admins from writing to resources above their role.
// Owners still manage their own record.
func elevatedRule(a Actor, op Op, r Resource) (decision, error) {
	if r.Elevated && op == OpWrite && r.OwnerID != a.ID {
		return deny, ErrForbidden
	}
	return pass, nil
}

// adminRule grants admins everything in their own realm. Admins of other
// realms fall through so that public reads and their own records still work.
func adminRule(a Actor, _ Op, r Resource) (decision, error) {
	if r.RealmID != 0 && a.Admin(r.RealmID) {
		return allow, nil
	}
	return pass, nil
}

func ownerRule(a Actor, op Op, r Resource) (decision, error) {
	if r.OwnerID != 0 && r.OwnerID == a.ID && op != OpList {
		return allow, nil
	}
	return pass, nil
}

func publicRule(_ Actor, op Op, r Resource) (decision, error) {
	if r.Public && op != OpWrite {
		return allow, nil
	}
	return pass, nil
}

func memberRule(a Actor, op Op, r Resource) (decision, error) {
	if r.RealmID != 0 && a.Member(r.RealmID) && r.Members.allows(op) {
		return allow, nil
	}
	return pass, nil
}
