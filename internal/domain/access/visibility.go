package access

// ReportsVisible reports whether a may see reports filed by members of
// realm. A report is visible to members of the realm it was filed in, to
// super-admins, and to everyone when that realm shares its reports.
func ReportsVisible(a Actor, realm int64, shared bool) bool {
	if shared || a.SuperAdmin() {
		return true
	}
	return !a.Anonymous() && a.RealmID == realm
}

// ReportsResource describes the reports of an event owned by realm.
// Members may read and write; other realms may read when shared is set.
func ReportsResource(realm int64, shared bool) Resource {
	return Resource{RealmID: realm, Public: shared, Members: GrantReadWrite}
}
