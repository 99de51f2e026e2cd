package repository

// Truncate empties every table so each test starts from a clean database.
func (s *PostgresStore) Truncate() error {
	return s.db.Exec("TRUNCATE reports, matches, events, schemas, users, realms RESTART IDENTITY CASCADE").Error
}
