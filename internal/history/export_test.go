package history

import "context"

// Exec runs a raw statement; tests use it to simulate foreign databases.
func (s *Store) Exec(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}
