package sqlstore

import (
	"context"
	"fmt"

	"github.com/procwise/procwise/service/allocator"
)

// Sequence allocates process numbers from a single-row counter table with
// UPDATE ... RETURNING, so concurrent starts can never observe the same
// value.
type Sequence struct {
	store *Store
}

var _ allocator.Sequence = (*Sequence)(nil)

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	var number int64
	err := s.store.conn(ctx).QueryRowContext(ctx, `
		UPDATE procwise_sequence
		SET last_number = last_number + 1
		WHERE name = 'process_number'
		RETURNING last_number`,
	).Scan(&number)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: next process number: %w", err)
	}
	return number, nil
}
