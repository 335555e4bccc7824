package ledger

import (
	"context"

	"github.com/JonMunkholm/csvnorm/internal/config"
)

// Open returns a PostgresStore when cfg names a database and a MemoryStore
// otherwise.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	if !cfg.Enabled() {
		return NewMemoryStore(0), nil
	}
	return OpenPostgres(ctx, cfg)
}
