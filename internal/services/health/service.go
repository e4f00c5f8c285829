package health

import (
	"context"
	"database/sql"
	"time"
)

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. A nil db means the process runs
// on in-memory storage.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the liveness payload. The database ping gets a short budget
// so a stalled pool cannot hang the health endpoint.
func (s *Service) Status(ctx context.Context) map[string]any {
	out := map[string]any{"ok": true, "storage": "memory"}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			out["ok"] = false
			out["storage"] = "postgres_unreachable"
		} else {
			out["storage"] = "postgres"
		}
	}
	return out
}
