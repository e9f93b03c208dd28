package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"geolake/internal/domain"
)

// Usage summarizes the storage a principal's collections occupy.
type Usage struct {
	Bytes  int64  `json:"bytes"`
	Pretty string `json:"pretty"`
}

// UsageService computes per-principal storage usage from data-plane size
// snapshots and appends periodic audit rows to the size log.
type UsageService struct {
	databases domain.DatabaseRepository
	sizes     domain.SizeLogRepository
	data      domain.DataPlane
	logger    *slog.Logger
}

func NewUsageService(databases domain.DatabaseRepository, sizes domain.SizeLogRepository, data domain.DataPlane, logger *slog.Logger) *UsageService {
	return &UsageService{databases: databases, sizes: sizes, data: data, logger: logger}
}

// GetUserUsage sums the total bytes of every collection in every database the
// named principal owns. An empty name means the caller; querying another
// principal requires admin.
func (s *UsageService) GetUserUsage(ctx context.Context, name string) (*Usage, error) {
	id := domain.IdentityFromContext(ctx)
	if id.IsAnonymous() {
		return nil, domain.ErrAccessDenied("anonymous users do not have access")
	}
	if name == "" {
		name = id.Name
	}
	if name != id.Name && !id.IsAdmin {
		return nil, domain.ErrAccessDenied("%s may not view usage for %s", id.Name, name)
	}

	databases, err := s.databases.ListByOwner(ctx, name)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, d := range databases {
		sizes, err := s.data.TableSizes(ctx, d.Name+domain.CollectionSeparator)
		if err != nil {
			return nil, err
		}
		for _, t := range sizes {
			total += t.TotalBytes
		}
	}
	return &Usage{Bytes: total, Pretty: humanize.Bytes(uint64(total))}, nil
}

// LogSizes appends a size snapshot of every collection to the size log.
// Invoked on a schedule; failures are logged by the caller, never fatal.
func (s *UsageService) LogSizes(ctx context.Context) error {
	sizes, err := s.data.TableSizes(ctx, "")
	if err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	if err := s.sizes.Append(ctx, time.Now().UTC(), sizes); err != nil {
		return err
	}
	s.logger.Info("logged relation sizes", "relations", len(sizes))
	return nil
}
