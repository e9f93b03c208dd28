package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"geolake/internal/ddl"
	"geolake/internal/domain"
)

// ProvisioningService registers and removes principals and manages their
// default databases. All mutations require an administrative caller.
type ProvisioningService struct {
	principals domain.PrincipalRepository
	databases  domain.DatabaseRepository
	logger     *slog.Logger
}

func NewProvisioningService(principals domain.PrincipalRepository, databases domain.DatabaseRepository, logger *slog.Logger) *ProvisioningService {
	return &ProvisioningService{principals: principals, databases: databases, logger: logger}
}

// RegisterUser registers a principal and its default database (named after
// the principal, owned by it). Registration is idempotent: a duplicate is
// logged and swallowed so re-provisioning the same user never fails.
func (s *ProvisioningService) RegisterUser(ctx context.Context, name, password string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(name); err != nil {
		return domain.ErrValidation("invalid user name: %v", err)
	}

	_, err := s.principals.Create(ctx, &domain.Principal{
		Name:         name,
		Role:         domain.RoleAuthenticated,
		PasswordHash: hashPassword(password),
	})
	if err != nil {
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		s.logger.Warn("user already registered", "user", name)
	}

	owned, err := s.databases.ExistsOwned(ctx, name, name)
	if err != nil {
		return err
	}
	if !owned {
		if _, err := s.databases.Create(ctx, name, name); err != nil {
			return err
		}
	}

	s.logger.Info("user registered", "user", name)
	return nil
}

// UserExists reports whether a principal with the given name is registered.
func (s *ProvisioningService) UserExists(ctx context.Context, name string) (bool, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return false, err
	}
	_, err := s.principals.GetByName(ctx, name)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DropUser removes a principal. Its databases and collections stay; only the
// login identity disappears.
func (s *ProvisioningService) DropUser(ctx context.Context, name string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.principals.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("user dropped", "user", name)
	return nil
}

// GrantUserAdmin promotes a principal to administrator.
func (s *ProvisioningService) GrantUserAdmin(ctx context.Context, name string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.principals.SetAdmin(ctx, name, true)
}

// CheckUser rejects anonymous callers. Any named identity passes.
func (s *ProvisioningService) CheckUser(ctx context.Context) error {
	id := domain.IdentityFromContext(ctx)
	if id.IsAnonymous() {
		return domain.ErrAccessDenied("anonymous users do not have access")
	}
	return nil
}

// CheckUserGrants fails unless the caller's raw scope string mentions the
// wanted grant. The check is a plain substring match over the scope as
// issued, not a parse of it.
func (s *ProvisioningService) CheckUserGrants(ctx context.Context, wanted string) error {
	if err := s.CheckUser(ctx); err != nil {
		return err
	}
	id := domain.IdentityFromContext(ctx)
	if !strings.Contains(id.Scope, wanted) {
		return domain.ErrAccessDenied("%s does not hold grant %q", id.Name, wanted)
	}
	return nil
}

func (s *ProvisioningService) requireAdmin(ctx context.Context) error {
	id := domain.IdentityFromContext(ctx)
	if !id.IsAdmin {
		return domain.ErrAccessDenied("%s lacks administrative privileges", id.Name)
	}
	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
