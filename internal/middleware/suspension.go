package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/models"
)

// UserLookup is the subset of the user collection the guard needs.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// OrganizationLookup is the subset of the organization collection the guard needs.
type OrganizationLookup interface {
	FindOrganizationByName(ctx context.Context, name string) (*models.Organization, error)
}

// SuspensionStatus explains why a session is no longer allowed.
type SuspensionStatus struct {
	Suspended bool   `json:"suspended"`
	Reason    string `json:"reason,omitempty"`
}

// SuspensionGuard ends sessions whose account or organization has been
// suspended or deactivated. Results are cached briefly per user.
type SuspensionGuard struct {
	users         UserLookup
	organizations OrganizationLookup
	authService   *auth.Service
	cache         *cache.Cache
}

// NewSuspensionGuard creates a guard caching lookups for ttl.
func NewSuspensionGuard(users UserLookup, organizations OrganizationLookup, authService *auth.Service, ttl time.Duration) *SuspensionGuard {
	return &SuspensionGuard{
		users:         users,
		organizations: organizations,
		authService:   authService,
		cache:         cache.New(ttl, 2*ttl),
	}
}

// Check reports whether the session's account or organization is suspended.
func (g *SuspensionGuard) Check(ctx context.Context, claims *models.Claims) (SuspensionStatus, error) {
	if cached, ok := g.cache.Get(claims.UserID); ok {
		return cached.(SuspensionStatus), nil
	}

	status, err := g.lookup(ctx, claims)
	if err != nil {
		return SuspensionStatus{}, err
	}
	g.cache.SetDefault(claims.UserID, status)
	return status, nil
}

func (g *SuspensionGuard) lookup(ctx context.Context, claims *models.Claims) (SuspensionStatus, error) {
	user, err := g.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			return SuspensionStatus{Suspended: true, Reason: "account not found"}, nil
		}
		return SuspensionStatus{}, err
	}
	if user.Suspended {
		return SuspensionStatus{Suspended: true, Reason: "account suspended"}, nil
	}
	if !user.IsActive {
		return SuspensionStatus{Suspended: true, Reason: "account deactivated"}, nil
	}

	orgName := models.ResolveOrganization(user.Company, user.Organization)
	org, err := g.organizations.FindOrganizationByName(ctx, orgName)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return SuspensionStatus{}, nil
	case err != nil:
		return SuspensionStatus{}, err
	case org.Suspended:
		return SuspensionStatus{Suspended: true, Reason: "organization suspended"}, nil
	}
	return SuspensionStatus{}, nil
}

// Invalidate drops the cached status of a user.
func (g *SuspensionGuard) Invalidate(userID string) {
	g.cache.Delete(userID)
}

// Guard must run after Authenticate. Suspended sessions get their cookie cleared and a 401.
func (g *SuspensionGuard) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		status, err := g.Check(r.Context(), claims)
		if err != nil {
			log.WithError(err).WithField("user_id", claims.UserID).Error("Suspension check failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if status.Suspended {
			log.WithFields(log.Fields{"user_id": claims.UserID, "reason": status.Reason}).Warn("Signing out suspended session")
			g.authService.ClearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "Account suspended")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GuardPage is Guard for pages: suspended sessions are signed out and sent to the login page.
func (g *SuspensionGuard) GuardPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		status, err := g.Check(r.Context(), claims)
		if err != nil {
			log.WithError(err).WithField("user_id", claims.UserID).Error("Suspension check failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if status.Suspended {
			g.authService.ClearSessionCookie(w)
			http.Redirect(w, r, LoginPath+"?suspended=1", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
