package guard

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

const snapshotKey = "session_snapshot"

// Middleware resolves bearer tokens into session snapshots and enforces
// guard decisions on protected routes.
type Middleware struct {
	svc     identity.Service
	logger  *zap.Logger
	timeout time.Duration
}

// NewMiddleware constructs middleware.
func NewMiddleware(svc identity.Service, logger *zap.Logger, timeout time.Duration) *Middleware {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Middleware{svc: svc, logger: logger, timeout: timeout}
}

// Resolve attaches a session snapshot for the presented bearer token, if
// any. It never rejects: anonymous snapshots pass through so that public
// routes can accept both anonymous and authenticated submissions.
func (m *Middleware) Resolve(c *fiber.Ctx) error {
	token := bearerToken(c)
	snapshot, err := session.Resolve(c.UserContext(), m.svc, m.logger, m.timeout, token)
	if err != nil {
		// Treated like an unreachable identity service: the caller stays
		// anonymous for this request, protected routes will reject below.
		m.logger.Warn("session resolve failed", zap.Error(err))
	}
	c.Locals(snapshotKey, snapshot)
	return c.Next()
}

// Require enforces a guard decision for the route. requiredRole == "" means
// any authenticated caller.
func (m *Middleware) Require(requiredRole domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshot := SnapshotFromContext(c)
		decision := Decide(snapshot, requiredRole)
		switch decision.Action {
		case Render:
			return c.Next()
		case ShowLoading:
			// Session state is not settled; ask the client to retry rather
			// than redirect.
			c.Set(fiber.HeaderRetryAfter, "1")
			return apperrors.NewDomainError("SESSION_PENDING", "session state pending", fiber.StatusServiceUnavailable, nil)
		default:
			if decision.Target == SignInPath {
				return apperrors.NewUnauthorized("sign-in required")
			}
			return apperrors.NewForbidden("insufficient role")
		}
	}
}

// SnapshotFromContext retrieves the session snapshot attached by Resolve.
func SnapshotFromContext(c *fiber.Ctx) session.Snapshot {
	if val, ok := c.Locals(snapshotKey).(session.Snapshot); ok {
		return val
	}
	return session.Snapshot{State: session.StateAnonymous}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
