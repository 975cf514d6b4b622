package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/utils"
	"github.com/kairos-service/internal/usecase"
)

// SessionHeader - альтернатива cookie для клиентов без cookie
const SessionHeader = "X-Session-ID"

const (
	sessionIDKey = "session_id"
	workspaceKey = "workspace"
)

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session находит или создает id сессии и кладет ее рабочее пространство в Locals.
// Пространство, получившее токены за время запроса, остается в реестре.
func Session(registry *usecase.WorkspaceRegistry, cfg SessionConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(SessionHeader)
		if id == "" {
			id = c.Cookies(cfg.CookieName)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			logger.Debug("New browser session", zap.String("session_id", id))
		}

		ws, err := registry.Get(c.UserContext(), id)
		if err != nil {
			return utils.SendError(c, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			Expires:  time.Now().Add(cfg.TTL),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Set(SessionHeader, id)

		c.Locals(sessionIDKey, id)
		c.Locals(workspaceKey, ws)
		err = c.Next()
		registry.Keep(ws)
		return err
	}
}

// RequireAuth пропускает только сессии с токенами
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := GetWorkspace(c)
		if ws == nil || !ws.Session.Authenticated() {
			return utils.SendError(c, errors.ErrUnauthenticated)
		}
		return c.Next()
	}
}

// GetWorkspace - рабочее пространство текущего запроса
func GetWorkspace(c *fiber.Ctx) *usecase.Workspace {
	ws, _ := c.Locals(workspaceKey).(*usecase.Workspace)
	return ws
}
