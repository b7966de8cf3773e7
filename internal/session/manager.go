package session

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/authflow/internal/utils"
)

// ContextDataKey holds the authenticated session Data inside a gin context.
const ContextDataKey = "session.data"

// Manager moves sessions between the cookie and the Store.
type Manager struct {
	store      Store
	cookieName string
	maxAge     int
	secure     bool
	logger     *zap.Logger
}

func NewManager(store Store, cfg utils.SessionConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		maxAge:     int(cfg.TTL.Seconds()),
		secure:     cfg.Secure,
		logger:     logger,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Load returns the session bound to the request cookie, or zero Data when
// there is none.
func (m *Manager) Load(c *gin.Context) (Data, error) {
	id, err := c.Cookie(m.cookieName)
	if err != nil || id == "" {
		return Data{}, nil
	}
	data, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		return Data{}, err
	}
	if data == nil {
		return Data{}, nil
	}
	return *data, nil
}

// Start replaces whatever session the browser had with a new one holding
// data. The old record is deleted before anything is written and the new
// value lands under a fresh id in a single Set, so no reader can observe old
// and new fields mixed.
func (m *Manager) Start(c *gin.Context, data Data) error {
	ctx := c.Request.Context()
	if oldID, err := c.Cookie(m.cookieName); err == nil && oldID != "" {
		if err := m.store.Delete(ctx, oldID); err != nil {
			return err
		}
	}

	id, err := newID()
	if err != nil {
		return fmt.Errorf("session: generate id: %w", err)
	}
	if err := m.store.Set(ctx, id, data); err != nil {
		return err
	}

	m.setCookie(c, id, m.maxAge)
	return nil
}

// Clear drops the stored session and expires the cookie. It is safe to call
// for a browser that has no session.
func (m *Manager) Clear(c *gin.Context) error {
	defer m.setCookie(c, "", -1)

	id, err := c.Cookie(m.cookieName)
	if err != nil || id == "" {
		return nil
	}
	return m.store.Delete(c.Request.Context(), id)
}

// RequireAuthenticated redirects anonymous requests to loginPath.
func (m *Manager) RequireAuthenticated(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := m.Load(c)
		if err != nil {
			m.logger.Error("session: load failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "system under maintenance",
			})
			return
		}
		if !data.Authenticated() {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(ContextDataKey, data)
		c.Next()
	}
}

// FromContext returns the Data stored by RequireAuthenticated.
func FromContext(c *gin.Context) (Data, bool) {
	value, ok := c.Get(ContextDataKey)
	if !ok {
		return Data{}, false
	}
	data, ok := value.(Data)
	return data, ok
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}
