package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/authflow/internal/apperr"
	"github.com/wuwenbin0122/authflow/internal/auth"
	"github.com/wuwenbin0122/authflow/internal/session"
)

const (
	loginPath = "/login"
	homePath  = "/home"

	maintenanceMessage = "system under maintenance"
)

type Handler struct {
	authService *auth.Service
	sessions    *session.Manager
	logger      *zap.SugaredLogger
}

func NewHandler(authService *auth.Service, sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{authService: authService, sessions: sessions, logger: logger.Sugar()}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.viewIndex)

	router.GET("/signup", h.viewSignup)
	router.POST("/signup", h.handleSignup)

	router.GET(loginPath, h.viewLogin)
	router.POST(loginPath, h.handleLogin)

	router.GET(homePath, session.NoCache(), h.sessions.RequireAuthenticated(loginPath), h.viewHome)
	router.POST("/logout", session.NoCache(), h.handleLogout)
}

type signupRequest struct {
	Username  string `form:"user_name" json:"user_name"`
	FirstName string `form:"user_first_name" json:"user_first_name"`
	LastName  string `form:"user_last_name" json:"user_last_name"`
	Email     string `form:"user_email" json:"user_email"`
	Password  string `form:"user_password" json:"user_password"`
}

type loginRequest struct {
	Email    string `form:"user_email" json:"user_email"`
	Password string `form:"user_password" json:"user_password"`
}

func (h *Handler) viewIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":  "index",
		"links": []string{"/signup", loginPath},
	})
}

func (h *Handler) viewSignup(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "signup",
		"fields": []string{"user_name", "user_first_name", "user_last_name", "user_email", "user_password"},
	})
}

func (h *Handler) viewLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "login",
		"fields": []string{"user_email", "user_password"},
	})
}

func (h *Handler) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	rows, err := h.authService.Signup(c.Request.Context(), auth.SignupInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "signup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows_inserted": rows,
		"message":       fmt.Sprintf("total rows inserted: %d", rows),
	})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "login", err)
		return
	}

	if err := h.sessions.Start(c, session.Data{
		UserID:    user.ID,
		FirstName: user.FirstName,
		Username:  user.Username,
	}); err != nil {
		h.respondError(c, "login", err)
		return
	}

	c.Redirect(http.StatusFound, homePath)
}

func (h *Handler) viewHome(c *gin.Context) {
	data, _ := session.FromContext(c)
	firstName := data.FirstName
	if firstName == "" {
		firstName = "User"
	}

	c.JSON(http.StatusOK, gin.H{
		"page":       "home",
		"first_name": firstName,
		"username":   data.Username,
	})
}

// handleLogout always expires the cookie. If the stored session cannot be
// deleted the response is the maintenance error, not a redirect.
func (h *Handler) handleLogout(c *gin.Context) {
	data, err := h.sessions.Load(c)
	if err != nil {
		h.logger.Warnw("logout: load session failed", "error", err)
	}
	if err := h.sessions.Clear(c); err != nil {
		h.respondError(c, "logout", err)
		return
	}
	if data.Authenticated() {
		h.authService.Logout(c.Request.Context(), data.UserID, c.ClientIP())
	}

	c.Redirect(http.StatusFound, loginPath)
}

// respondError maps the error taxonomy onto status codes. Anything outside
// the taxonomy is logged and reported as maintenance.
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	var (
		vErr *apperr.ValidationError
		dup  *apperr.DuplicateError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(c, http.StatusBadRequest, validationMessage(vErr))
	case errors.As(err, &dup):
		writeError(c, http.StatusConflict, duplicateMessage(dup))
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeError(c, http.StatusBadRequest, "invalid credentials")
	case errors.Is(err, apperr.ErrServiceUnavailable):
		h.logger.Errorw(op+": store unavailable", "error", err)
		writeError(c, http.StatusInternalServerError, maintenanceMessage)
	default:
		h.logger.Errorw(op+": unexpected error", "error", err)
		writeError(c, http.StatusInternalServerError, maintenanceMessage)
	}
}

func validationMessage(err *apperr.ValidationError) string {
	subject := map[string]string{
		apperr.FieldUsername:  "name",
		apperr.FieldFirstName: "first name",
		apperr.FieldLastName:  "last name",
	}[err.Field]

	switch {
	case err.Field == apperr.FieldEmail:
		return "invalid email"
	case err.Field == apperr.FieldPassword:
		return "invalid password"
	case subject != "" && err.Reason == apperr.TooShort:
		return subject + " too short"
	case subject != "" && err.Reason == apperr.TooLong:
		return subject + " too long"
	default:
		return "invalid input"
	}
}

func duplicateMessage(err *apperr.DuplicateError) string {
	switch err.Field {
	case apperr.FieldEmail:
		return "email already in use"
	case apperr.FieldUsername:
		return "username already in use"
	default:
		return "email or username already in use"
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error": message,
	})
}
