package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/middleware"
	"tourbook/internal/http/render"
	"tourbook/internal/mail"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 10 * time.Minute

// AuthHandlers owns signup, login and the password lifecycle.
type AuthHandlers struct {
	Users  repositories.UsersRepository
	Mailer mail.Mailer
	Env    config.Env
}

// sendToken mints a JWT, mirrors it into the auth cookie and writes the
// success envelope with the user attached.
func (h AuthHandlers) sendToken(c *gin.Context, user models.User, status int) {
	token, err := middleware.SignToken([]byte(h.Env.JWTSecret), user.ID, h.Env.JWTExpires)
	if err != nil {
		render.Error(c, domain.Internal("sign token", err))
		return
	}
	c.SetCookie(middleware.CookieName, token,
		int(h.Env.JWTCookieExpires.Seconds()), "/", "", h.Env.Production(), true)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role"`
}

// POST /api/v1/users/signup
func (h AuthHandlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, domain.BadRequest("Invalid data sent"))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		render.Error(c, domain.BadRequest("Please provide your name and email"))
		return
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		render.Error(c, err)
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		render.Error(c, domain.Validation("role", "Role is either: user, guide, lead-guide, admin"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		render.Error(c, domain.Internal("hash password", err))
		return
	}
	user, err := h.Users.Signup(c.Request.Context(), req.Name, req.Email, string(hash), role)
	if err != nil {
		render.Error(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "signup", "new account created")
	h.sendToken(c, user, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/users/login
func (h AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		render.Error(c, domain.BadRequest("Please provide email and password"))
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if domain.IsNotFound(err) {
			render.Error(c, domain.Unauthorized("Incorrect email or password"))
			return
		}
		render.Error(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		render.Error(c, domain.Unauthorized("Incorrect email or password"))
		return
	}
	user.PasswordHash = ""
	h.sendToken(c, user, http.StatusOK)
}

// GET /api/v1/users/logout
func (h AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(middleware.CookieName, "loggedout", 10, "/", "", h.Env.Production(), true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// POST /api/v1/users/forgotPassword
func (h AuthHandlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		render.Error(c, domain.BadRequest("Please provide your email address"))
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if domain.IsNotFound(err) {
			render.Error(c, domain.NotFound("There is no user with that email address"))
			return
		}
		render.Error(c, err)
		return
	}

	resetToken := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := h.Users.SetResetToken(c.Request.Context(), user.ID,
		hashToken(resetToken), time.Now().Add(resetTokenTTL)); err != nil {
		render.Error(c, err)
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s",
		requestScheme(c), c.Request.Host, resetToken)
	body := fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\nIf you didn't forget your password, please ignore this email!", resetURL)

	if err := h.Mailer.Send(user.Email, "Your password reset token (valid for 10 min)", body); err != nil {
		_ = h.Users.ClearResetToken(c.Request.Context(), user.ID)
		render.Error(c, &domain.AppError{
			Code:        http.StatusInternalServerError,
			Message:     "There was an error sending the email. Try again later!",
			Operational: true,
			Err:         err,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// PATCH /api/v1/users/resetPassword/:token
func (h AuthHandlers) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, domain.BadRequest("Invalid data sent"))
		return
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		render.Error(c, err)
		return
	}

	user, err := h.Users.FindByResetToken(c.Request.Context(), hashToken(c.Param("token")))
	if err != nil {
		render.Error(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		render.Error(c, domain.Internal("hash password", err))
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), user.ID, string(hash)); err != nil {
		render.Error(c, err)
		return
	}
	h.sendToken(c, user, http.StatusOK)
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// PATCH /api/v1/users/updateMyPassword
func (h AuthHandlers) UpdatePassword(c *gin.Context) {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		render.Error(c, domain.Internal("UpdatePassword without principal", nil))
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, domain.BadRequest("Invalid data sent"))
		return
	}
	if err := validPassword(req.Password, req.PasswordConfirm); err != nil {
		render.Error(c, err)
		return
	}

	user, _, err := h.Users.Credentials(c.Request.Context(), p.UserID)
	if err != nil {
		render.Error(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.PasswordCurrent)) != nil {
		render.Error(c, domain.Unauthorized("Your current password is wrong."))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		render.Error(c, domain.Internal("hash password", err))
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), user.ID, string(hash)); err != nil {
		render.Error(c, err)
		return
	}
	user.PasswordHash = ""
	h.sendToken(c, user, http.StatusCreated)
}

func validPassword(password, confirm string) error {
	if len(password) < 8 {
		return domain.Validation("password", "Password must be at least 8 characters")
	}
	if password != confirm {
		return domain.Validation("passwordConfirm", "Passwords are not the same")
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func requestScheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
