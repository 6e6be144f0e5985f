package middleware

import (
	"context"
	"strconv"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/render"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the auth cookie used by browser flows, same payload as the
// bearer header.
const CookieName = "jwt"

// CredentialSource resolves a token subject to its account and the time its
// password last changed.
type CredentialSource interface {
	Credentials(ctx context.Context, id int64) (models.User, time.Time, error)
}

// AuthGate carries the request through Unauthenticated -> Token-Extracted ->
// Verified -> Authorized.
type AuthGate struct {
	Users  CredentialSource
	Secret []byte
}

// SignToken mints the HS256 token for a user id.
func SignToken(secret []byte, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// extractToken reads the bearer header, falling back to the auth cookie.
func extractToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	if tok, err := c.Cookie(CookieName); err == nil {
		return tok
	}
	return ""
}

// resolve runs extraction, verification, identity resolution and the
// staleness check, returning the principal or the terminal auth failure.
func (g AuthGate) resolve(c *gin.Context) (domain.Principal, error) {
	token := extractToken(c)
	if token == "" {
		return domain.Principal{}, domain.Unauthorized("You are not logged in! Please log in to get access.")
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Principal{}, domain.Unauthorized("Invalid token. Please log in again.")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, domain.Unauthorized("Invalid token. Please log in again.")
	}

	user, changedAt, err := g.Users.Credentials(c.Request.Context(), userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Principal{}, domain.Unauthorized("The user belonging to this token does no longer exist.")
		}
		return domain.Principal{}, err
	}

	if claims.IssuedAt != nil && changedAt.After(claims.IssuedAt.Time) {
		return domain.Principal{}, domain.Unauthorized("User recently changed password! Please log in again.")
	}

	return domain.Principal{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func attach(c *gin.Context, p domain.Principal) {
	c.Request = c.Request.WithContext(domain.WithPrincipal(c.Request.Context(), p))
	c.Set("userRole", p.Role)
}

// Protect terminates the request unless a valid principal can be resolved.
func (g AuthGate) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := g.resolve(c)
		if err != nil {
			render.Error(c, err)
			return
		}
		attach(c, p)
		c.Next()
	}
}

// OptionalAuth resolves a principal when possible but proceeds anonymously on
// any failure. Only for endpoints that render differently for known callers;
// never a guard for mutations.
func (g AuthGate) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := g.resolve(c); err == nil {
			attach(c, p)
		}
		c.Next()
	}
}

// RestrictTo allows only the listed roles past. It requires Protect to have
// run first; a missing principal here is a programming error, reported as a
// non-operational failure.
func (g AuthGate) RestrictTo(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := domain.PrincipalFrom(c.Request.Context())
		if !ok {
			render.Error(c, domain.Internal("RestrictTo called without Protect", nil))
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			render.Error(c, domain.Forbidden("You do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}
