package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardbank/internal/domain"
	"cardbank/pkg/tokenpkg"
	"cardbank/pkg/web"

	"github.com/gin-gonic/gin"
)

const (
	// AuthHeaderKey is the header carrying the access token.
	AuthHeaderKey = "authorization"
	// AuthTypeBearer is the only supported authorization scheme.
	AuthTypeBearer = "bearer"
	// AuthPayloadKey is the gin context key the verified token payload is stored under.
	AuthPayloadKey = "authorization_payload"
)

var (
	// ErrAuthHeaderNotFound indicates a missing authorization header.
	ErrAuthHeaderNotFound = errors.New("authorization header is not provided")
	// ErrAuthHeaderInvalidFormat indicates a malformed authorization header.
	ErrAuthHeaderInvalidFormat = errors.New("invalid authorization header format")
	// ErrAdminRequired indicates that the route needs the ADMIN role.
	ErrAdminRequired = errors.New("admin role required")
)

// AuthMiddleware verifies the bearer token and stores its payload in the context.
func AuthMiddleware(tokenMaker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		authHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))

			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderInvalidFormat))

			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			err := fmt.Errorf("unsupported authorization type %s", authType)
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))

			return
		}

		accessToken := fields[1]

		payload, err := tokenMaker.VerifyToken(accessToken)
		if err != nil {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))

			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// AdminMiddleware rejects requests whose token does not carry the ADMIN role.
//
// It must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		payload := gctx.MustGet(AuthPayloadKey).(*tokenpkg.Payload)

		if payload.Role != string(domain.RoleAdmin) {
			gctx.AbortWithStatusJSON(http.StatusForbidden, web.Error(ErrAdminRequired))

			return
		}

		gctx.Next()
	}
}

// AddAuthorization issues a token and sets the authorization header on the request.
func AddAuthorization(r *http.Request, tokenMaker tokenpkg.Maker,
	authType, username, role string, duration time.Duration,
) error {
	token, _, err := tokenMaker.CreateToken(username, role, duration)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}
