package server

import (
	"errors"
	"strings"

	"czar-party/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

type claims struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	jwt.RegisteredClaims
}

// authenticator verifies HS256 bearer tokens issued by the identity provider.
type authenticator struct {
	secret []byte
	issuer string
}

func newAuthenticator(secret, issuer string) *authenticator {
	return &authenticator{secret: []byte(secret), issuer: strings.TrimSpace(issuer)}
}

func (a *authenticator) verify(raw string) (game.Identity, error) {
	if len(a.secret) == 0 {
		return game.Identity{}, errors.New("token verification is not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return game.Identity{}, err
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return game.Identity{}, errors.New("token has no subject")
	}
	nickname := parsed.Nickname
	if nickname == "" {
		nickname = parsed.Name
	}
	return game.Identity{
		Subject:  parsed.Subject,
		Email:    parsed.Email,
		Nickname: nickname,
		Picture:  parsed.Picture,
	}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			writeError(c, game.ErrUnauthenticated)
			c.Abort()
			return
		}
		id, err := s.auth.verify(raw)
		if err != nil {
			s.log.Debugw("token rejected", "error", err)
			writeError(c, game.ErrUnauthenticated)
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.admins[identity(c).Subject] {
			writeError(c, game.ErrNotAdmin)
			c.Abort()
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) game.Identity {
	if value, ok := c.Get(identityKey); ok {
		if id, ok := value.(game.Identity); ok {
			return id
		}
	}
	return game.Identity{}
}
