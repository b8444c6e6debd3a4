package echoapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/dsteam/cohortboard/core"
)

const contextTokenKey = "gateToken"

// Claims represents the authorization claims transmitted via a JWT.
// The dashboard has a single shared password gate, so there is no
// per-user identity to carry.
type Claims struct {
	jwt.StandardClaims
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func newClaims(conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Audience:  "Dashboard",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// checkGatePassword compares a candidate password against the configured
// digest: bcrypt when the digest carries the "$2" prefix, sha256 hex
// otherwise.
func checkGatePassword(pwd, digest string) bool {
	if digest == "" {
		return false
	}
	if strings.HasPrefix(digest, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(pwd)) == nil
	}
	sum := sha256.Sum256([]byte(pwd))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(digest))) == 1
}

func (s *server) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	if !checkGatePassword(data.Password, s.deps.Conf.GateDigest) {
		return errAuthenticationFailed
	}

	token, err := GenerateToken(s.deps.Conf, newClaims(s.deps.Conf))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}
