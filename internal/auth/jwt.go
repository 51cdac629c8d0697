package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrIdentityMismatch = errors.New("token does not match user")

type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret: secret,
		Expiry: 7 * 24 * time.Hour,
		Issuer: "taskie",
	}
}

func CreateToken(userID int64, cfg TokenConfig) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("missing secret")
	}
	if userID <= 0 {
		return "", errors.New("invalid userID")
	}
	if cfg.Expiry <= 0 {
		return "", errors.New("invalid expiry")
	}

	jtiBytes := make([]byte, 16)
	if _, err := rand.Read(jtiBytes); err != nil {
		return "", err
	}
	jti := hex.EncodeToString(jtiBytes)

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

func VerifyToken(tokenString string, cfg TokenConfig) (*Claims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("missing secret")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID <= 0 {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// SocketVerifier checks that the token sent with a socket auth message was
// issued to the user the connection claims to be.
type SocketVerifier struct {
	Config TokenConfig
}

func (v SocketVerifier) Verify(userID int64, token string) error {
	if token == "" {
		return jwt.ErrTokenMalformed
	}
	claims, err := VerifyToken(token, v.Config)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return ErrIdentityMismatch
	}
	return nil
}
