package middleware

import (
	"errors"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrBadToken   error = errors.New("bad token")
	ErrBadMethod  error = errors.New("bad sign method")
	ErrBadPayload error = errors.New("empty/expired payload")
	ErrNoSecret   error = errors.New("empty secret key")
)

type AuthJWT struct {
	secretKey []byte
	method    jwt.SigningMethod
}

func NewAuthJWT(secret string) (*AuthJWT, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &AuthJWT{
		secretKey: []byte(secret),
		method:    jwt.SigningMethodHS256,
	}, nil
}

// Validates given raw JWT token and returns
// the username (uuid) stored inside
func (a *AuthJWT) Verify(tokenRaw string) (string, error) {
	token, err := jwt.Parse(tokenRaw, a.secretGetter)
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}
	payload, ok := token.Claims.(jwt.MapClaims)
	if !ok || payload.Valid() != nil {
		return "", ErrBadPayload
	}
	id, ok := payload["username"]
	if !ok {
		return "", ErrBadPayload
	}
	if username, ok := id.(string); ok && username != "" {
		return username, nil
	}
	return "", ErrBadPayload
}

// Creates new JWT token string,
// which stores username (uuid) and is signed
// with the secret key
func (a *AuthJWT) NewUser() (token, username string, err error) {
	username = uuid.NewString()
	jwtToken := jwt.NewWithClaims(a.method, jwt.MapClaims{
		"username": username,
	})
	token, err = jwtToken.SignedString(a.secretKey)
	return
}

func (a *AuthJWT) secretGetter(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != a.method.Alg() {
		return nil, ErrBadMethod
	}
	return a.secretKey, nil
}
