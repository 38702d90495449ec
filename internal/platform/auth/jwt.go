package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 是校验通过后留给业务用的部分。
type Claims struct {
	UserID string
	Role   string
}

var (
	ErrEmptySubject = errors.New("empty user id")
	ErrEmptyRole    = errors.New("empty role")
)

// TokenService 签发和校验管理接口用的 bearer token。
type TokenService interface {
	Sign(userID string, role string) (string, error)
	Verify(token string) (Claims, error)
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// hs256 用共享密钥签名；只接受本 issuer 签发、带 exp 的 HS256 token。
type hs256 struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
	issuer string
}

func NewHS256Service(secret, issuer string, ttl time.Duration) (TokenService, error) {
	switch {
	case secret == "":
		return nil, errors.New("jwt secret is empty")
	case issuer == "":
		return nil, errors.New("jwt issuer is empty")
	case ttl <= 0:
		return nil, errors.New("jwt ttl must be > 0")
	}
	return &hs256{
		key:    []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

func (h *hs256) Sign(userID, role string) (string, error) {
	if userID == "" {
		return "", ErrEmptySubject
	}
	if role == "" {
		return "", ErrEmptyRole
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}).SignedString(h.key)
}

func (h *hs256) Verify(token string) (Claims, error) {
	var tc tokenClaims
	if _, err := h.parser.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) { return h.key, nil }); err != nil {
		return Claims{}, err
	}
	if tc.Subject == "" {
		return Claims{}, ErrEmptySubject
	}
	return Claims{UserID: tc.Subject, Role: tc.Role}, nil
}
