package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ResumeTokenService signs short-lived rejoin credentials binding a
// session id to a player name. Sessions never outlive a process restart,
// so a modest TTL is plenty.
type ResumeTokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewResumeTokenService(secret string) *ResumeTokenService {
	return &ResumeTokenService{secret: []byte(secret), ttl: 24 * time.Hour}
}

func (s *ResumeTokenService) Issue(instanceID, playerName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":    instanceID,
		"player": playerName,
		"exp":    now.Add(s.ttl).Unix(),
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *ResumeTokenService) Verify(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}

	sid, _ := claims["sid"].(string)
	player, _ := claims["player"].(string)
	if sid == "" || player == "" {
		return "", "", ErrInvalidToken
	}
	return sid, player, nil
}
