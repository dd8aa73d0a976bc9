// Package capability issues and verifies admin capability tokens.
package capability

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/osa030/19radio/internal/infra/config"
)

// Subject is the only subject tokens are issued for.
const Subject = "admin"

// Errors
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Token is a signed capability.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Authority checks the admin password and signs tokens with a shared secret.
type Authority struct {
	password string
	secret   []byte
	ttl      time.Duration
	limiter  *Limiter
	now      func() time.Time
}

// Option configures an Authority.
type Option func(*Authority)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
		a.limiter.now = now
	}
}

// New creates an authority from the admin config.
func New(cfg config.AdminConfig, opts ...Option) *Authority {
	a := &Authority{
		password: cfg.Password,
		secret:   []byte(cfg.SigningSecret),
		ttl:      cfg.TokenTTL,
		limiter:  NewLimiter(cfg.LoginAttempts, cfg.LoginWindow),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login exchanges the admin password for a token. peer identifies the
// caller for rate limiting.
func (a *Authority) Login(peer, password string) (Token, error) {
	if !a.limiter.Allow(peer) {
		zlog.Warn().Msgf("capability: login rate limited: peer=%s", peer)
		return Token{}, ErrTooManyAttempts
	}
	if !a.checkPassword(password) {
		zlog.Warn().Msgf("capability: login failed: peer=%s", peer)
		return Token{}, ErrInvalidPassword
	}

	tok, err := a.Issue()
	if err != nil {
		return Token{}, err
	}
	zlog.Info().Msgf("capability: login succeeded: peer=%s expires_at=%s", peer, tok.ExpiresAt.Format(time.RFC3339))
	return tok, nil
}

// checkPassword accepts either a bcrypt hash or a plain password in config.
func (a *Authority) checkPassword(password string) bool {
	if strings.HasPrefix(a.password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) == 1
}

// Issue signs a new token.
func (a *Authority) Issue() (Token, error) {
	now := a.now()
	exp := now.Add(a.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Token{}, errors.Wrap(err, "failed to sign token")
	}
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks the signature, algorithm, subject and expiry of a token.
func (a *Authority) Verify(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(Subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		zlog.Debug().Err(err).Msg("capability: token rejected")
		return ErrInvalidToken
	}
	return nil
}
