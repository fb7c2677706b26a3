package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"auth-gateway/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single verdict for every validation failure:
// bad signature, wrong issuer or audience, expired, malformed. Callers
// must not learn which check failed.
var ErrInvalidToken = errors.New("token: invalid or expired")

// minSecretLen matches the HMAC-SHA256 output size. Shorter keys erode
// the MAC's security margin and are rejected outright.
const minSecretLen = 32

// stateTTL bounds how long an OAuth round trip may take.
const stateTTL = 5 * time.Minute

// stateAudience separates handshake-state tokens from bearer tokens so
// neither ever validates as the other.
const stateAudience = "oauth-state"

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Service issues and validates the gateway's bearer tokens plus the
// signed state payload carried through the external-provider redirect.
// It holds only immutable key material and is safe for concurrent use.
type Service struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("token: signing secret must be at least %d bytes", minSecretLen)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("token: issuer and audience are required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      now,
	}, nil
}

type bearerClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type stateClaims struct {
	jwt.RegisteredClaims
	ReturnURL string `json:"rurl,omitempty"`
}

// Issue signs a bearer token for a verified user.
func (s *Service) Issue(u *user.User) (string, error) {
	now := s.now().UTC()

	claims := bearerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name:  u.Name,
		Email: u.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signed, nil
}

// Validate checks signature, issuer, audience, and expiry, and returns
// the authenticated subject id. Zero clock-skew tolerance.
func (s *Service) Validate(raw string) (int64, error) {
	var claims bearerClaims
	_, err := jwt.ParseWithClaims(raw, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return id, nil
}

// IssueState signs the handshake-state payload that rides the OAuth
// `state` parameter across the provider redirect.
func (s *Service) IssueState(returnURL string) (string, error) {
	now := s.now().UTC()

	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
		ReturnURL: returnURL,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign state: %w", err)
	}

	return signed, nil
}

// ValidateState parses the round-trip state payload, treating it as
// untrusted input. Returns the embedded return URL and the payload id
// used for one-time consumption.
func (s *Service) ValidateState(raw string) (returnURL string, id string, err error) {
	var claims stateClaims
	_, err = jwt.ParseWithClaims(raw, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	if claims.ID == "" {
		return "", "", ErrInvalidToken
	}

	return claims.ReturnURL, claims.ID, nil
}

func (s *Service) keyFunc(*jwt.Token) (any, error) {
	return s.secret, nil
}
