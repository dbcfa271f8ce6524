package jwttoken

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/requestcontext"
)

// Claims represents the access-token claims minted by the platform's identity
// issuer. Older tokens carry the caller in "id" instead of "userId".
type Claims struct {
	UserID   claimString `json:"userId,omitempty"`
	LegacyID claimString `json:"id,omitempty"`
	Role     string      `json:"role,omitempty"`
	SchoolID claimString `json:"schoolId,omitempty"`
	jwt.RegisteredClaims
}

// CallerID returns userId, falling back to the legacy id claim.
func (c *Claims) CallerID() string {
	if id := strings.TrimSpace(string(c.UserID)); id != "" {
		return id
	}
	return strings.TrimSpace(string(c.LegacyID))
}

// claimString accepts both string and numeric JSON values.
type claimString string

func (s *claimString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = claimString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = claimString(num.String())
	return nil
}

// Verifier validates HMAC-signed access tokens against the shared secret.
// It never issues tokens.
type Verifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

type Option func(*Verifier)

// WithLeeway tolerates small clock skew between issuer and gateway.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		v.leeway = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Configured reports whether a verification secret is present.
func (v *Verifier) Configured() bool {
	return len(v.secret) > 0
}

// ValidateToken verifies the signature and, when present, the expiry and returns
// the parsed claims.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	if !v.Configured() {
		return nil, dErrors.New(dErrors.CodeMisconfigured, "token verification secret is not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	parsed, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.CallerID() == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no caller id")
	}

	return claims, nil
}

// VerifyToken validates the token and returns the caller identity.
func (v *Verifier) VerifyToken(tokenString string) (requestcontext.Identity, error) {
	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		return requestcontext.Identity{}, err
	}
	return requestcontext.Identity{
		UserID:   claims.CallerID(),
		Role:     strings.TrimSpace(claims.Role),
		SchoolID: string(claims.SchoolID),
	}, nil
}
