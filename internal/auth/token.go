package auth // package auth provides token minting, parsing and the session-backed token service

import (
    "crypto/rand" // secure random number generation for activation codes
    "errors"
    "fmt"
    "math/big" // unbiased random integer for the 6-digit code
    "time"     // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique jti claim per minted token
)

// ErrInvalidToken is returned when a token fails signature or expiry
// validation, or carries claims in an unexpected shape.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived and travel either in the access_token
// cookie or the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived signed token used to obtain new
// access tokens.  Unlike the access token it is only ever exchanged at
// the refresh endpoint.  A refresh token is honored solely while the
// user's session entry still exists in the cache; its own expiry is
// necessary but not sufficient.
type RefreshToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT
// includes standard claims: subject (sub), role, expiration (exp),
// issued at (iat) and a random token id (jti).  iat/exp only carry
// second precision, so without the jti two mints in the same second
// would produce identical tokens; rotation must always yield a new one.
func NewAccessToken(secret string, userID uint64, role Role, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": string(role),
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
        "jti":  uuid.NewString(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh JWT carrying only
// the user id and expiry.  Refresh tokens are signed with a secret
// distinct from the access token secret.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
        "jti": uuid.NewString(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Token: signed, Exp: exp}, nil
}

// ParseAccess verifies an access token and returns the embedded user id
// and role.  Any signature, expiry or claim-shape problem is reported
// as ErrInvalidToken so callers cannot distinguish attack vectors.
func ParseAccess(secret, raw string) (uint64, Role, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return 0, "", err
    }
    uid, ok := subjectID(claims)
    if !ok {
        return 0, "", ErrInvalidToken
    }
    role, _ := claims["role"].(string)
    return uid, ParseRole(role), nil
}

// ParseRefresh verifies a refresh token and returns the embedded user id.
func ParseRefresh(secret, raw string) (uint64, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return 0, err
    }
    uid, ok := subjectID(claims)
    if !ok {
        return 0, ErrInvalidToken
    }
    return uid, nil
}

// PendingUser is the registration payload embedded in an activation
// token.  No user row exists until the activation code is confirmed.
type PendingUser struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"` // plaintext, only ever inside the short-lived signed token
}

// NewActivationToken signs a short-lived JWT embedding the pending
// registration together with a random 6-digit activation code.  The
// code is mailed to the user; the token is returned to the client and
// both must be presented to the activation endpoint.
func NewActivationToken(secret string, user PendingUser, ttlMin int) (token, code string, err error) {
    code, err = activationCode()
    if err != nil {
        return "", "", err
    }
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "user": map[string]any{"name": user.Name, "email": user.Email, "password": user.Password},
        "code": code,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    token, err = t.SignedString([]byte(secret))
    if err != nil {
        return "", "", err
    }
    return token, code, nil
}

// ParseActivationToken verifies an activation token and returns the
// pending registration and the expected activation code.
func ParseActivationToken(secret, raw string) (PendingUser, string, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return PendingUser{}, "", err
    }
    code, _ := claims["code"].(string)
    u, ok := claims["user"].(map[string]any)
    if !ok || code == "" {
        return PendingUser{}, "", ErrInvalidToken
    }
    pu := PendingUser{}
    pu.Name, _ = u["name"].(string)
    pu.Email, _ = u["email"].(string)
    pu.Password, _ = u["password"].(string)
    if pu.Email == "" || pu.Password == "" {
        return PendingUser{}, "", ErrInvalidToken
    }
    return pu, code, nil
}

// parseHS256 parses and validates a token signed with HMAC and returns
// its claims map.  Tokens using any other signing algorithm are rejected.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// subjectID extracts the numeric subject claim.  JWT numbers decode as
// float64; string subjects are not accepted here since this service
// always mints numeric ids.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
    if f, ok := claims["sub"].(float64); ok && f > 0 {
        return uint64(f), true
    }
    return 0, false
}

// activationCode returns a random 6-digit numeric string.
func activationCode() (string, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(900000))
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
