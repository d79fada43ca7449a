package mockapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

const (
	TokenAccess        = "access"
	TokenRefresh       = "refresh"
	TokenResetPassword = "resetPassword"
)

// Shortest HS256 key go-jose will sign with
const MinSecretSize = 32

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrShortSecret  = fmt.Errorf("signing secret must be at least %d bytes", MinSecretSize)
)

type tokenClaims struct {
	jwt.Claims
	Type string `json:"type"`
}

type issuedToken struct {
	userID  string
	kind    string
	expires time.Time
}

// Tokens signs HS256 JWTs and remembers issued refresh and reset tokens so
// they can be used once.
type Tokens struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	key    []byte
	signer jose.Signer
	now    func() time.Time

	mu     sync.Mutex
	issued map[string]issuedToken
}

func NewTokens(secret []byte) (*Tokens, error) {
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("%w, got %d", ErrShortSecret, len(secret))
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, &jose.SignerOptions{
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			jose.HeaderKey("typ"): "JWT",
		},
	})
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		ResetTTL:   10 * time.Minute,
		key:        secret,
		signer:     signer,
		now:        time.Now,
		issued:     map[string]issuedToken{},
	}, nil
}

// Generate signs a token of the given kind for userID. Refresh and reset
// tokens are recorded as issued.
func (t *Tokens) Generate(userID, kind string) (*models.Token, error) {
	now := t.now()
	expires := now.Add(t.ttl(kind))
	claims := tokenClaims{
		Claims: jwt.Claims{
			Subject:  userID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(expires),
		},
		Type: kind,
	}
	token, err := jwt.Signed(t.signer).Claims(claims).Serialize()
	if err != nil {
		return nil, err
	}

	if kind != TokenAccess {
		t.mu.Lock()
		t.issued[token] = issuedToken{userID: userID, kind: kind, expires: expires}
		t.mu.Unlock()
	}
	return &models.Token{Token: token, Expires: expires.UTC().Truncate(time.Second)}, nil
}

// AuthTokens issues a new access and refresh token pair.
func (t *Tokens) AuthTokens(userID string) (*models.AuthTokens, error) {
	access, err := t.Generate(userID, TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := t.Generate(userID, TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &models.AuthTokens{Access: access, Refresh: refresh}, nil
}

// Verify checks the signature, expiry and kind of a token and returns its
// subject.
func (t *Tokens) Verify(token, kind string) (string, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", ErrInvalidToken
	}

	var claims tokenClaims
	if err := parsed.Claims(t.key, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Time: t.now()}, 0); err != nil {
		return "", err
	}
	if claims.Type != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Consume verifies an issued refresh or reset token and forgets it.
func (t *Tokens) Consume(token, kind string) (string, error) {
	userID, err := t.Verify(token, kind)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	issued, ok := t.issued[token]
	if !ok || issued.kind != kind || issued.userID != userID {
		return "", ErrInvalidToken
	}
	delete(t.issued, token)
	return userID, nil
}

// Revoke forgets every issued token of a kind belonging to userID.
func (t *Tokens) Revoke(userID, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, issued := range t.issued {
		if issued.userID == userID && issued.kind == kind {
			delete(t.issued, token)
		}
	}
}

func (t *Tokens) ttl(kind string) time.Duration {
	switch kind {
	case TokenRefresh:
		return t.RefreshTTL
	case TokenResetPassword:
		return t.ResetTTL
	}
	return t.AccessTTL
}
