package authn

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/passwordhash"
)

var (
	ErrNoAuthHeader   = errors.New("authn: no authorization header")
	ErrMalformed      = errors.New("authn: malformed basic credentials")
	ErrBadCredentials = errors.New("authn: invalid username or password")
)

// Resolver looks up users for Authenticate and the two fallback policies.
// Satisfied by internal/model.Store.
type Resolver interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// DecodeBasic splits an "Authorization: Basic base64(id:password)" header
// into its identifier and password halves, per §4.E.
func DecodeBasic(header string) (identifier, password string, err error) {
	if header == "" {
		return "", "", ErrNoAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", "", ErrMalformed
	}
	dec, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", ErrMalformed
	}
	creds := strings.SplitN(string(dec), ":", 2)
	if len(creds) != 2 {
		return "", "", ErrMalformed
	}
	return creds[0], creds[1], nil
}

// Authenticate verifies a Basic header against the store, accepting
// either a username or an email as the identifier (§4.E).
func Authenticate(ctx context.Context, r Resolver, header string) (*Principal, error) {
	identifier, password, err := DecodeBasic(header)
	if err != nil {
		return nil, err
	}
	return verify(ctx, r, identifier, password)
}

func verify(ctx context.Context, r Resolver, identifier, password string) (*Principal, error) {
	user, err := r.GetUserByUsername(ctx, identifier)
	if err != nil || user == nil {
		user, err = r.GetUserByEmail(ctx, identifier)
	}
	if err != nil || user == nil {
		return nil, ErrBadCredentials
	}
	ok, err := passwordhash.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrBadCredentials
	}
	p := &Principal{UserID: user.ID, Username: user.Username}
	if user.Email != nil {
		p.Email = *user.Email
	}
	return p, nil
}

// Strict is §4.E policy 1: header present and valid → principal; absent
// or invalid → error (callers respond 401).
func Strict(ctx context.Context, r Resolver, header string) (*Principal, error) {
	return Authenticate(ctx, r, header)
}

// PathUserFallback is §4.E policy 2, for /caldav/users/{username}/...: a
// present header must validate; an absent header resolves the path
// username directly (unknown username → error).
func PathUserFallback(ctx context.Context, r Resolver, header, pathUsername string) (*Principal, error) {
	if header != "" {
		return Authenticate(ctx, r, header)
	}
	user, err := r.GetUserByUsername(ctx, pathUsername)
	if err != nil || user == nil {
		return nil, ErrBadCredentials
	}
	p := &Principal{UserID: user.ID, Username: user.Username}
	if user.Email != nil {
		p.Email = *user.Email
	}
	return p, nil
}

// EmailUserFallback is §4.E policy 3, for /calendar/dav/{email}/user/...:
// identical shape to PathUserFallback but keyed on email.
func EmailUserFallback(ctx context.Context, r Resolver, header, pathEmail string) (*Principal, error) {
	if header != "" {
		return Authenticate(ctx, r, header)
	}
	user, err := r.GetUserByEmail(ctx, pathEmail)
	if err != nil || user == nil {
		return nil, ErrBadCredentials
	}
	p := &Principal{UserID: user.ID, Username: user.Username}
	if user.Email != nil {
		p.Email = *user.Email
	}
	return p, nil
}
