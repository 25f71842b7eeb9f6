package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/stock-count/internal/auth"
	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/port"
)

// Authenticator turns a bearer token into the actor of a request. The user is
// loaded from the catalog on every request so role changes apply at once.
type Authenticator struct {
	secret  []byte
	catalog port.CatalogRepository
}

func NewAuthenticator(secret []byte, catalog port.CatalogRepository) *Authenticator {
	return &Authenticator{secret: secret, catalog: catalog}
}

// Authenticate accepts the raw Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (domain.User, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok {
		return domain.User{}, auth.ErrMissingToken
	}

	userID, err := auth.ValidateToken(a.secret, strings.TrimSpace(token))
	if err != nil {
		return domain.User{}, err
	}

	user, err := a.catalog.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: unknown user %d", errUnauthenticated, userID)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	return *user, nil
}
