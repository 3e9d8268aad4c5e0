package identity

import (
	"net/http"

	"gym-service/internal/models"
	"gym-service/pkg/response"
)

// Provider resolves the current user identity for a request. Sign-in and
// token issuance live in an external auth service, this boundary only
// consumes the identity it already established.
type Provider interface {
	Session(r *http.Request) (*models.Session, error)
}

// HeaderProvider reads the identity material the auth proxy forwards in
// request headers.
type HeaderProvider struct{}

func NewHeaderProvider() *HeaderProvider {
	return &HeaderProvider{}
}

func (p *HeaderProvider) Session(r *http.Request) (*models.Session, error) {
	uid := r.Header.Get("X-User-Id")
	if uid == "" {
		return nil, response.ErrForbidden
	}

	return &models.Session{
		UID:      uid,
		Name:     r.Header.Get("X-User-Name"),
		PhotoURL: r.Header.Get("X-User-Photo"),
		Admin:    r.Header.Get("X-User-Role") == "admin",
	}, nil
}
