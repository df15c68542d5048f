package identity

import "context"

// Identity is the opaque caller record resolved per request from the auth
// collaborator's token. Subject is the stable user id; the display fields
// are optional.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Alias   string
}

// DisplayName picks a human-readable name with the fallback order
// name, email, alias, then the literal "User".
func (id Identity) DisplayName() string {
	switch {
	case id.Name != "":
		return id.Name
	case id.Email != "":
		return id.Email
	case id.Alias != "":
		return id.Alias
	default:
		return "User"
	}
}

type contextKey struct{}

// WithIdentity returns a context carrying the resolved caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the caller identity, if any. Store operations take
// identity explicitly through this value rather than through global state,
// which also makes ownership checks testable with synthetic identities.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.Subject != ""
}
