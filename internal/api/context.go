package api

import "context"

const (
	RoleVisitor = "visitor"
	RoleStaff   = "staff"
)

// Identity is the already-authenticated caller: a visitor booking for
// themselves or a front-desk staff member. The hosting application issues
// the tokens; this service only verifies and carries the result.
type Identity struct {
	Ref  string // email or account id
	Name string
	Role string
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) *Identity {
	v := ctx.Value(ctxKeyIdentity)
	if v == nil {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}
