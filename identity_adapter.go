package auth

// principal is the token view of a User, captured when the token is minted
type principal struct {
	id       string
	username string
	email    string
	roles    RoleType
}

// NewIdentityFromUser snapshots user for token issuance. Later changes to
// user do not leak into tokens minted from the snapshot.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return principal{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		roles:    user.Roles,
	}
}

func (p principal) ID() string       { return p.id }
func (p principal) Username() string { return p.username }
func (p principal) Email() string    { return p.email }
func (p principal) Roles() RoleType  { return p.roles }
