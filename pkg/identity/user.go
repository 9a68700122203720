package identity

// User pairs a numeric ID with its identity index: tag name -> ordered
// payload strings. A user may hold zero or many payloads under a tag
// (e.g. two EVM addresses); duplicates within a tag are preserved in
// insertion order since they represent distinct identities, not a set.
type User struct {
	ID         uint64              `json:"id" yaml:"id"`
	Identities map[string][]string `json:"identities" yaml:"identities"`
}

// Payloads returns the ordered payload strings a user holds under tag, or
// nil if the user holds none.
func (u User) Payloads(tag string) []string {
	return u.Identities[tag]
}

// UserBuilder accumulates (tag, payload) additions into a User's identity
// index, preserving insertion order within each tag.
type UserBuilder struct {
	user User
}

// NewUserBuilder starts building a user with the given ID.
func NewUserBuilder(id uint64) *UserBuilder {
	return &UserBuilder{user: User{ID: id, Identities: map[string][]string{}}}
}

// Add appends one identity's payload under its tag name.
func (b *UserBuilder) Add(identity Identity) *UserBuilder {
	tag := identity.TagName()
	b.user.Identities[tag] = append(b.user.Identities[tag], identity.Payload())
	return b
}

// Build returns the accumulated User.
func (b *UserBuilder) Build() User {
	return b.user
}
