package auth

// Field names a user-record field subject to per-provider policy.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldEmail    Field = "email"
	FieldDOB      Field = "dob"
	FieldAvatar   Field = "avatar"
)

// FieldPolicy states whether the record owner may change a field and whether
// the field is returned on reads.
type FieldPolicy struct {
	Mutable bool
	Visible bool
}

// AccountPolicy is the per-provider table of field mutability and visibility.
// The guard consults it centrally instead of branching on provider at each
// call site. Fields supplied in an update but not mutable under the policy
// are silently ignored, not rejected.
type AccountPolicy map[Field]FieldPolicy

var (
	// localPolicy: local accounts own their credentials, so username and
	// password are mutable, and the stored password is returned on reads.
	// Returning the password is a retained design flaw of the system this
	// replaces, kept as documented behavior; do not harden silently.
	localPolicy = AccountPolicy{
		FieldFullName: {Mutable: true, Visible: true},
		FieldUsername: {Mutable: true, Visible: true},
		FieldPassword: {Mutable: true, Visible: true},
		FieldEmail:    {Mutable: true, Visible: true},
		FieldDOB:      {Mutable: true, Visible: true},
		FieldAvatar:   {Mutable: false, Visible: true},
	}

	// delegatedPolicy: identity fields are owned by the external provider.
	delegatedPolicy = AccountPolicy{
		FieldFullName: {Mutable: true, Visible: true},
		FieldUsername: {Mutable: false, Visible: true},
		FieldPassword: {Mutable: false, Visible: false},
		FieldEmail:    {Mutable: true, Visible: true},
		FieldDOB:      {Mutable: true, Visible: true},
		FieldAvatar:   {Mutable: false, Visible: true},
	}
)

// PolicyFor returns the field policy table for the given provider.
// Unknown providers get the restrictive delegated policy.
func PolicyFor(p Provider) AccountPolicy {
	if p == ProviderLocal {
		return localPolicy
	}
	return delegatedPolicy
}

// CanMutate reports whether the record owner may change the field.
func (ap AccountPolicy) CanMutate(f Field) bool {
	return ap[f].Mutable
}

// CanView reports whether the field is included in read responses.
func (ap AccountPolicy) CanView(f Field) bool {
	return ap[f].Visible
}
