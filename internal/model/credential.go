package model

// CredentialKind tags which variant a Credential holds
type CredentialKind int

const (
	CredentialPassword CredentialKind = iota + 1
	CredentialSecret
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialPassword:
		return "password"
	case CredentialSecret:
		return "secret"
	default:
		return "unknown"
	}
}

// Credential is either a password or a capability secret presented for an identity.
// Construct with PasswordCredential or SecretCredential.
type Credential struct {
	kind  CredentialKind
	value string
}

// PasswordCredential wraps a plaintext password
func PasswordCredential(password string) Credential {
	return Credential{kind: CredentialPassword, value: password}
}

// SecretCredential wraps a capability secret
func SecretCredential(secret string) Credential {
	return Credential{kind: CredentialSecret, value: secret}
}

// Kind returns which variant this credential is
func (c Credential) Kind() CredentialKind {
	return c.kind
}

// Value returns the raw credential material
func (c Credential) Value() string {
	return c.value
}

// IsZero reports whether nothing was supplied
func (c Credential) IsZero() bool {
	return c.kind == 0 || c.value == ""
}
