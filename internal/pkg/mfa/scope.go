package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

// PurposeTOTPSeed scopes encryption to the shared TOTP secret.
const PurposeTOTPSeed Purpose = "totp_seed"

// Scope binds a ciphertext to one identity and purpose. It is used as AES-GCM
// additional data, so a ciphertext copied to another row fails to decrypt.
type Scope struct {
	IdentityID int64
	Purpose    Purpose
}
