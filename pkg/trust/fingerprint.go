package trust

import (
	"golang.org/x/crypto/ssh"
)

// Fingerprint returns the SHA-256 fingerprint of a host public key in
// the canonical "SHA256:<unpadded base64>" form.
func Fingerprint(key ssh.PublicKey) string {
	return ssh.FingerprintSHA256(key)
}
