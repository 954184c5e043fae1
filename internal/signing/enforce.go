package signing

import "fmt"

// Enforce implements the symmetric table in spec.md §4.B:
//
//	signer present | verifier present | behavior
//	yes            | yes              | must verify OK (caller's job)
//	yes            | no               | fail: "install public key"
//	no             | yes              | fail: "missing signature"
//	no             | no               | unsigned mode permitted
//
// It does not itself run verification — callers invoke Verify separately
// when Enforce reports that verification should proceed. Enforce only
// decides, from the presence of a signature and an allowed-signers file,
// whether proceeding unsigned is permitted or must fail closed.
func Enforce(signed, verifierPresent bool) error {
	switch {
	case signed && verifierPresent:
		return nil // caller must now run Verify
	case signed && !verifierPresent:
		return fmt.Errorf("signature present but no allowed_signers file installed; install public key")
	case !signed && verifierPresent:
		return fmt.Errorf("missing signature: allowed_signers file requires all payloads be signed")
	default:
		return nil // unsigned mode permitted
	}
}

// RequireVerification reports whether Verify must be called at all, i.e.
// whether the "yes/yes" row applies. It is a convenience for callers that
// want to distinguish "proceed unverified" from "proceed after verifying".
func RequireVerification(signed, verifierPresent bool) bool {
	return signed && verifierPresent
}
