// Package verify decides whether a downloaded artifact may be executed.
//
// # Checks
//
// Checks run in a fixed order and the first failure stops the sequence:
//
//  1. Exists: the artifact is a regular file on disk.
//  2. Size: the artifact is at least Options.MinSize bytes. Empty or
//     truncated responses fail here.
//  3. Content: none of the first Options.PreviewLines lines contains an
//     error-page marker ("404", "Not Found", "Error", "Failed" by default).
//     Markers match case-sensitively.
//  4. Checksum: only when Options.SHA256 is set.
//  5. Signature: only when Options.Signature is set; OpenPGP (armored or
//     binary detached signatures) or minisign.
//
// The content check is a heuristic. A legitimate script that mentions one of
// the markers near its top is rejected; pin a checksum or signature and set
// DisableContentCheck when that matters.
package verify
