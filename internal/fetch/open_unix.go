//go:build unix

package fetch

import "golang.org/x/sys/unix"

// noFollow makes OpenFile refuse a symlink in the final path element.
const noFollow = unix.O_NOFOLLOW
