//go:build unix

package debuglog

import "golang.org/x/sys/unix"

// noFollow makes OpenFile refuse a symlink in the final path element.
const noFollow = unix.O_NOFOLLOW
