//go:build !unix

package debuglog

const noFollow = 0
