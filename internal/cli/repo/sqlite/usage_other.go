//go:build !(linux || darwin || freebsd)

package sqlite

import "errors"

func availableBytes(string) (uint64, error) {
	return 0, errors.New("free space estimate is not supported on this platform")
}
