//go:build linux || darwin || freebsd

package sqlite

import "golang.org/x/sys/unix"

// availableBytes: свободное для непривилегированного пользователя место на ФС каталога.
func availableBytes(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
