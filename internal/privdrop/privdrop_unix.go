//go:build unix

package privdrop

import (
	"fmt"
	"os/user"
	"strconv"
	"syscall"
)

// DropTo switches the process's effective uid/gid to username, for
// use right after Device open when --runas was given (spec §1
// supplemental).
func DropTo(username string) error {
	u, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("privdrop: lookup %q: %w", username, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("privdrop: parse gid %q: %w", u.Gid, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("privdrop: parse uid %q: %w", u.Uid, err)
	}
	if err := syscall.Setgid(gid); err != nil {
		return fmt.Errorf("privdrop: setgid %d: %w", gid, err)
	}
	if err := syscall.Setuid(uid); err != nil {
		return fmt.Errorf("privdrop: setuid %d: %w", uid, err)
	}
	return nil
}
