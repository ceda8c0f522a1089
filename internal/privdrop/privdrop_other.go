//go:build !unix

package privdrop

import "fmt"

// DropTo has no privilege model to drop into outside unix; --runas is
// rejected there rather than silently ignored.
func DropTo(username string) error {
	return fmt.Errorf("privdrop: --runas is not supported on this platform")
}
