//go:build !unix

package walk

import "os"

func fileID(os.FileInfo) (dev, ino uint64, ok bool) {
	return 0, 0, false
}
