package walk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"
	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/dirimport/internal/logger"
)

// maxLinkHops bounds symlink resolution, as the kernel's ELOOP does.
const maxLinkHops = 255

var errLinkLoop = errors.New("too many levels of symbolic links")

// visitSet records directories already entered during one walk. Inode
// numbers are kept per device in roaring bitmaps when the filesystem
// exposes them; otherwise the symlink-resolved path is the key.
type visitSet struct {
	fs     billy.Filesystem
	inodes map[uint64]*roaring64.Bitmap
	paths  map[string]struct{}
}

func newVisitSet(fs billy.Filesystem) *visitSet {
	return &visitSet{
		fs:     fs,
		inodes: make(map[uint64]*roaring64.Bitmap),
		paths:  make(map[string]struct{}),
	}
}

// add reports whether the directory was not seen before.
func (v *visitSet) add(p string, fi os.FileInfo) bool {
	if dev, ino, ok := fileID(fi); ok {
		bm := v.inodes[dev]
		if bm == nil {
			bm = roaring64.New()
			v.inodes[dev] = bm
		}
		return bm.CheckedAdd(ino)
	}

	key, err := realPath(v.fs, p)
	if err != nil {
		logger.Debugf("walk: resolve %s: %v", p, err)
		key = filepath.Clean(p)
	}
	if _, ok := v.paths[key]; ok {
		return false
	}
	v.paths[key] = struct{}{}
	return true
}

// realPath is filepath.EvalSymlinks over a billy.Filesystem.
func realPath(fs billy.Filesystem, p string) (string, error) {
	sep := string(filepath.Separator)
	var done string
	if filepath.IsAbs(p) {
		done = sep
	}
	rest := strings.Split(filepath.Clean(p), sep)

	for hops := 0; len(rest) > 0; {
		name := rest[0]
		rest = rest[1:]
		switch name {
		case "", ".":
			continue
		case "..":
			done = filepath.Dir(done)
			continue
		}

		next := filepath.Join(done, name)
		fi, err := fs.Lstat(next)
		if err != nil {
			return "", err
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			done = next
			continue
		}

		if hops++; hops > maxLinkHops {
			return "", errLinkLoop
		}
		target, err := fs.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			done = sep
		}
		rest = append(strings.Split(filepath.Clean(target), sep), rest...)
	}
	if done == "" {
		return ".", nil
	}
	return done, nil
}
