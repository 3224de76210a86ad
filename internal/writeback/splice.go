package writeback

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Edit replaces the byte range [StartByte, EndByte) of a source buffer.
type Edit struct {
	StartByte uint32
	EndByte   uint32
	Content   []byte
}

// Splice returns src with a single byte range replaced by newContent.
func Splice(src []byte, start, end uint32, newContent []byte) ([]byte, error) {
	if int(start) > len(src) || int(end) > len(src) || start > end {
		return nil, fmt.Errorf("invalid byte range [%d:%d] for source of length %d", start, end, len(src))
	}

	// result = prefix + newContent + suffix
	result := make([]byte, 0, int(start)+len(newContent)+len(src)-int(end))
	result = append(result, src[:start]...)
	result = append(result, newContent...)
	result = append(result, src[end:]...)
	return result, nil
}

// Apply performs all edits against src. Edits must not overlap; they are
// applied back to front so earlier offsets stay valid.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartByte > sorted[j].StartByte })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].EndByte > sorted[i-1].StartByte {
			return nil, fmt.Errorf("overlapping edits [%d:%d] and [%d:%d]",
				sorted[i].StartByte, sorted[i].EndByte, sorted[i-1].StartByte, sorted[i-1].EndByte)
		}
	}

	out := src
	for _, e := range sorted {
		var err error
		if out, err = Splice(out, e.StartByte, e.EndByte, e.Content); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteAtomic replaces the file at path with data. The write is atomic:
// content is written to a temp file first, then renamed. Existing file
// permissions are preserved; new files get 0o644.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dirimport-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	_ = os.Chmod(tmpName, mode) // best-effort permission sync

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}
