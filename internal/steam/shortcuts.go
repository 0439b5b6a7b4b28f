package steam

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// vdfSkeleton is an empty shortcuts.vdf: a single "shortcuts" object
// with no entries.
var vdfSkeleton = []byte("\x00shortcuts\x00\x08\x08")

var ErrShortcutExists = errors.New("shortcut already present")

// Shortcut is one non-Steam game entry.
type Shortcut struct {
	AppName  string
	Exe      string
	StartDir string
	Icon     string
}

// AppID derives the shortcut id the way Steam does for non-Steam
// games: crc of name plus target with the high bit forced.
func (s Shortcut) AppID() uint32 {
	return 0x80000000 | crc32.ChecksumIEEE([]byte(s.AppName+s.Exe))
}

// Locate returns the shortcuts.vdf path for the first numeric user id
// under the Steam userdata dir. Id 0 is the anonymous account and only
// used when nothing else exists.
func Locate(userdataDir string) (string, error) {
	entries, err := os.ReadDir(userdataDir)
	if err != nil {
		return "", err
	}
	var ids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if id, err := strconv.Atoi(entry.Name()); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no Steam user under %s", userdataDir)
	}
	sort.Ints(ids)
	id := ids[0]
	if id == 0 && len(ids) > 1 {
		id = ids[1]
	}
	return filepath.Join(userdataDir, strconv.Itoa(id), "config", "shortcuts.vdf"), nil
}

// EnsureFile creates an empty shortcuts.vdf when missing.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, vdfSkeleton, 0o644)
}

// Add inserts the shortcut before the file's closing terminators and
// returns its appid. A file that does not end in the expected two
// object terminators is left untouched.
func Add(path string, s Shortcut) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if !bytes.HasSuffix(data, []byte{0x08, 0x08}) {
		return 0, fmt.Errorf("%s does not end with the expected terminators, refusing to edit", path)
	}

	appid := s.AppID()
	if s.Icon == "" {
		s.Icon = IconPath(path, appid)
	}

	appidField := appendUint32([]byte("\x02appid\x00"), appid)
	if bytes.Contains(data, appidField) {
		return appid, fmt.Errorf("%w: %q", ErrShortcutExists, s.AppName)
	}

	entry := buildEntry(nextIndex(data), appid, s)
	out := make([]byte, 0, len(data)+len(entry))
	out = append(out, data[:len(data)-2]...)
	out = append(out, entry...)
	out = append(out, 0x08, 0x08)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return appid, nil
}

// IconPath is where the library icon for appid lives, next to the
// other grid artwork.
func IconPath(shortcutsPath string, appid uint32) string {
	return filepath.Join(filepath.Dir(shortcutsPath), "grid", fmt.Sprintf("%d_icon.ico", appid))
}

// GridDir is the artwork directory belonging to a shortcuts.vdf.
func GridDir(shortcutsPath string) string {
	return filepath.Join(filepath.Dir(shortcutsPath), "grid")
}

var indexPattern = regexp.MustCompile(`\x00(\d+)\x00`)

// nextIndex finds the last entry index in the blob. Entries are
// appended sequentially, so the last \x00<digits>\x00 marker is the
// highest one.
func nextIndex(data []byte) int {
	matches := indexPattern.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return 0
	}
	last, err := strconv.Atoi(string(matches[len(matches)-1][1]))
	if err != nil {
		return 0
	}
	return last + 1
}

func buildEntry(index int, appid uint32, s Shortcut) []byte {
	var b bytes.Buffer
	b.WriteByte(0x00)
	b.WriteString(strconv.Itoa(index))
	b.WriteByte(0x00)

	b.WriteString("\x02appid\x00")
	b.Write(appendUint32(nil, appid))

	writeStringField(&b, "appname", s.AppName)
	writeStringField(&b, "exe", s.Exe)
	writeStringField(&b, "StartDir", s.StartDir)
	writeStringField(&b, "icon", s.Icon)

	b.WriteByte(0x08)
	return b.Bytes()
}

func writeStringField(b *bytes.Buffer, key, value string) {
	b.WriteByte(0x01)
	b.WriteString(key)
	b.WriteByte(0x00)
	b.WriteString(value)
	b.WriteByte(0x00)
}

func appendUint32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}
