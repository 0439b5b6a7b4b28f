package input

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultDevDir   = "/dev/input"
	defaultSysDir   = "/sys/class/input"
	defaultProcFile = "/proc/bus/input/devices"
)

// Enumerator lists joystick nodes and resolves their identity. The
// directories are fields so tests can point it at a fake tree.
type Enumerator struct {
	DevDir   string
	SysDir   string
	ProcFile string
}

func NewEnumerator() *Enumerator {
	return &Enumerator{
		DevDir:   defaultDevDir,
		SysDir:   defaultSysDir,
		ProcFile: defaultProcFile,
	}
}

// Enumerate walks the js* nodes in glob order and fills in metadata
// from sysfs first, the kernel name ioctl second and the proc device
// table last.
func (e *Enumerator) Enumerate() Snapshot {
	paths, err := filepath.Glob(filepath.Join(e.DevDir, "js*"))
	if err != nil || len(paths) == 0 {
		return Snapshot{}
	}
	sort.Strings(paths)

	var procNames map[string]string

	devices := make([]Device, 0, len(paths))
	available := false
	for _, path := range paths {
		base := filepath.Base(path)
		if !isJoystickNode(base) {
			continue
		}
		d := Device{Path: path}
		e.fillFromSysfs(&d, base)
		if d.Name == "" {
			d.Name = kernelName(path)
		}
		if d.Name == "" {
			if procNames == nil {
				procNames = parseProcDevices(e.ProcFile)
			}
			d.Name = procNames[base]
		}
		if d.hasMetadata() {
			available = true
		}
		devices = append(devices, d)
	}
	return Snapshot{Devices: devices, MetadataAvailable: available}
}

func isJoystickNode(base string) bool {
	rest, ok := strings.CutPrefix(base, "js")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}

func (e *Enumerator) fillFromSysfs(d *Device, base string) {
	devDir := filepath.Join(e.SysDir, base, "device")
	d.Name = readSysAttr(filepath.Join(devDir, "name"))
	d.Vendor = readSysAttr(filepath.Join(devDir, "id", "vendor"))
	d.Product = readSysAttr(filepath.Join(devDir, "id", "product"))
	d.Phys = readSysAttr(filepath.Join(devDir, "phys"))
}

func readSysAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// parseProcDevices maps joystick handler names (js0, js1, ...) to the
// quoted names in the proc input table.
func parseProcDevices(path string) map[string]string {
	out := map[string]string{}
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	for _, block := range strings.Split(string(data), "\n\n") {
		name := ""
		var handlers []string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "N: Name="):
				name = strings.Trim(strings.TrimPrefix(line, "N: Name="), "\" ")
			case strings.HasPrefix(line, "H: Handlers="):
				handlers = strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
			}
		}
		if name == "" {
			continue
		}
		for _, h := range handlers {
			if isJoystickNode(h) {
				out[h] = name
			}
		}
	}
	return out
}
