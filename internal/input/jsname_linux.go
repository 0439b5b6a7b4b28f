//go:build linux

package input

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// JSIOCGNAME(128): read the driver-reported name into a 128 byte buffer.
const jsiocgname = 0x80006a13 + (128 << 16)

func kernelName(path string) string {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return ""
	}
	defer f.Close()

	var buf [128]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(jsiocgname), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return strings.TrimSpace(string(buf[:n]))
}
