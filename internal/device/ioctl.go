package device

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// IOCtl は値引数のioctlを発行する
func IOCtl(file *os.File, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// IOCtlPtr はポインタ引数のioctlを発行する
func IOCtlPtr(file *os.File, req uintptr, ptr unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), req, uintptr(ptr))
	if errno != 0 {
		return errno
	}
	return nil
}

// GetAbsInfo は指定軸の範囲情報を取得する
func GetAbsInfo(file *os.File, code uint16) (AbsInfo, error) {
	var info AbsInfo
	if err := IOCtlPtr(file, EVIOCGABS(code), unsafe.Pointer(&info)); err != nil {
		return AbsInfo{}, fmt.Errorf("軸範囲の取得に失敗しました code=%#x: %w", code, err)
	}
	return info, nil
}
