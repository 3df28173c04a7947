//go:build windows

package transcoder

import "golang.org/x/sys/windows"

func systemANSICodepage() int {
	return int(windows.GetACP())
}
