//go:build !windows

package transcoder

func systemANSICodepage() int {
	return DefaultANSICodepage
}
