package vfs

import (
	"path/filepath"
	"strings"
)

// Filter decides whether an open should be served transcoded.
type Filter struct {
	AllowedProcesses  []string
	AllowedExtensions []string
}

// NewFilter creates a new Filter with the given settings.
func NewFilter(processes, extensions []string) *Filter {
	return &Filter{
		AllowedProcesses:  processes,
		AllowedExtensions: extensions,
	}
}

// ShouldProcess checks if the process and file should be handled.
func (f *Filter) ShouldProcess(processName string, path string) bool {
	return f.matchProcess(processName) && f.matchExtension(path)
}

// An empty process list admits every process.
func (f *Filter) matchProcess(name string) bool {
	if len(f.AllowedProcesses) == 0 {
		return true
	}
	for _, p := range f.AllowedProcesses {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// An empty extension list admits nothing.
func (f *Filter) matchExtension(path string) bool {
	ext := filepath.Ext(strings.ReplaceAll(path, "\\", "/"))
	if ext == "" {
		return false
	}
	for _, e := range f.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
