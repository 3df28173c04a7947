//go:build windows

package vfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stirante/dokan-go"
	"github.com/stirante/dokan-go/winacl"

	"github.com/scriptkitz/eelua/internal/transcoder"
)

// FILE_ATTRIBUTE_DIRECTORY and FILE_ATTRIBUTE_NORMAL
const (
	attrDirectory = 16
	attrNormal    = 128
)

type ProxyFS struct {
	PhysicalPath string
	Filter       *Filter
	SniffSize    int
	log          zerolog.Logger
}

func NewProxyFS(physicalPath string, filter *Filter, sniffSize int, logger zerolog.Logger) *ProxyFS {
	return &ProxyFS{
		PhysicalPath: physicalPath,
		Filter:       filter,
		SniffSize:    sniffSize,
		log:          logger.With().Str("component", "vfs").Logger(),
	}
}

func (fs *ProxyFS) getPhysicalPath(path string) string {
	path = strings.TrimPrefix(path, "\\")
	return filepath.Join(fs.PhysicalPath, path)
}

func processLabel(fi *dokan.FileInfo) string {
	name, _ := getProcessName(uint32(fi.ProcessId()))
	if name == "" {
		return fmt.Sprintf("PID:%d", fi.ProcessId())
	}
	return name
}

// ProxyFS implementation

func (fs *ProxyFS) CreateFile(ctx context.Context, fi *dokan.FileInfo, cd *dokan.CreateData) (dokan.File, dokan.CreateStatus, error) {
	path := fi.Path()
	phys := fs.getPhysicalPath(path)
	process := processLabel(fi)
	fs.log.Debug().Str("process", process).Str("path", path).Bool("dir", fi.IsDirectory()).Msg("CreateFile")

	if path == "\\" {
		return &ProxyFile{fs: fs, path: path, isDir: true, physicalPath: phys}, 0, nil
	}

	st, err := os.Stat(phys)
	if fi.IsDirectory() {
		if err != nil {
			if os.IsNotExist(err) {
				return nil, 0, os.ErrNotExist
			}
			return nil, 0, err
		}
		if !st.IsDir() {
			return nil, 0, fmt.Errorf("not a directory")
		}
		return &ProxyFile{fs: fs, path: path, isDir: true, physicalPath: phys}, 0, nil
	}
	// some apps open directories as files to check existence
	if err == nil && st.IsDir() {
		return &ProxyFile{fs: fs, path: path, isDir: true, physicalPath: phys}, 0, nil
	}

	file := &ProxyFile{fs: fs, path: path, physicalPath: phys}
	if fs.Filter.ShouldProcess(process, path) {
		raw, err := os.ReadFile(phys)
		switch {
		case err == nil:
			doc, derr := LoadDocument(raw, fs.SniffSize)
			if derr == nil {
				file.doc = doc
				fs.log.Info().Str("process", process).Str("path", path).
					Stringer("encoding", doc.Detection()).Msg("serving transcoded")
			} else {
				fs.log.Warn().Err(derr).Str("path", path).Msg("not transcoding")
			}
		case os.IsNotExist(err):
			// new files are created as UTF-8 without a BOM
			file.doc = NewDocument(transcoder.Detection{Codepage: transcoder.UTF8})
		default:
			return nil, 0, err
		}
	}
	if file.doc != nil {
		return file, 0, nil
	}

	h, err := os.OpenFile(phys, os.O_RDWR, 0)
	if err != nil {
		h, err = os.Open(phys)
	}
	if err == nil {
		file.handle = h
	} else if !os.IsNotExist(err) {
		return nil, 0, err
	}
	return file, 0, nil
}

func (fs *ProxyFS) GetDiskFreeSpace(ctx context.Context) (dokan.FreeSpace, error) {
	return dokan.FreeSpace{
		FreeBytesAvailable:     10 * 1024 * 1024 * 1024,
		TotalNumberOfBytes:     20 * 1024 * 1024 * 1024,
		TotalNumberOfFreeBytes: 10 * 1024 * 1024 * 1024,
	}, nil
}

func (fs *ProxyFS) GetVolumeInformation(ctx context.Context) (dokan.VolumeInformation, error) {
	return dokan.VolumeInformation{
		VolumeName:             "UTF8Proxy",
		VolumeSerialNumber:     0x12345678,
		MaximumComponentLength: 255,
		FileSystemName:         "NTFS",
	}, nil
}

func (fs *ProxyFS) Mounted(ctx context.Context) error   { return nil }
func (fs *ProxyFS) Unmounted(ctx context.Context) error { return nil }

func (fs *ProxyFS) WithContext(c context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(c)
}

func (fs *ProxyFS) ErrorPrint(err error) {
	fs.log.Error().Err(err).Msg("dokan")
}

func (fs *ProxyFS) Printf(format string, v ...interface{}) {
	fs.log.Debug().Msgf("dokan: "+format, v...)
}

func (fs *ProxyFS) MoveFile(ctx context.Context, sourceHandle dokan.File, sourceFileInfo *dokan.FileInfo, targetPath string, replaceExisting bool) error {
	return nil
}

// ProxyFile implementation

type ProxyFile struct {
	fs           *ProxyFS
	path         string
	physicalPath string
	doc          *Document
	handle       *os.File
	isDir        bool
}

func (f *ProxyFile) ReadFile(ctx context.Context, fi *dokan.FileInfo, bs []byte, offset int64) (int, error) {
	if f.doc != nil {
		n, err := f.doc.ReadAt(bs, offset)
		if errors.Is(err, io.EOF) && n > 0 {
			err = nil
		}
		return n, err
	}
	if f.handle != nil {
		return f.handle.ReadAt(bs, offset)
	}
	return 0, io.EOF
}

func (f *ProxyFile) WriteFile(ctx context.Context, fi *dokan.FileInfo, bs []byte, offset int64) (int, error) {
	if f.doc != nil {
		return f.doc.WriteAt(bs, offset)
	}
	if f.handle != nil {
		return f.handle.WriteAt(bs, offset)
	}
	return 0, fmt.Errorf("write not supported")
}

func (f *ProxyFile) GetFileInformation(ctx context.Context, fi *dokan.FileInfo) (*dokan.Stat, error) {
	st, err := os.Stat(f.physicalPath)
	if err != nil {
		if f.doc != nil {
			return &dokan.Stat{FileAttributes: attrNormal, FileSize: f.doc.Size()}, nil
		}
		f.fs.log.Debug().Err(err).Str("path", f.path).Msg("GetFileInformation")
		return &dokan.Stat{FileAttributes: attrNormal}, nil
	}
	s := &dokan.Stat{
		LastWrite:  st.ModTime(),
		LastAccess: st.ModTime(),
		Creation:   st.ModTime(),
		FileSize:   st.Size(),
	}
	if st.IsDir() {
		s.FileAttributes = attrDirectory
	} else {
		s.FileAttributes = attrNormal
		if f.doc != nil {
			s.FileSize = f.doc.Size()
		}
	}
	return s, nil
}

func (f *ProxyFile) FindFiles(ctx context.Context, fi *dokan.FileInfo, pattern string, fill func(*dokan.NamedStat) error) error {
	entries, err := os.ReadDir(f.physicalPath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		ns := &dokan.NamedStat{
			Name: entry.Name(),
			Stat: dokan.Stat{
				FileSize:   info.Size(),
				LastWrite:  info.ModTime(),
				LastAccess: info.ModTime(),
				Creation:   info.ModTime(),
			},
		}
		if entry.IsDir() {
			ns.Stat.FileAttributes = attrDirectory
		} else {
			ns.Stat.FileAttributes = attrNormal
		}
		if err := fill(ns); err != nil {
			return err
		}
	}
	return nil
}

func (f *ProxyFile) Cleanup(ctx context.Context, fi *dokan.FileInfo) {
	if f.doc != nil && f.doc.Dirty() {
		f.flush()
	}
	if f.handle != nil {
		f.handle.Close()
	}
}

func (f *ProxyFile) flush() {
	raw, subs, err := f.doc.Encode()
	if err != nil {
		f.fs.log.Error().Err(err).Str("path", f.path).Msg("encode failed")
		return
	}
	if subs > 0 {
		f.fs.log.Warn().Str("path", f.path).Int("replaced", subs).
			Int("codepage", transcoder.ActiveANSI().Codepage()).Msg("characters not representable in ANSI code page")
	}
	if err := os.WriteFile(f.physicalPath, raw, 0o644); err != nil {
		f.fs.log.Error().Err(err).Str("path", f.path).Msg("write back failed")
		return
	}
	f.doc.MarkClean()
	f.fs.log.Info().Str("path", f.path).Stringer("encoding", f.doc.Detection()).Int("bytes", len(raw)).Msg("saved")
}

func (f *ProxyFile) CloseFile(ctx context.Context, fi *dokan.FileInfo) {}

func (f *ProxyFile) FlushFileBuffers(ctx context.Context, fi *dokan.FileInfo) error { return nil }

func (f *ProxyFile) SetEndOfFile(ctx context.Context, fi *dokan.FileInfo, length int64) error {
	if f.doc != nil {
		return f.doc.Truncate(length)
	}
	if f.handle != nil {
		return f.handle.Truncate(length)
	}
	return nil
}

func (f *ProxyFile) SetAllocationSize(ctx context.Context, fi *dokan.FileInfo, length int64) error {
	return nil
}
func (f *ProxyFile) LockFile(ctx context.Context, fi *dokan.FileInfo, offset, length int64) error {
	return nil
}
func (f *ProxyFile) UnlockFile(ctx context.Context, fi *dokan.FileInfo, offset, length int64) error {
	return nil
}
func (f *ProxyFile) CanDeleteFile(ctx context.Context, fi *dokan.FileInfo) error      { return nil }
func (f *ProxyFile) CanDeleteDirectory(ctx context.Context, fi *dokan.FileInfo) error { return nil }

func (f *ProxyFile) GetFileSecurity(ctx context.Context, fi *dokan.FileInfo, si winacl.SecurityInformation, sd *winacl.SecurityDescriptor) error {
	return nil
}
func (f *ProxyFile) SetFileSecurity(ctx context.Context, fi *dokan.FileInfo, si winacl.SecurityInformation, sd *winacl.SecurityDescriptor) error {
	return nil
}
func (f *ProxyFile) SetFileAttributes(ctx context.Context, fi *dokan.FileInfo, attr dokan.FileAttribute) error {
	return nil
}
func (f *ProxyFile) SetFileTime(ctx context.Context, fi *dokan.FileInfo, ctime, atime, mtime time.Time) error {
	return nil
}
