package nanofs

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-nanofs/super"
)

var (
	ErrNotMounted       = errors.New("file system not mounted")
	ErrAlreadyMounted   = errors.New("file system already mounted")
	ErrBadMagic         = super.ErrBadMagic
	ErrBadGeometry      = super.ErrBadGeometry
	ErrFilesBusy        = errors.New("files still open")
	ErrNameNotFound     = errors.New("no such file")
	ErrNameExists       = errors.New("file exists")
	ErrInvalidName      = errors.New("invalid file name")
	ErrInvalidHandle    = errors.New("invalid file handle")
	ErrInvalidBlock     = errors.New("invalid data block")
	ErrOutOfInodes      = errors.New("out of inodes")
	ErrOutOfBlocks      = errors.New("out of data blocks")
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrInvalidWhence    = errors.New("invalid whence")
	ErrDeviceTooSmall   = errors.New("device too small")
	ErrDeviceIO         = errors.New("device I/O failure")
)

func ioErr(err error, format string, a ...interface{}) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, a...), ErrDeviceIO, err)
}
