package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/util"
)

// FileInfo describes one in-use inode.
type FileInfo struct {
	Inum common.Inum `json:"inum"`
	Name string      `json:"name"`
	Kind common.Kind `json:"kind"`
	Size uint64      `json:"size"`
}

func (fs *FsState) fileInfo(inum common.Inum) FileInfo {
	ip := &fs.inodes[inum]
	return FileInfo{Inum: inum, Name: ip.Name, Kind: ip.Kind, Size: ip.Size}
}

func (fs *FsState) inUse(inum common.Inum) bool {
	return fs.ialloc.IsUsed(inum) && fs.inodes[inum].InUse()
}

func (fs *FsState) namei(name string) (common.Inum, bool) {
	for inum := range fs.inodes {
		if fs.inUse(common.Inum(inum)) && fs.inodes[inum].Name == name {
			return common.Inum(inum), true
		}
	}
	return 0, false
}

// Namei returns the inode named name.
func (fs *FsState) Namei(name string) (common.Inum, error) {
	if err := fs.checkMounted(); err != nil {
		return 0, err
	}
	inum, ok := fs.namei(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}
	return inum, nil
}

// Create makes an empty regular file and returns its handle, already open at
// position 0.
func (fs *FsState) Create(name string) (common.Inum, error) {
	if err := fs.checkMounted(); err != nil {
		return 0, err
	}
	if !inode.ValidName(name) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := fs.namei(name); ok {
		return 0, fmt.Errorf("%w: %q", ErrNameExists, name)
	}
	inum, err := fs.allocInode()
	if err != nil {
		return 0, err
	}
	fs.inodes[inum] = inode.MkFileInode(name)
	fs.files[inum] = openFile{pos: 0, open: true}
	util.DPrintf(1, "Create %q -> %d\n", name, inum)
	return inum, nil
}

// Unlink removes name and releases its inode and all of its blocks. An open
// handle on the file is closed.
func (fs *FsState) Unlink(name string) error {
	inum, err := fs.Namei(name)
	if err != nil {
		return err
	}
	if err := fs.truncate(inum); err != nil {
		return err
	}
	if err := fs.freeInode(inum); err != nil {
		return err
	}
	fs.inodes[inum] = inode.Inode{}
	fs.files[inum] = openFile{}
	util.DPrintf(1, "Unlink %q (%d)\n", name, inum)
	return nil
}

func (fs *FsState) Stat(name string) (FileInfo, error) {
	inum, err := fs.Namei(name)
	if err != nil {
		return FileInfo{}, err
	}
	return fs.fileInfo(inum), nil
}

// List returns every in-use inode in inode order.
func (fs *FsState) List() ([]FileInfo, error) {
	if err := fs.checkMounted(); err != nil {
		return nil, err
	}
	var fis []FileInfo
	for inum := range fs.inodes {
		if fs.inUse(common.Inum(inum)) {
			fis = append(fis, fs.fileInfo(common.Inum(inum)))
		}
	}
	return fis, nil
}
