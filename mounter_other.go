//go:build !linux

package magicmount

// unsupportedMounter fails every operation; mounting only exists on Linux.
type unsupportedMounter struct{}

// NewMounter returns the Mounter for the running platform.
func NewMounter() Mounter {
	return unsupportedMounter{}
}

func (unsupportedMounter) BindMount(src, dst string) error           { return ErrUnsupported }
func (unsupportedMounter) MountTmpfs(dst string) error               { return ErrUnsupported }
func (unsupportedMounter) Mkdir(path string, mode uint32) error      { return ErrUnsupported }
func (unsupportedMounter) CreateFile(path string) error              { return ErrUnsupported }
func (unsupportedMounter) Symlink(target, link string) error         { return ErrUnsupported }
func (unsupportedMounter) CopyLink(src, dst string) error            { return ErrUnsupported }
func (unsupportedMounter) GetAttr(path string) (*FileAttr, error)    { return nil, ErrUnsupported }
func (unsupportedMounter) SetAttr(path string, attr *FileAttr) error { return ErrUnsupported }
