// Package fuseadapter binds the entry tree to bazil.org/fuse,
// generalizing the teacher's read-only RecoverFS/Dir/File triad into
// a full read-write pair backed by xtaf.Entry (spec §6.1).
package fuseadapter

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/fatxtool/fatx/internal/xtaf"
)

// FS is the bazil.org/fuse filesystem root, wrapping the engine
// context. Singlethreaded reports whether the mount should serialize
// requests through fsLock (every Node and Handle method except
// Node.Attr; FS.Statfs is not serialized either) instead of relying solely on the
// entry tree's own per-entry locking (spec §5's dynamic locking
// gate) — useful under --test or when a caller wants request
// ordering to match program order for debugging.
type FS struct {
	ctx           *xtaf.Context
	uid, gid      uint32
	mask          os.FileMode
	singlethreadr bool
	fsLock        sync.Mutex
}

// New constructs the fuse.FS adapter over ctx.
func New(ctx *xtaf.Context, uid, gid uint32, mask os.FileMode, singlethreaded bool) *FS {
	return &FS{ctx: ctx, uid: uid, gid: gid, mask: mask, singlethreadr: singlethreaded}
}

// serialize returns an unlock func; when singlethreaded, it holds
// fsLock for the caller's defer, otherwise it's a no-op.
func (f *FS) serialize() func() {
	if !f.singlethreadr {
		return func() {}
	}
	f.fsLock.Lock()
	return f.fsLock.Unlock
}

func (f *FS) Root() (fs.Node, error) {
	return &Node{fs: f, entry: f.ctx.Root}, nil
}

// Node implements fs.Node for both directories and files; the
// underlying Entry already knows which it is.
type Node struct {
	fs    *FS
	entry *xtaf.Entry
}

var (
	_ fs.Node                = (*Node)(nil)
	_ fs.NodeStringLookuper  = (*Node)(nil)
	_ fs.HandleReadDirAller  = (*Node)(nil)
	_ fs.NodeCreater         = (*Node)(nil)
	_ fs.NodeMkdirer         = (*Node)(nil)
	_ fs.NodeRemover         = (*Node)(nil)
	_ fs.NodeRenamer         = (*Node)(nil)
	_ fs.NodeOpener          = (*Node)(nil)
	_ fs.NodeSetattrer       = (*Node)(nil)
	_ fs.FSStatfser          = (*FS)(nil)
)

func (n *Node) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Uid = n.fs.uid
	a.Gid = n.fs.gid
	a.Inode = uint64(n.entry.Cluster())
	a.Size = n.entry.Size()
	a.Atime = dateToTime(n.entry.Accessed())
	a.Mtime = dateToTime(n.entry.Updated())
	a.Ctime = dateToTime(n.entry.Updated())

	var perm os.FileMode = 0777 &^ n.fs.mask
	if n.entry.Attributes()&xtaf.AttrReadOnly != 0 {
		perm &^= 0222
	}
	if n.entry.IsDir() {
		a.Mode = os.ModeDir | perm
	} else {
		a.Mode = perm
	}
	return nil
}

func (n *Node) Lookup(ctx context.Context, name string) (fs.Node, error) {
	defer n.fs.serialize()()
	if !n.entry.IsDir() {
		return nil, fuse.ENOENT
	}
	child := n.entry.Find(name)
	if child == nil || child.Status() != xtaf.StatusValid {
		return nil, fuse.ENOENT
	}
	return &Node{fs: n.fs, entry: child}, nil
}

func (n *Node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	defer n.fs.serialize()()
	children := n.entry.Children()
	out := make([]fuse.Dirent, 0, len(children))
	for _, c := range children {
		if c.Status() != xtaf.StatusValid {
			continue
		}
		if c.Attributes()&xtaf.AttrVolumeLabel != 0 {
			continue
		}
		typ := fuse.DT_File
		if c.IsDir() {
			typ = fuse.DT_Dir
		}
		out = append(out, fuse.Dirent{Inode: uint64(c.Cluster()), Name: c.Name(), Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (n *Node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	defer n.fs.serialize()()
	write := req.Flags.IsWriteOnly() || req.Flags.IsReadWrite()
	if err := n.entry.Open(write); err != nil {
		return nil, mapErr(err)
	}
	return &Handle{fs: n.fs, entry: n.entry, write: write}, nil
}

func (n *Node) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	defer n.fs.serialize()()
	if !n.entry.IsDir() {
		return nil, nil, fuse.Errno(errNotDir)
	}
	if len(req.Name) > xtaf.MaxNameLen {
		return nil, nil, fuse.Errno(errNameTooLng)
	}
	child, err := xtaf.NewEntry(n.fs.ctx, n.entry, req.Name, false, 0)
	if err != nil {
		return nil, nil, mapErr(err)
	}
	if err := n.entry.AddToDir(child); err != nil {
		return nil, nil, mapErr(err)
	}
	if err := child.Open(true); err != nil {
		return nil, nil, mapErr(err)
	}
	return &Node{fs: n.fs, entry: child}, &Handle{fs: n.fs, entry: child, write: true}, nil
}

func (n *Node) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	defer n.fs.serialize()()
	if len(req.Name) > xtaf.MaxNameLen {
		return nil, fuse.Errno(errNameTooLng)
	}
	child, err := xtaf.NewEntry(n.fs.ctx, n.entry, req.Name, true, 0)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := n.entry.AddToDir(child); err != nil {
		return nil, mapErr(err)
	}
	return &Node{fs: n.fs, entry: child}, nil
}

func (n *Node) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	defer n.fs.serialize()()
	child := n.entry.Find(req.Name)
	if child == nil || child.Status() != xtaf.StatusValid {
		return fuse.ENOENT
	}
	if child.Attributes()&xtaf.AttrVolumeLabel != 0 {
		return fuse.Errno(errPerm)
	}
	if child.IsRoot() {
		return fuse.Errno(errBusy)
	}
	if req.Dir && !child.IsDir() {
		return fuse.Errno(errNotDir)
	}
	if req.Dir {
		for _, gc := range child.Children() {
			if gc.Status() == xtaf.StatusValid {
				return fuse.Errno(errNotEmpty)
			}
		}
	}
	if err := n.entry.RemFromDir(child, false); err != nil {
		return mapErr(err)
	}
	return nil
}

func (n *Node) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fs.Node) error {
	defer n.fs.serialize()()
	src := n.entry.Find(req.OldName)
	if src == nil {
		return fuse.ENOENT
	}
	destDir, ok := newDir.(*Node)
	if !ok {
		return fuse.EIO
	}
	target := destDir.entry.FullPath()
	if target == "/" {
		target = "/" + req.NewName
	} else {
		target = target + "/" + req.NewName
	}
	if err := src.Rename(target); err != nil {
		return mapErr(err)
	}
	return nil
}

func (n *Node) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	defer n.fs.serialize()()
	if req.Valid.Size() {
		if n.entry.IsDir() {
			return fuse.Errno(errAccess)
		}
		if n.entry.Attributes()&xtaf.AttrReadOnly != 0 {
			return fuse.Errno(errAccess)
		}
		if err := n.entry.Resize(req.Size); err != nil {
			return mapErr(err)
		}
	}
	return n.Attr(ctx, &resp.Attr)
}

// Statfs reports free/total space from the FAT's gap accounting.
func (f *FS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	geom := f.ctx.Geom
	fatIface := f.ctx.Fat
	resp.Blocks = uint64(geom.ClusFat)
	resp.Bfree = uint64(fatIface.ClsAvail())
	resp.Bavail = resp.Bfree
	resp.Bsize = geom.ClusterSize
	resp.Namelen = 42
	resp.Frsize = geom.ClusterSize
	return nil
}

// Handle implements fs.Handle's Read/Write/Flush/Release for an open
// Entry.
type Handle struct {
	fs    *FS
	entry *xtaf.Entry
	write bool
}

var (
	_ fs.HandleReader   = (*Handle)(nil)
	_ fs.HandleWriter   = (*Handle)(nil)
	_ fs.HandleFlusher  = (*Handle)(nil)
	_ fs.HandleReleaser = (*Handle)(nil)
)

func (h *Handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	defer h.fs.serialize()()
	size := req.Size
	total := h.entry.Size()
	if uint64(req.Offset) >= total {
		resp.Data = []byte{}
		return nil
	}
	if uint64(req.Offset)+uint64(size) > total {
		size = int(total - uint64(req.Offset))
	}
	buf := make([]byte, size)
	if err := h.entry.BufRead(buf, uint64(req.Offset)); err != nil {
		return mapErr(err)
	}
	resp.Data = buf
	return nil
}

func (h *Handle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	defer h.fs.serialize()()
	if !h.write {
		return fuse.Errno(errBadFD)
	}
	if err := h.entry.BufWrite(req.Data, uint64(req.Offset)); err != nil {
		return mapErr(err)
	}
	resp.Size = len(req.Data)
	return nil
}

func (h *Handle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	defer h.fs.serialize()()
	if err := h.entry.Flush(); err != nil {
		return mapErr(err)
	}
	return nil
}

func (h *Handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	defer h.fs.serialize()()
	if err := h.entry.Close(); err != nil {
		return mapErr(err)
	}
	return nil
}

func dateToTime(d xtaf.Date) time.Time {
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(d.Hour), int(d.Minute), int(d.Second), 0, time.UTC)
}
