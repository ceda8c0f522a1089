package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/afero"
)

// Script runs the trivial post-setup, pre-mount command grammar
// mentioned in spec §4.8 (ls, cd, get, put, rm, quit — one command per
// line). It carries no engine logic beyond dispatching onto the Entry
// tree's public operations.
type Script struct {
	ctx *xtaf.Context
	cwd *xtaf.Entry
	fs  afero.Fs
	out io.Writer
}

// NewScript starts a script session rooted at ctx.Root, resolving get
// and put's host-side paths against fs.
func NewScript(ctx *xtaf.Context, fs afero.Fs, out io.Writer) *Script {
	return &Script{ctx: ctx, cwd: ctx.Root, fs: fs, out: out}
}

// Run executes every line from r until quit or EOF.
func (s *Script) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := s.dispatch(line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (s *Script) dispatch(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "ls":
		return false, s.ls()
	case "cd":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: cd <path>")
		}
		return false, s.cd(args[0])
	case "get":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: get <path> <hostpath>")
		}
		return false, s.get(args[0], args[1])
	case "put":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: put <hostpath> <path>")
		}
		return false, s.put(args[0], args[1])
	case "rm":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: rm <path>")
		}
		return false, s.rm(args[0])
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *Script) ls() error {
	for _, c := range s.cwd.Children() {
		if c.Status() != xtaf.StatusValid {
			continue
		}
		kind := "-"
		if c.IsDir() {
			kind = "d"
		}
		fmt.Fprintf(s.out, "%s %10d %s\n", kind, c.Size(), c.Name())
	}
	return nil
}

func (s *Script) cd(path string) error {
	if path == "/" {
		s.cwd = s.ctx.Root
		return nil
	}
	e := s.cwd.Find(path)
	if e == nil || !e.IsDir() {
		return fmt.Errorf("cd: %q: not a directory", path)
	}
	s.cwd = e
	return nil
}

func (s *Script) get(path, hostpath string) error {
	e := s.cwd.Find(path)
	if e == nil || e.IsDir() {
		return fmt.Errorf("get: %q: not a file", path)
	}
	if err := e.Open(false); err != nil {
		return err
	}
	defer e.Close()
	buf := make([]byte, e.Size())
	if err := e.BufRead(buf, 0); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, hostpath, buf, 0644)
}

func (s *Script) put(hostpath, path string) error {
	data, err := afero.ReadFile(s.fs, hostpath)
	if err != nil {
		return err
	}
	e, err := xtaf.NewEntry(s.ctx, s.cwd, path, false, uint64(len(data)))
	if err != nil {
		return err
	}
	if err := s.cwd.AddToDir(e); err != nil {
		return err
	}
	if err := e.Open(true); err != nil {
		return err
	}
	defer e.Close()
	return e.BufWrite(data, 0)
}

func (s *Script) rm(path string) error {
	e := s.cwd.Find(path)
	if e == nil {
		return fmt.Errorf("rm: %q: not found", path)
	}
	return s.cwd.RemFromDir(e, true)
}
