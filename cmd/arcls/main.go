// Command arcls is a small embedding host for archive format plugins. It
// drives plugin objects strictly through their dispatch tables, the way a
// real host would: list, test, extract, and create zstore archives.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/ferrum-io/hostarc"
	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/hostio"
	"github.com/ferrum-io/hostarc/variant"
	"github.com/ferrum-io/hostarc/zstore"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	outDir := flag.String("o", ".", "output directory for extract")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 2 {
		usage()
		os.Exit(2)
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	registry := hostarc.NewRegistry(hostarc.WithLogger(logger))
	registry.Register(func() hostarc.Reader { return zstore.New() })

	command, archive := flag.Arg(0), flag.Arg(1)

	var err error
	switch command {
	case "list":
		err = runList(registry, archive)
	case "test":
		err = runExtract(registry, archive, "", true)
	case "extract":
		err = runExtract(registry, archive, *outDir, false)
	case "create":
		err = runCreate(registry, archive, flag.Args()[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: arcls [flags] <command> <archive> [file ...]

commands:
  list     show archive contents
  test     verify archive contents without writing
  extract  unpack archive contents (-o selects the target directory)
  create   build a new archive from the named files

flags:
`)
	flag.PrintDefaults()
}

// openArchive creates a plugin object and opens archive through its dispatch
// table. The caller releases the returned handle.
func openArchive(registry *hostarc.Registry, archive string) (hostapi.Handle, *hostapi.InArchiveTable, error) {
	h, st := registry.CreateObject(zstore.New().ClassID(), hostapi.IIDInArchive)
	if !st.Ok() {
		return nil, nil, fmt.Errorf("create object: %v", st)
	}
	table := h.Dispatch().(*hostapi.InArchiveTable)

	s, err := hostio.OpenFile(archive)
	if err != nil {
		table.Release(h)
		return nil, nil, err
	}
	defer s.Release()

	if st := table.Open(h, s, nil, nil); !st.Ok() {
		table.Release(h)
		return nil, nil, fmt.Errorf("open %s: %v", archive, st)
	}
	return h, table, nil
}

func runList(registry *hostarc.Registry, archive string) error {
	h, table, err := openArchive(registry, archive)
	if err != nil {
		return err
	}
	defer table.Release(h)

	count, st := table.GetNumberOfItems(h)
	if !st.Ok() {
		return fmt.Errorf("count items: %v", st)
	}

	a := variant.NewArena()
	var v variant.Variant
	for i := uint32(0); i < count; i++ {
		if st := table.GetProperty(h, i, hostapi.PropPath, &v, a); !st.Ok() {
			return fmt.Errorf("item %d path: %v", i, st)
		}
		path, _ := v.String(a)
		v.Clear(a)

		if st := table.GetProperty(h, i, hostapi.PropSize, &v, a); !st.Ok() {
			return fmt.Errorf("item %d size: %v", i, st)
		}
		size, _ := v.Uint64()
		v.Clear(a)

		fmt.Printf("%12d  %s\n", size, path)
	}

	if st := table.GetArchiveProperty(h, hostapi.PropPhySize, &v, a); st.Ok() {
		if size, ok := v.Uint64(); ok {
			color.Cyan("%d items, %d bytes", count, size)
		}
		v.Clear(a)
	}
	return nil
}

func runExtract(registry *hostarc.Registry, archive, outDir string, testMode bool) error {
	h, table, err := openArchive(registry, archive)
	if err != nil {
		return err
	}
	defer table.Release(h)

	cb := &extractHost{outDir: outDir, testMode: testMode}
	if st := table.Extract(h, nil, testMode, cb); !st.Ok() {
		return fmt.Errorf("extract: %v", st)
	}
	if cb.failures > 0 {
		return fmt.Errorf("%d of %d items failed", cb.failures, cb.items)
	}
	color.Green("%d items ok", cb.items)
	return nil
}

func runCreate(registry *hostarc.Registry, archive string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("create needs at least one input file")
	}

	h, st := registry.CreateObject(zstore.New().ClassID(), hostapi.IIDOutArchive)
	if !st.Ok() {
		return fmt.Errorf("create object: %v", st)
	}
	table := h.Dispatch().(*hostapi.OutArchiveTable)
	defer table.Release(h)

	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer out.Close()

	cb := &updateHost{files: files}
	if st := table.UpdateItems(h, hostio.NewOutStream(out), uint32(len(files)), cb); !st.Ok() {
		return fmt.Errorf("update: %v", st)
	}
	color.Green("wrote %s (%d items)", archive, len(files))
	return nil
}

// extractHost implements the host side of the extraction protocol, writing
// items below outDir.
type extractHost struct {
	outDir   string
	testMode bool
	items    int
	failures int
	current  string
}

var _ hostapi.ExtractCallback = (*extractHost)(nil)

func (c *extractHost) SetTotal(uint64) hostapi.Status       { return hostapi.StatusOK }
func (c *extractHost) SetCompleted(uint64) hostapi.Status   { return hostapi.StatusOK }
func (c *extractHost) PrepareOperation(hostapi.AskMode) hostapi.Status { return hostapi.StatusOK }

func (c *extractHost) GetStream(index uint32, _ hostapi.AskMode) (hostapi.SequentialOutStream, hostapi.Status) {
	c.items++
	c.current = fmt.Sprintf("item %d", index)
	if c.testMode {
		return nil, hostapi.StatusOK
	}

	path := filepath.Join(c.outDir, fmt.Sprintf("item-%04d", index))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, hostapi.StatusFail
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, hostapi.StatusFail
	}
	c.current = path
	return &fileOutStream{f: f}, hostapi.StatusOK
}

func (c *extractHost) SetOperationResult(result hostapi.OperationResult) hostapi.Status {
	if result != hostapi.OpResultOK {
		c.failures++
		color.Red("  failed: %s", c.current)
	}
	return hostapi.StatusOK
}

// fileOutStream adapts an os.File to the host stream contract and closes it
// when released.
type fileOutStream struct {
	f *os.File
}

var _ hostapi.SequentialOutStream = (*fileOutStream)(nil)
var _ hostapi.Unknown = (*fileOutStream)(nil)

func (s *fileOutStream) Write(p []byte) (uint32, hostapi.Status) {
	n, err := s.f.Write(p)
	if err != nil {
		return uint32(n), hostapi.StatusFail
	}
	return uint32(n), hostapi.StatusOK
}

func (s *fileOutStream) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown {
		return s, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (s *fileOutStream) AddRef() uint32 { return 1 }

func (s *fileOutStream) Release() uint32 {
	_ = s.f.Close()
	return 0
}

// updateHost implements the host side of the update protocol over a list of
// local files, every slot an addition.
type updateHost struct {
	files []string
}

var _ hostapi.UpdateCallback = (*updateHost)(nil)

func (c *updateHost) SetTotal(uint64) hostapi.Status     { return hostapi.StatusOK }
func (c *updateHost) SetCompleted(uint64) hostapi.Status { return hostapi.StatusOK }

func (c *updateHost) GetUpdateItemInfo(index uint32) (hostapi.UpdateItemInfo, hostapi.Status) {
	if int(index) >= len(c.files) {
		return hostapi.UpdateItemInfo{}, hostapi.StatusInvalidArg
	}
	return hostapi.UpdateItemInfo{
		NewData:        true,
		NewProperties:  true,
		IndexInArchive: hostapi.NoSourceIndex,
	}, hostapi.StatusOK
}

func (c *updateHost) GetProperty(index uint32, prop hostapi.PropID, v *variant.Variant, a *variant.Arena) hostapi.Status {
	if int(index) >= len(c.files) {
		return hostapi.StatusInvalidArg
	}
	path := c.files[index]
	info, err := os.Stat(path)
	if err != nil {
		return hostapi.StatusFail
	}

	switch prop {
	case hostapi.PropPath:
		v.SetString(a, filepath.ToSlash(path))
	case hostapi.PropSize:
		v.SetUint64(a, uint64(info.Size()))
	case hostapi.PropIsDir:
		v.SetBool(a, info.IsDir())
	case hostapi.PropMTime:
		v.SetFileTime(a, variant.FileTimeFromTime(info.ModTime()))
	default:
		v.SetEmpty(a)
	}
	return hostapi.StatusOK
}

func (c *updateHost) GetStream(index uint32) (hostapi.SequentialInStream, hostapi.Status) {
	if int(index) >= len(c.files) {
		return nil, hostapi.StatusInvalidArg
	}
	f, err := os.Open(c.files[index])
	if err != nil {
		return nil, hostapi.StatusFail
	}
	return &fileInStream{f: f}, hostapi.StatusOK
}

func (c *updateHost) SetOperationResult(hostapi.OperationResult) hostapi.Status {
	return hostapi.StatusOK
}

// fileInStream adapts an os.File to the sequential host stream contract.
type fileInStream struct {
	f *os.File
}

var _ hostapi.SequentialInStream = (*fileInStream)(nil)
var _ hostapi.Unknown = (*fileInStream)(nil)

func (s *fileInStream) Read(p []byte) (uint32, hostapi.Status) {
	n, err := s.f.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return uint32(n), hostapi.StatusFail
	}
	return uint32(n), hostapi.StatusOK
}

func (s *fileInStream) QueryInterface(iid hostapi.IID) (any, hostapi.Status) {
	if iid == hostapi.IIDUnknown {
		return s, hostapi.StatusOK
	}
	return nil, hostapi.StatusNoInterface
}

func (s *fileInStream) AddRef() uint32 { return 1 }

func (s *fileInStream) Release() uint32 {
	_ = s.f.Close()
	return 0
}
