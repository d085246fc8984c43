// Command bootimage-builder translates a classpath of compiled class
// files into a single relocatable boot image (spec §1).
//
// Usage:
//
//	bootimage-builder [flags] <classpath> <output file> [<class name> [<method name> [<method spec>]]]
//
// The classpath is one or more directories, separated by the OS path
// list separator, each searched recursively for ".kls" files (spec §6's
// classpath finder). When a class name is given, the named method (with
// the optional method spec) is compiled and its code becomes the image's
// code section; the image records no separate entry point.
//
// Argument-count and exit-code contract grounded on the original tool's
// own main(): argc validated to the inclusive range [3,6] including the
// program name, -1 returned on any failure, 0 on success.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/chazu/bootimage-builder/internal/buildlog"
	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/classfile"
	"github.com/chazu/bootimage-builder/internal/coderesolve"
	"github.com/chazu/bootimage-builder/internal/compilerstub"
	"github.com/chazu/bootimage-builder/internal/fatal"
	"github.com/chazu/bootimage-builder/internal/heapwalk"
	"github.com/chazu/bootimage-builder/internal/image"
	"github.com/chazu/bootimage-builder/internal/imageconfig"
	"github.com/chazu/bootimage-builder/internal/ingest"
	"github.com/chazu/bootimage-builder/internal/seed"
	"github.com/chazu/bootimage-builder/internal/typemap"
	"github.com/chazu/bootimage-builder/internal/typemapreport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("bootimage-builder", flag.ContinueOnError)
	configDir := fs.String("config", "", "directory to load bootimage.toml from (default: search upward from the classpath)")
	verbose := fs.Bool("verbose", false, "print a stack trace on failure")
	typemapReportPath := fs.String("typemap-report", "", "write a CBOR dump of the registered TypeMaps to this path")

	if err := fs.Parse(args); err != nil {
		return fatal.ExitFailure
	}

	positional := fs.Args()
	if len(positional) < 2 || len(positional) > 5 {
		fmt.Fprintln(os.Stderr, "usage: bootimage-builder [flags] <classpath> <output file> [<class name> [<method name> [<method spec>]]]")
		return fatal.ExitFailure
	}

	err := build(buildArgs{
		classpath:     positional[0],
		outputFile:    positional[1],
		className:     arg(positional, 2),
		methodName:    arg(positional, 3),
		methodSpec:    arg(positional, 4),
		configDir:     *configDir,
		typemapReport: *typemapReportPath,
	})

	return fatal.Report(err, *verbose)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

type buildArgs struct {
	classpath     string
	outputFile    string
	className     string
	methodName    string
	methodSpec    string
	configDir     string
	typemapReport string
}

func build(a buildArgs) error {
	cfg, err := loadConfig(a.classpath, a.configDir)
	if err != nil {
		return fatal.Wrap(err, "loading configuration")
	}

	machine, err := cfg.Machine()
	if err != nil {
		return fatal.Wrap(err, "resolving target machine")
	}

	roots := append(filepath.SplitList(a.classpath), cfg.ClasspathRootPaths()...)
	entries, err := classfile.FindAll(roots)
	if err != nil {
		return fatal.Wrap(err, "finding class files")
	}
	buildlog.Info(fmt.Sprintf("found %d class files", len(entries)))

	reg := typemap.NewRegistry()
	preseeded, err := seed.Populate(reg, machine)
	if err != nil {
		return fatal.Wrap(err, "seeding built-in types")
	}

	graph, err := ingest.BuildGraph(entries, preseeded)
	if err != nil {
		return fatal.Wrap(err, "resolving class graph")
	}
	for _, name := range graph.Order {
		if err := reg.RegisterClass(graph.Classes[name], machine); err != nil {
			return fatal.Wrap(err, "registering TypeMaps")
		}
	}
	ingest.Materialize(graph)

	if a.typemapReport != "" {
		if err := writeTypemapReport(reg, a.typemapReport); err != nil {
			return fatal.Wrap(err, "writing typemap report")
		}
	}

	rootSet := buildmodel.NewRootSet()
	for _, info := range preseeded {
		if info.Metadata != nil {
			rootSet.BootClasses = append(rootSet.BootClasses, info)
		}
	}
	for _, name := range graph.Order {
		rootSet.AppClasses = append(rootSet.AppClasses, graph.Classes[name])
	}

	w := heapwalk.NewWalker(reg, machine)

	bootOffsets := make([]uint64, 0, len(rootSet.BootClasses))
	for _, info := range rootSet.BootClasses {
		off, err := w.Root(info.Metadata)
		if err != nil {
			return fatal.Wrap(err, "rooting boot class "+info.Name)
		}
		bootOffsets = append(bootOffsets, off)
	}
	appOffsets := make([]uint64, 0, len(rootSet.AppClasses))
	for _, info := range rootSet.AppClasses {
		off, err := w.Root(info.Metadata)
		if err != nil {
			return fatal.Wrap(err, "rooting app class "+info.Name)
		}
		appOffsets = append(appOffsets, off)
		if info.StaticTable != nil {
			if _, err := w.Root(info.StaticTable); err != nil {
				return fatal.Wrap(err, "rooting static table for "+info.Name)
			}
		}
		if info.Pool != nil {
			if _, err := w.Root(info.Pool); err != nil {
				return fatal.Wrap(err, "rooting constant pool for "+info.Name)
			}
		}
	}

	proc := compilerstub.NewStubProcessor()
	if err := proc.Initialize(machine); err != nil {
		return fatal.Wrap(err, "initializing compiler")
	}

	var code []byte
	var constants []coderesolve.Constant
	var calls []coderesolve.Call
	if a.className != "" {
		class, ok := graph.Classes[a.className]
		if !ok {
			return fmt.Errorf("bootimage-builder: unknown class %q", a.className)
		}
		method, err := proc.CompileMethod(class, a.methodName, a.methodSpec)
		if err != nil {
			return fatal.Wrap(err, "compiling "+a.className+"."+a.methodName)
		}
		code = method.Code
		constants = method.Constants
		calls = method.Calls
	}

	if err := proc.VisitRoots(w); err != nil {
		return fatal.Wrap(err, "visiting compiler roots")
	}
	if err := w.Walk(); err != nil {
		return fatal.Wrap(err, "walking heap graph")
	}
	heap, heapMap, err := w.Materialize()
	if err != nil {
		return fatal.Wrap(err, "materializing heap")
	}
	buildlog.Info(fmt.Sprintf("materialized %d heap words", w.HeapWords()))

	resolver := coderesolve.NewResolver(machine, code)
	if err := resolver.ResolveCalls(calls, func(p *coderesolve.ListenPromise) (int64, error) {
		return 0, fmt.Errorf("bootimage-builder: no call targets are resolvable without a real compiler")
	}); err != nil {
		return fatal.Wrap(err, "resolving calls")
	}
	if err := resolver.UpdateConstants(constants); err != nil {
		return fatal.Wrap(err, "resolving code constants")
	}

	callTable, err := proc.MakeCallTable(nil)
	if err != nil {
		return fatal.Wrap(err, "building call table")
	}
	callEntries := make([]image.CallEntry, len(callTable))
	for i, c := range callTable {
		v, verr := c.Target.Value()
		if verr != nil {
			return fatal.Wrap(verr, "resolving call table entry")
		}
		callEntries[i] = image.CallEntry{CallerOffset: uint64(c.CodeOffset), TargetOffset: uint64(v)}
	}

	buildID := uuid.New()
	buildlog.Info(fmt.Sprintf("build id %s", buildID))

	out, err := image.Serialize(image.BuildResult{
		Machine:          machine,
		BuildID:          buildID,
		BootClassOffsets: bootOffsets,
		AppClassOffsets:  appOffsets,
		StringOffsets:    nil,
		Calls:            callEntries,
		Heap:             heap,
		HeapMap:          heapMap,
		Code:             resolver.Code(),
		CodeMap:          resolver.CodeMap(),
	})
	if err != nil {
		return fatal.Wrap(err, "serializing image")
	}

	if err := os.WriteFile(a.outputFile, out, 0o644); err != nil {
		return fatal.Wrap(err, "writing output file")
	}

	return nil
}

func loadConfig(classpath, configDir string) (*imageconfig.Config, error) {
	if configDir != "" {
		return imageconfig.Load(configDir)
	}
	roots := filepath.SplitList(classpath)
	dir := classpath
	if len(roots) > 0 {
		dir = roots[0]
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	cfg, err := imageconfig.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &imageconfig.Config{
			Target: imageconfig.TargetConfig{WordSize: 8, Endian: "little"},
		}
	}
	return cfg, nil
}

func writeTypemapReport(reg *typemap.Registry, path string) error {
	report := typemapreport.Build(reg)
	data, err := typemapreport.Marshal(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
