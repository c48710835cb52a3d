package main

import (
	"flag"
	"fmt"
	"os"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/examples/addressbook"
	"github.com/wippyai/wire-runtime/message"
	"github.com/wippyai/wire-runtime/schema"
	"github.com/wippyai/wire-runtime/segment"
)

func main() {
	var (
		witFile      = flag.String("wit", "", "Path to WIT JSON describing the message")
		typeName     = flag.String("type", "", "Name of the root record type")
		demo         = flag.Bool("demo", false, "Dump a built-in address book instead of reading files")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		verbose      = flag.Bool("v", false, "Debug logging to stderr")
		maxDepth     = flag.Uint("max-depth", message.DefaultMaxDepth, "Maximum nesting depth")
		maxTraversal = flag.Uint64("max-traversal", message.DefaultMaxTraversal, "Maximum bytes read")
	)
	flag.Parse()

	if !*demo && (*witFile == "" || *typeName == "" || flag.NArg() == 0) {
		fmt.Fprintln(os.Stderr, "Usage: wiredump -wit <schema.json> -type <name> seg0.bin [seg1.bin ...]")
		fmt.Fprintln(os.Stderr, "       wiredump -demo")
		fmt.Fprintln(os.Stderr, "       wiredump ... -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		message.SetLogger(log)
		segment.SetLogger(log)
	}

	limits := message.ReadLimits{MaxDepth: uint32(*maxDepth), MaxTraversal: *maxTraversal}

	var (
		in  input
		err error
	)
	if *demo {
		in, err = loadDemo()
		if *typeName != "" {
			in.typeName = *typeName
		}
	} else {
		in, err = loadFiles(*witFile, *typeName, flag.Args())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	node, err := decode(in, limits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(node, in.title); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	st := plainStyles()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		st = colorStyles()
	}
	fmt.Printf("%s: %d segment(s), %d bytes\n", in.title, len(in.segments), totalSize(in.segments))
	fmt.Print(renderTree(node, st))
}

// input is a message to decode and the schema to decode it with.
type input struct {
	resolve  *wit.Resolve
	title    string
	typeName string
	segments [][]byte
}

func loadFiles(witFile, typeName string, segFiles []string) (input, error) {
	f, err := os.Open(witFile)
	if err != nil {
		return input{}, errors.Load("open schema", err)
	}
	defer f.Close()

	res, err := wit.DecodeJSON(f)
	if err != nil {
		return input{}, errors.Load("decode schema "+witFile, err)
	}

	segs := make([][]byte, len(segFiles))
	for i, name := range segFiles {
		if segs[i], err = os.ReadFile(name); err != nil {
			return input{}, errors.Load("read segment "+name, err)
		}
	}
	return input{resolve: res, title: segFiles[0], typeName: typeName, segments: segs}, nil
}

func loadDemo() (input, error) {
	msg, err := message.NewWithDefaults()
	if err != nil {
		return input{}, err
	}
	if err := addressbook.Write(msg, addressbook.Sample()); err != nil {
		return input{}, err
	}
	segs, err := msg.Finalize()
	if err != nil {
		return input{}, err
	}
	return input{
		resolve:  addressbook.Resolve(),
		title:    "demo address book",
		typeName: "address-book",
		segments: segs,
	}, nil
}

func decode(in input, limits message.ReadLimits) (schema.Node, error) {
	typ, err := schema.Lookup(in.resolve, in.typeName)
	if err != nil {
		return schema.Node{}, err
	}
	msg, err := message.Wrap(in.segments, limits)
	if err != nil {
		return schema.Node{}, err
	}
	root, err := msg.Root()
	if err != nil {
		return schema.Node{}, err
	}
	return schema.NewWalker().Walk(root, typ)
}

func totalSize(segs [][]byte) int {
	n := 0
	for _, s := range segs {
		n += len(s)
	}
	return n
}
