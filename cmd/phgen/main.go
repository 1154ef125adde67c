/*
Phgen starts an interactive phrase generation session.

It reads in a phrase-syntax grammar file and starts a REPL that generates
sample phrases from it on request. The session prints generated phrases to
stdout and reads commands from stdin until the user quits.

Usage:

	phgen [flags]

The flags are:

	-v, --version
		Give the current version of phgen and then exit.

	-g, --grammar FILE
		Use the provided phrase-syntax file as the grammar. Defaults to the
		file "grammar.phrase" in the current working directory.

	-s, --start SYMBOL
		Use the given symbol as the default start symbol for generation. If
		not given, defaults to the first nonterminal declared in the
		grammar.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading command input, even if launched
		in a tty with stdin and stdout.

	-c, --command COMMANDS
		Immediately run the given REPL command(s) at start. Can be multiple
		commands separated by the ";" character.

Once a session has started, input is parsed as a phgen REPL command. Type
"HELP" for an explanation of the commands, which include GENERATE, COUNT,
WEIGHT, USE, LIST, EDIT (multi-line grammar-source editing, terminated by a
line containing only "."), RELOAD (re-reads the grammar file from disk),
and UNDO/REDO over the edit buffer. To exit, type "QUIT".
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/phrasegen"
	"github.com/dekarrin/phrasegen/internal/input"
	"github.com/dekarrin/phrasegen/internal/util"
	"github.com/dekarrin/phrasegen/internal/version"
	"github.com/dekarrin/rosed"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitGenError indicates an unsuccessful program execution due to a
	// problem during phrase generation or grammar loading.
	ExitGenError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the session.
	ExitInitError
)

const wrapWidth = 60

var (
	returnCode   = ExitSuccess
	flagVersion  = pflag.BoolP("version", "v", false, "Give the version info")
	grammarFile  = pflag.StringP("grammar", "g", "grammar.phrase", "The phrase-syntax file to load as the grammar")
	startSymbol  = pflag.StringP("start", "s", "", "The default start symbol to generate from")
	forceDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	startCommand = pflag.StringP("command", "c", "", "Execute the given REPL command(s) immediately at start")
)

// session holds the REPL's mutable state: the currently loaded grammar, the
// symbol new GENERATE commands default to when none is given, the path the
// grammar was loaded from (for RELOAD), and the grammar-source edit buffer
// that EDIT appends to and UNDO/REDO step through.
type session struct {
	gen         *phrasegen.Generator
	names       []string
	current     string
	grammarFile string
	editBuf     util.UndoableStringBuilder
}

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		returnCode = ExitInitError
		return
	}

	sess, err := loadSession(*grammarFile, *startSymbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	var startCommands []string
	if *startCommand != "" {
		startCommands = strings.Split(*startCommand, ";")
	}

	useReadline := !*forceDirect && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	var reader lineReader
	if useReadline {
		rl, rlErr := input.NewInteractiveReader("phgen> ")
		if rlErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", rlErr.Error())
			returnCode = ExitInitError
			return
		}
		reader = rl
	} else {
		reader = input.NewDirectReader(os.Stdin)
	}
	defer reader.Close()

	if err := sess.runUntilQuit(reader, startCommands); err != nil && err != io.EOF {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitGenError
	}
}

// lineReader is satisfied by both input.DirectLineReader and
// input.InteractiveLineReader.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

func loadSession(grammarFile, start string) (*session, error) {
	src, err := os.ReadFile(grammarFile)
	if err != nil {
		return nil, fmt.Errorf("read grammar file: %w", err)
	}

	syn, err := phrasegen.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	gen := phrasegen.NewGenerator()
	gen.Add("", syn)

	names := syn.Names()
	if start == "" && len(names) > 0 {
		start = names[0]
	}

	return &session{gen: gen, names: names, current: start, grammarFile: grammarFile}, nil
}

// reloadFromFile re-reads sess.grammarFile from disk, parses it, and swaps
// in a freshly bound Generator if that succeeds. The prior Generator (and
// current symbol) are left untouched on failure.
func (sess *session) reloadFromFile() error {
	src, err := os.ReadFile(sess.grammarFile)
	if err != nil {
		return fmt.Errorf("read grammar file: %w", err)
	}

	syn, err := phrasegen.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse grammar: %w", err)
	}

	gen := phrasegen.NewGenerator()
	gen.Add("", syn)

	sess.gen = gen
	sess.names = syn.Names()
	if sess.current == "" && len(sess.names) > 0 {
		sess.current = sess.names[0]
	}
	return nil
}

// runEditMode reads lines from reader until one consisting of only ".",
// appending each to the edit buffer, then parses the buffer's accumulated
// text as a full grammar source and, on success, rebinds the session to a
// Generator built from it.
func (sess *session) runEditMode(reader lineReader) {
	fmt.Println(`Entering grammar edit mode. Enter phrase-syntax source, one line at a time.`)
	fmt.Println(`Finish with a single "." on its own line.`)

	for {
		line, err := reader.ReadLine()
		if err != nil {
			fmt.Printf("ERROR: %s\n", err.Error())
			return
		}
		if strings.TrimSpace(line) == "." {
			break
		}
		sess.editBuf.WriteString(line)
		sess.editBuf.WriteString("\n")
	}

	src := sess.editBuf.String()
	syn, err := phrasegen.Parse(src)
	if err != nil {
		fmt.Printf("ERROR: could not parse edited grammar: %s\n", err.Error())
		fmt.Println("Buffer retained; continue editing with EDIT or UNDO a recent line.")
		return
	}

	gen := phrasegen.NewGenerator()
	gen.Add("", syn)
	sess.gen = gen
	sess.names = syn.Names()
	if len(sess.names) > 0 {
		sess.current = sess.names[0]
	}
	fmt.Println("Grammar updated from edit buffer.")
}

func (sess *session) runUntilQuit(reader lineReader, startCommands []string) error {
	for _, cmd := range startCommands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		if quit := sess.dispatch(cmd, reader); quit {
			return nil
		}
	}

	for {
		line, err := reader.ReadLine()
		if err != nil {
			return err
		}

		if quit := sess.dispatch(line, reader); quit {
			return nil
		}
	}
}

// dispatch executes a single REPL command line and reports whether the
// session should end. reader is the same lineReader runUntilQuit is
// consuming from, passed through so EDIT can keep reading lines from it.
func (sess *session) dispatch(line string, reader lineReader) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "QUIT", "EXIT":
		return true
	case "HELP":
		sess.printHelp()
	case "LIST":
		sess.printList()
	case "USE":
		if len(args) != 1 {
			fmt.Println("USE requires exactly one symbol name")
			return false
		}
		sess.current = args[0]
	case "COUNT":
		sess.printCount(sess.symbolArg(args))
	case "WEIGHT":
		sess.printWeight(sess.symbolArg(args))
	case "GENERATE", "GEN":
		sess.generate(sess.symbolArg(args))
	case "EDIT":
		sess.runEditMode(reader)
	case "RELOAD":
		if err := sess.reloadFromFile(); err != nil {
			fmt.Printf("ERROR: %s\n", err.Error())
		} else {
			fmt.Println("Grammar reloaded from file.")
		}
	case "UNDO":
		sess.editBuf.Undo()
		fmt.Println(sess.editBuf.String())
	case "REDO":
		sess.editBuf.Redo()
		fmt.Println(sess.editBuf.String())
	default:
		// bare input with no recognized command generates from the current
		// symbol, treating the whole line as a GENERATE shorthand.
		sess.generate(sess.current)
	}

	return false
}

func (sess *session) symbolArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return sess.current
}

func (sess *session) generate(symbol string) {
	if symbol == "" {
		fmt.Println("No start symbol set. Use USE <symbol> or -s to pick one.")
		return
	}

	text, err := sess.gen.Generate(symbol, nil)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	out := rosed.Edit(text).Wrap(wrapWidth).String()
	fmt.Println(out)
}

func (sess *session) printCount(symbol string) {
	count, approx, err := sess.gen.Combinations(symbol)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	approxNote := ""
	if approx {
		approxNote = " (approximate; overflowed exact counting)"
	}
	fmt.Printf("%s has %s possible combinations%s\n", symbol, strconv.FormatUint(count, 10), approxNote)
}

func (sess *session) printWeight(symbol string) {
	w, err := sess.gen.Weight(symbol)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}
	fmt.Printf("%s has effective weight %g\n", symbol, w)
}

func (sess *session) printList() {
	fmt.Println(util.MakeTextList(sess.names))
}

func (sess *session) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  GENERATE [symbol]  - generate a phrase, defaulting to the current symbol")
	fmt.Println("  USE <symbol>       - set the current default start symbol")
	fmt.Println("  LIST               - list every declared start symbol")
	fmt.Println("  COUNT [symbol]     - report the combination count for a symbol")
	fmt.Println("  WEIGHT [symbol]    - report the effective weight for a symbol")
	fmt.Println("  EDIT               - enter multi-line grammar source, ending with a lone \".\"")
	fmt.Println("  RELOAD             - re-read the grammar file from disk, discarding edits")
	fmt.Println("  UNDO               - step back to the previous edit-buffer state")
	fmt.Println("  REDO               - step forward after an UNDO")
	fmt.Println("  HELP               - show this message")
	fmt.Println("  QUIT               - end the session")
}
