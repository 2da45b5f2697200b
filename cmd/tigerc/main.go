package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/strager/tiger"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `tigerc - Tiger semantic analysis and HERA code generation

Usage:
    tigerc <command> [arguments]

Commands:
    build <file>    Compile a Tiger syntax tree (.sexp) to HERA assembly
    eval <tree>     Compile an inline syntax tree and print the assembly
    check <file>    Type-check a Tiger syntax tree
    help            Show this help message

Examples:
    tigerc build -o fib.hera fib.sexp
    tigerc eval '(binary "+" 14 6)'
    tigerc check -v fib.sexp

Use "tigerc <command> -h" for more information about a command.
`)
}

// reportDiagnostic prints warnings as they are reported. Fatal errors are
// printed once compilation returns.
func reportDiagnostic(filename string) tiger.ErrorHandler {
	return func(err *tiger.Error) {
		if !err.Fatal {
			fmt.Fprintf(os.Stderr, "%s:%s\n", filename, err)
		}
	}
}

func readTree(filename string) *tiger.Tree {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	tree, _, err := tiger.ReadSExpr(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s:%v\n", filename, err)
		os.Exit(1)
	}
	return tree
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.hera)")
	comments := fs.Bool("comments", false, "Annotate the assembly with comments")
	include := fs.String("include", tiger.DefaultStdlibInclude, "Runtime header to #include")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tigerc build [-o output] [-comments] [-include header] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a Tiger syntax tree to HERA assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".sexp") + ".hera"
	}

	if *verbose {
		fmt.Printf("Compiling %s to %s...\n", filename, outputFile)
	}

	tree := readTree(filename)
	asm, err := tiger.Compile(tree, &tiger.Config{
		Error:         reportDiagnostic(filename),
		StdlibInclude: *include,
		Comments:      *comments,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed:\n%v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s (%d lines)\n", outputFile, strings.Count(asm, "\n"))
}

func evalCommand(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	comments := fs.Bool("comments", false, "Annotate the assembly with comments")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tigerc eval [-comments] <tree>\n")
		fmt.Fprintf(os.Stderr, "Compile an inline syntax tree and print the assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one tree argument\n")
		fs.Usage()
		os.Exit(1)
	}

	tree, _, err := tiger.ReadSExpr(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "<eval>:%v\n", err)
		os.Exit(1)
	}
	c := tiger.NewCompilation(tree, &tiger.Config{
		Error:    reportDiagnostic("<eval>"),
		Comments: *comments,
	})
	if err := c.Emit(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed:\n%v\n", err)
		os.Exit(1)
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tigerc check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Type-check a Tiger syntax tree\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)

	if *verbose {
		fmt.Printf("Checking %s...\n", filename)
	}

	tree := readTree(filename)
	c := tiger.NewCompilation(tree, &tiger.Config{Error: reportDiagnostic(filename)})
	if err := c.Check(); err != nil {
		fmt.Printf("Type checking errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)

	if *verbose {
		top := tree.Main()
		fmt.Printf("AST: %s\n", tiger.ToSExpr(tree, top))
		fmt.Printf("Type: %s\n", tiger.TypeToString(c.TypeOf(top)))
		fmt.Printf("Registers: %d\n", c.Register(top))
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
