package format

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rzbill/stockroom/pkg/fields"
	"golang.org/x/term"
)

var lineRegexes = []*regexp.Regexp{
	regexp.MustCompile(`line (\d+)`),
	regexp.MustCompile(`line: (\d+)`),
	regexp.MustCompile(`line:(\d+)`),
}

// Reporter prints catalog lint errors and field issues.
type Reporter struct {
	Out           io.Writer
	FileName      string
	FileData      []byte
	ContextLines  int
	TerminalWidth int
}

// NewReporter creates a reporter for the given catalog file contents.
func NewReporter(out io.Writer, filename string, data []byte) *Reporter {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return &Reporter{
		Out:           out,
		FileName:      filename,
		FileData:      data,
		ContextLines:  1,
		TerminalWidth: width,
	}
}

// ExtractLineNumber tries to extract a line number from an error message
func ExtractLineNumber(errStr string) int {
	for _, re := range lineRegexes {
		matches := re.FindStringSubmatch(errStr)
		if len(matches) > 1 {
			if num, err := strconv.Atoi(matches[1]); err == nil {
				return num
			}
		}
	}
	return 0
}

// PrintErrors prints each error with the offending line of the file when
// the message carries a line number.
func (r *Reporter) PrintErrors(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, ErrorColor.Sprint("× VALIDATION FAILED"), FileColor.Sprint(r.FileName))
	fmt.Fprintln(r.Out, strings.Repeat("─", r.TerminalWidth))

	for _, err := range errs {
		msg := err.Error()
		line := ExtractLineNumber(msg)
		if line > 0 {
			fmt.Fprintf(r.Out, "%s %s\n", FileColor.Sprintf("%s:%d", r.FileName, line), msg)
		} else {
			fmt.Fprintf(r.Out, "%s %s\n", FileColor.Sprint(r.FileName), msg)
		}
		r.printContext(line)
	}
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, ErrorColor.Sprintf("%d error(s)", len(errs)))
}

func (r *Reporter) printContext(lineNum int) {
	if r.FileData == nil || lineNum <= 0 {
		return
	}
	scanner := bufio.NewScanner(bytes.NewReader(r.FileData))
	n := 0
	for scanner.Scan() {
		n++
		if n < lineNum-r.ContextLines {
			continue
		}
		if n > lineNum+r.ContextLines {
			break
		}
		gutter := LineColor.Sprintf("%4d │", n)
		text := scanner.Text()
		if n == lineNum {
			fmt.Fprintf(r.Out, "  %s %s\n", gutter, HighlightColor.Sprint(text))
		} else {
			fmt.Fprintf(r.Out, "  %s %s\n", gutter, ContextColor.Sprint(text))
		}
	}
}

// PrintIssues prints field validation issues, one per line.
func PrintIssues(out io.Writer, issues fields.Issues) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(out, ErrorColor.Sprint("× FIELD VALIDATION FAILED"))
	for _, is := range issues {
		fmt.Fprintf(out, "  %s %s %s\n",
			StatusSymbol(false),
			HeadingColor.Sprint(is.Field),
			is.Message)
		if is.Kind == fields.IssueRequired {
			fmt.Fprintln(out, "    "+HintColor.Sprint("hint: pass --value \""+is.Field+"=...\" or pick a template that sets it"))
		}
	}
}
