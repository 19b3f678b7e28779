package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TruncateLimit is the length from which a blob is elided in Summary.
// Artifacts always carry the full text.
const TruncateLimit = 1000

const omitted = "(omitted: too long)\n"

// Artifact file names, written by WriteArtifacts.
const (
	InputArtifact  = "mismatch_input.txt"
	OutputArtifact = "mismatch_output.txt"
	ExpectArtifact = "mismatch_expect.txt"
)

// Artifacts holds the paths of the files describing the last failure.
type Artifacts struct {
	Input  string
	Output string
	Expect string
}

// DefaultArtifacts returns the artifact paths inside dir.
func DefaultArtifacts(dir string) Artifacts {
	return Artifacts{
		Input:  filepath.Join(dir, InputArtifact),
		Output: filepath.Join(dir, OutputArtifact),
		Expect: filepath.Join(dir, ExpectArtifact),
	}
}

// Classification names what went wrong.
func (f *Failure) Classification() string {
	var parts []string
	if f.Alive {
		parts = append(parts, "VM did not halt after all input")
	}
	if f.Mismatch {
		parts = append(parts, "output mismatch")
	}
	return strings.Join(parts, " + ")
}

func (f *Failure) Error() string { return f.Classification() }

// Summary renders the failure for the terminal. Blobs of TruncateLimit
// characters or more are elided; the expected trace is shown only on a
// mismatch.
func (f *Failure) Summary() string {
	var b strings.Builder
	b.WriteString(f.Classification())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "group %q, round %d, case %d, %d instructions\n",
		f.Group, f.Round, f.Index, f.Instructions)
	fmt.Fprintf(&b, "reproduce with --seed %d (round seed %#016x, case seed %#016x)\n",
		f.RunSeed, f.RoundSeed, f.CaseSeed)
	if f.Mismatch {
		if line, got, want, ok := firstDifference(f.Output, f.Expect); ok {
			fmt.Fprintf(&b, "first difference at line %d:\n  got:  %q\n  want: %q\n", line, got, want)
		}
	}

	b.WriteString("==== input ====\n")
	b.WriteString(elide(f.Input))
	b.WriteString("==== output ====\n")
	b.WriteString(elide(f.Output))
	if f.Mismatch {
		b.WriteString("==== expect ====\n")
		b.WriteString(elide(f.Expect))
	}
	return b.String()
}

func elide(s string) string {
	if len(s) >= TruncateLimit {
		return omitted
	}
	return s
}

// firstDifference returns the 1-based number of the first line where got and
// want differ, with both lines. A missing line is reported as "".
func firstDifference(got, want string) (line int, g, w string, ok bool) {
	if got == want {
		return 0, "", "", false
	}
	gl := strings.SplitAfter(got, "\n")
	wl := strings.SplitAfter(want, "\n")
	for i := 0; i < len(gl) || i < len(wl); i++ {
		g, w = "", ""
		if i < len(gl) {
			g = gl[i]
		}
		if i < len(wl) {
			w = wl[i]
		}
		if g != w {
			return i + 1, g, w, true
		}
	}
	return 0, "", "", false
}

// WriteArtifacts writes the input (with a verdict header), the actual output
// and the expected trace to a's paths, replacing earlier artifacts.
func (f *Failure) WriteArtifacts(a Artifacts) error {
	header := fmt.Sprintf("*** result of running the following case ***\n"+
		" wrong output: %s\n"+
		" VM did not halt: %s\n\n", yesNo(f.Mismatch), yesNo(f.Alive))

	files := []struct {
		path, data string
	}{
		{a.Input, header + f.Input},
		{a.Output, f.Output},
		{a.Expect, f.Expect},
	}
	for _, file := range files {
		if err := os.WriteFile(file.path, []byte(file.data), 0644); err != nil {
			return fmt.Errorf("writing artifact: %w", err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
