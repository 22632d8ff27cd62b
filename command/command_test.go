package command

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/stream"
)

func names(stages []Standard) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

func TestFlattenIsAssociative(t *testing.T) {
	a, b, c := Make("echo", "2\n1\n3"), Make("cat"), Make("sort")
	left := Pipe(Pipe(a, b), c)
	right := Pipe(a, Pipe(b, c))

	l, r := Flatten(left), Flatten(right)
	if len(l) != 3 || len(r) != 3 {
		t.Fatalf("expected 3 stages, got %d and %d", len(l), len(r))
	}
	if fmt.Sprint(names(l)) != "[echo cat sort]" || fmt.Sprint(names(r)) != "[echo cat sort]" {
		t.Errorf("unexpected order %v %v", names(l), names(r))
	}
	if left.String() != right.String() {
		t.Errorf("expected equal command lines, got %q and %q", left.String(), right.String())
	}
}

func TestString(t *testing.T) {
	cmd := Pipe(Make("ls", "-la"), Make("grep", "go"), Make("wc"))
	if got := cmd.String(); got != "ls -la | grep go | wc" {
		t.Errorf("got %q", got)
	}
}

func TestWithEnvAppliesToEveryStage(t *testing.T) {
	base := Pipe(Make("a"), WithEnv(Make("b"), map[string]string{"X": "old", "Y": "keep"}))
	cmd := WithEnv(base, map[string]string{"X": "new"})

	for _, s := range Flatten(cmd) {
		if s.Env["X"] != "new" {
			t.Errorf("stage %s: expected X=new, got %q", s.Name, s.Env["X"])
		}
	}
	if Flatten(cmd)[1].Env["Y"] != "keep" {
		t.Error("expected existing entries to be kept")
	}
	// The original value is unchanged.
	if Flatten(base)[1].Env["X"] != "old" {
		t.Error("WithEnv mutated its input")
	}
	if got := Flatten(cmd)[1].EnvList(); fmt.Sprint(got) != "[X=new Y=keep]" {
		t.Errorf("unexpected env list %v", got)
	}
}

func TestWithDirAppliesToEveryStage(t *testing.T) {
	cmd := WithDir(Pipe(Make("a"), Make("b"), Make("c")), "/tmp")
	for _, s := range Flatten(cmd) {
		if s.Dir != "/tmp" {
			t.Errorf("stage %s: expected dir /tmp, got %q", s.Name, s.Dir)
		}
	}
}

func TestStdioOverlaysTargetEnds(t *testing.T) {
	cmd := Pipe(Make("a"), Make("b"), Make("c"))
	cmd = WithStdin(cmd, StdinInherit())
	cmd = WithStdout(cmd, OutputInherit())
	cmd = WithStderr(cmd, OutputInherit())

	stages := Flatten(cmd)
	if stages[0].Stdin.Kind != InputInherit {
		t.Error("expected stdin on the leftmost stage")
	}
	for _, s := range stages[1:] {
		if s.Stdin.Kind != InputPipe {
			t.Errorf("stage %s: stdin overlay leaked", s.Name)
		}
	}
	if stages[2].Stdout.Kind != OutputKindInherit || stages[2].Stderr.Kind != OutputKindInherit {
		t.Error("expected stdout and stderr on the rightmost stage")
	}
	for _, s := range stages[:2] {
		if s.Stdout.Kind != OutputKindPipe || s.Stderr.Kind != OutputKindPipe {
			t.Errorf("stage %s: output overlay leaked", s.Name)
		}
	}
}

func TestFeed(t *testing.T) {
	cmd := Feed(Pipe(Make("cat"), Make("sort")), "b\na\n")
	first := Flatten(cmd)[0]
	if first.Stdin.Kind != InputStream {
		t.Fatalf("expected stream stdin, got %v", first.Stdin.Kind)
	}
	text, err := stream.Text(context.Background(), first.Stdin.Stream)
	if err != nil || text != "b\na\n" {
		t.Errorf("unexpected fed text %q %v", text, err)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("PARSE_TEST_WORD", "expanded")

	tests := []struct {
		line string
		want string
		envs []map[string]string
	}{
		{"echo hello", "echo hello", nil},
		{`echo "a b" 'c d'`, "echo a b c d", nil},
		{"echo $PARSE_TEST_WORD", "echo expanded", nil},
		{"printf '2\\n1\\n' | cat | sort -r", "printf 2\\n1\\n | cat | sort -r", nil},
		{"LC_ALL=C FOO= sort", "sort", []map[string]string{{"LC_ALL": "C", "FOO": ""}}},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.line, err)
			}
			if got := cmd.String(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			for i, env := range tc.envs {
				stage := Flatten(cmd)[i]
				if fmt.Sprint(stage.Env) != fmt.Sprint(env) {
					t.Errorf("stage %d env = %v, want %v", i, stage.Env, env)
				}
			}
		})
	}
}

func TestParseRejectsUnsupported(t *testing.T) {
	for _, line := range []string{
		"",
		"echo a; echo b",
		"echo a && echo b",
		"echo a > out.txt",
		"sleep 1 &",
		"echo $(whoami)",
		"(cd /tmp)",
		"echo 'unterminated",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			var bad *errors.BadArgument
			if !stderrors.As(err, &bad) {
				t.Fatalf("expected BadArgument, got %v", err)
			}
			if bad.Module != "Command" || bad.Method != "parse" {
				t.Errorf("unexpected context %s.%s", bad.Module, bad.Method)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Pipe(Make("cat"), Make("sort"))); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := Pipe(Make(""), WithEnv(Make("sort", "a\x00b"), map[string]string{"A=B": "x"}))
	err := Validate(bad)
	var badArg *errors.BadArgument
	if !stderrors.As(err, &badArg) {
		t.Fatalf("expected BadArgument, got %v", err)
	}
	for _, field := range []string{"stages[0].name", "stages[1].args[0]", "stages[1].env: must not contain '='"} {
		if !strings.Contains(badArg.Message, field) {
			t.Errorf("expected %q in %q", field, badArg.Message)
		}
	}
}
