package command

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/kbukum/goplatform/errors"
)

// Parse builds a Command from a POSIX shell command line. Supported are
// simple commands, quoting, parameter expansion against the current
// environment, NAME=value prefixes and "|" pipelines. Anything else
// (redirections, lists, subshells, command substitution) is rejected.
//
//	cmd, err := command.Parse(`LC_ALL=C sort -r | head -n 1`)
func Parse(line string) (Command, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, parseError(err.Error(), err)
	}
	if len(file.Stmts) != 1 {
		return nil, parseError(fmt.Sprintf("expected exactly one command, got %d", len(file.Stmts)), nil)
	}

	cfg := &expand.Config{Env: expand.ListEnviron(os.Environ()...)}
	return fromStmt(cfg, file.Stmts[0])
}

func fromStmt(cfg *expand.Config, stmt *syntax.Stmt) (Command, error) {
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, parseError("redirections, negation and background jobs are not supported", nil)
	}

	switch c := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if c.Op != syntax.Pipe {
			return nil, parseError(fmt.Sprintf("unsupported operator %q", c.Op.String()), nil)
		}
		left, err := fromStmt(cfg, c.X)
		if err != nil {
			return nil, err
		}
		right, err := fromStmt(cfg, c.Y)
		if err != nil {
			return nil, err
		}
		return Pipe(left, right), nil
	case *syntax.CallExpr:
		return fromCall(cfg, c)
	default:
		return nil, parseError(fmt.Sprintf("unsupported shell construct %T", stmt.Cmd), nil)
	}
}

func fromCall(cfg *expand.Config, call *syntax.CallExpr) (Command, error) {
	if len(call.Args) == 0 {
		return nil, parseError("missing program name", nil)
	}

	words := make([]string, len(call.Args))
	for i, w := range call.Args {
		lit, err := expand.Literal(cfg, w)
		if err != nil {
			return nil, parseError(err.Error(), err)
		}
		words[i] = lit
	}

	cmd := Make(words[0], words[1:]...)
	if len(call.Assigns) > 0 {
		env := make(map[string]string, len(call.Assigns))
		for _, a := range call.Assigns {
			if a.Append || a.Naked || a.Array != nil || a.Index != nil {
				return nil, parseError(fmt.Sprintf("unsupported assignment to %s", a.Name.Value), nil)
			}
			val := ""
			if a.Value != nil {
				lit, err := expand.Literal(cfg, a.Value)
				if err != nil {
					return nil, parseError(err.Error(), err)
				}
				val = lit
			}
			env[a.Name.Value] = val
		}
		cmd.Env = env
	}
	return cmd, nil
}

func parseError(msg string, cause error) error {
	return &errors.BadArgument{Module: "Command", Method: "parse", Message: msg, Cause: cause}
}
