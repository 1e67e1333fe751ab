package bundle

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate deciding whether a file is added.
//
// Available variables:
//
//	name     string     base filename
//	ext      string     extension including the dot
//	size     int        size in bytes
//	mode     int        permission bits
//	mod_time timestamp  modification time
//
// Example: `ext != ".log" && size < 1048576`.
type Filter struct {
	expr    string
	program cel.Program
}

// NewFilter compiles expr. The expression must evaluate to a bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("ext", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("mode", cel.IntType),
		cel.Variable("mod_time", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, iss.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must return bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter program: %w", err)
	}

	return &Filter{expr: expr, program: program}, nil
}

// Match evaluates the filter against a file.
func (f *Filter) Match(info fs.FileInfo) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"name":     info.Name(),
		"ext":      filepath.Ext(info.Name()),
		"size":     info.Size(),
		"mode":     int64(info.Mode().Perm()),
		"mod_time": info.ModTime(),
	})
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}

	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.expr, out.Value())
	}

	return match, nil
}

func (f *Filter) String() string {
	return f.expr
}
