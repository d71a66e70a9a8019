package scaffold

import (
	"context"
	"fmt"
	"io/fs"
)

// Options controls the optional steps of Instantiate.
type Options struct {
	GitInit bool
	Git     GitOptions
}

// Result reports what Instantiate did.
type Result struct {
	Copy       CopyStats
	Substitute SubstituteStats
	// Commit is the initial commit hash when a repository was created.
	Commit string
	// GitErr is set when git init failed. A failed git init leaves the
	// generated files in place and is not an error of the pipeline.
	GitErr error
}

// Instantiate runs copy, variable substitution and the optional git init
// for one project. dest should not exist or be empty. ctx is checked
// between steps.
func Instantiate(ctx context.Context, src fs.FS, dest string, info ProjectInfo, opts Options) (Result, error) {
	var res Result

	vars, err := BuildVariables(info)
	if err != nil {
		return res, fmt.Errorf("failed to build variables: %w", err)
	}

	if res.Copy, err = CopyTree(src, dest); err != nil {
		return res, fmt.Errorf("failed to copy template: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if res.Substitute, err = Substitute(dest, vars); err != nil {
		return res, fmt.Errorf("failed to substitute variables: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if opts.GitInit {
		res.Commit, res.GitErr = InitRepository(dest, opts.Git)
	}

	return res, nil
}
