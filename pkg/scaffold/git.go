package scaffold

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOptions configures the initial commit of a generated project.
type GitOptions struct {
	AuthorName  string
	AuthorEmail string
	Message     string
	When        time.Time
}

// InitRepository runs the equivalent of `git init && git add . && git
// commit` in dir and returns the commit hash. It needs no git binary.
func InitRepository(dir string, opts GitOptions) (string, error) {
	if opts.When.IsZero() {
		opts.When = time.Now()
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return "", fmt.Errorf("git init: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("git worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}

	hash, err := wt.Commit(opts.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  opts.AuthorName,
			Email: opts.AuthorEmail,
			When:  opts.When,
		},
	})
	if err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	return hash.String(), nil
}
