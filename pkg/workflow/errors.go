package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/elementtree"
)

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrElementNotFound   = elementtree.ErrElementNotFound
	ErrTemplateNotFound  = errors.New("activity template not found")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrBranchNameTaken   = errors.New("branch name already in use")
	ErrInvalidBranchName = errors.New("invalid branch name")
	ErrUnknownBranch     = errors.New("node assigned to unknown branch")
	ErrBranchCycle       = errors.New("node cannot be placed on its own branch")
	ErrNotConditionNode  = errors.New("node is not a condition node")
	ErrUseBranchCommands = errors.New("condition branches are edited through branch commands")
)

// CommandError reports which command failed.
type CommandError struct {
	Command string
	NodeID  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s on node %s: %v", e.Command, e.NodeID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means a node, element, branch or template does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrBranchNotFound)
}

// IsConflict reports whether err is a branch-invariant conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBranchNameTaken) || errors.Is(err, ErrBranchCycle)
}
