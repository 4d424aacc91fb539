// Package stripper removes wrapper scaffolding from a run sequence.
//
// The balance check is a depth counter over wrapper openers and closers. It
// relies on the scanner's brace depth, which ignores braces inside literals
// and comments, but it is not a parser: a wrapper is trusted to delimit its
// body exactly when the counter and the brace depth agree.
package stripper

import (
	"illiterate/internal/diag"
	"illiterate/internal/grouper"
	"illiterate/internal/scanner"
)

// Strip checks that wrapper lines are balanced, drops wrapper runs and merges
// Code runs that become adjacent. When the file has a wrapper, only the runs
// inside wrappers are kept; other top-level items are not part of the chapter.
func Strip(runs []grouper.Run) ([]grouper.Run, error) {
	if err := checkBalance(runs); err != nil {
		return nil, err
	}

	scoped := false
	for _, r := range runs {
		if r.Tag == scanner.Wrapper {
			scoped = true
			break
		}
	}

	out := make([]grouper.Run, 0, len(runs))
	inside := false
	for _, r := range runs {
		if r.Tag == scanner.Wrapper {
			for _, l := range r.Lines {
				switch l.Role {
				case scanner.RoleOpen:
					inside = true
				case scanner.RoleClose:
					inside = false
				}
			}
			continue
		}
		if r.Tag == scanner.Blank || scoped && !inside {
			continue
		}
		if n := len(out); n > 0 && r.Tag == scanner.Code && out[n-1].Tag == scanner.Code {
			merged := make([]scanner.ClassifiedLine, 0, len(out[n-1].Lines)+len(r.Lines))
			merged = append(merged, out[n-1].Lines...)
			merged = append(merged, r.Lines...)
			out[n-1] = grouper.Run{Tag: scanner.Code, Lines: merged}
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func checkBalance(runs []grouper.Run) error {
	open := -1 // line of the open wrapper
	for _, r := range runs {
		if r.Tag != scanner.Wrapper {
			continue
		}
		for _, l := range r.Lines {
			switch l.Role {
			case scanner.RoleOpen:
				if open >= 0 {
					return diag.Structural(l.Index, "wrapper nested inside the wrapper opened on line %d", open+1)
				}
				if l.Depth != 0 {
					return diag.Structural(l.Index, "wrapper opened inside another block")
				}
				open = l.Index
			case scanner.RoleClose:
				if open < 0 {
					return diag.Structural(l.Index, "closes a scope opened before the start of the file")
				}
				open = -1
			}
		}
	}
	if open >= 0 {
		return diag.Structural(open, "wrapper is never closed")
	}
	return nil
}
