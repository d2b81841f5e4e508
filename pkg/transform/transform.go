// Package transform implements the pluggable rewrite pipeline for fenced
// code blocks. A Registry maps block language tags (case-insensitive) to
// transform functions that replace the block's content with an HTML fragment,
// typically a container a client-side library hydrates into a diagram or a
// rendered equation.
//
// A Registry is populated once at startup and frozen before streaming begins.
// After Freeze it is safe for concurrent readers without locking.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Func rewrites the raw literal content of a fenced block into a safe,
// pre-escaped HTML fragment. The input is the block text exactly as it
// appeared between the fences, not HTML-escaped. Implementations must be
// side-effect-free and must not perform I/O.
type Func func(content string) (string, error)

// Assets holds page-level resources a transform needs for its fragments to
// hydrate on the client: inline CSS, inline JavaScript, and external script
// references. External scripts are emitted as references only; the core never
// fetches them, and fragments must degrade to their raw-source fallback when
// the scripts are unavailable.
type Assets struct {
	CSS        string
	JS         string
	ScriptURLs []string
}

// Rule binds a block language tag to a transform function.
type Rule struct {
	// Tag is the fenced-block language tag this rule matches. Matching is
	// case-insensitive; the tag is normalized to lower case on registration.
	Tag string

	// Priority orders asset emission when multiple rules contribute page
	// assets. Lower values come first. It does not affect tag lookup, which
	// is exact: tags are unique per registry.
	Priority int

	// Transform rewrites block content. Required.
	Transform Func

	// Assets are the page-level resources this rule's fragments depend on.
	Assets Assets
}

// ErrUnknownTag is returned by Apply when no rule is registered for a tag.
var ErrUnknownTag = errors.New("no transform registered for tag")

// ErrFrozen is returned by Register after the registry has been frozen.
var ErrFrozen = errors.New("registry is frozen")

// Error describes a transform failure for a specific tag. The renderer maps
// it to a warning and falls back to a literal code block for the offending
// block only.
type Error struct {
	Tag string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %q: %v", e.Tag, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Registry is an ordered binding from language tags to transform rules.
// Registering a duplicate tag replaces the prior rule (last wins).
type Registry struct {
	rules  map[string]Rule
	frozen bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule to the registry. The rule's tag is lowercased; a rule
// with the same tag replaces any prior registration. Registering an empty
// tag, a nil transform, or registering after Freeze is an error.
func (r *Registry) Register(rule Rule) error {
	if r.frozen {
		return ErrFrozen
	}
	tag := strings.ToLower(strings.TrimSpace(rule.Tag))
	if tag == "" {
		return errors.New("register: empty tag")
	}
	if rule.Transform == nil {
		return fmt.Errorf("register %q: nil transform", tag)
	}
	rule.Tag = tag
	r.rules[tag] = rule
	return nil
}

// RegisterFunc is a convenience wrapper around Register for rules without
// page assets.
func (r *Registry) RegisterFunc(tag string, priority int, fn Func) error {
	return r.Register(Rule{Tag: tag, Priority: priority, Transform: fn})
}

// Freeze marks the registry read-only. Subsequent Register calls fail with
// ErrFrozen. Freeze is idempotent.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Matches reports whether a rule is registered for tag.
func (r *Registry) Matches(tag string) bool {
	if r == nil {
		return false
	}
	_, ok := r.rules[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Apply runs the transform registered for tag on content and returns the
// resulting fragment. A panicking transform is recovered and reported as an
// *Error; a failure in one block never escapes to its siblings.
func (r *Registry) Apply(tag, content string) (fragment string, err error) {
	rule, ok := r.rules[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", &Error{Tag: tag, Err: ErrUnknownTag}
	}

	defer func() {
		if rec := recover(); rec != nil {
			fragment = ""
			err = &Error{Tag: rule.Tag, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	out, terr := rule.Transform(content)
	if terr != nil {
		return "", &Error{Tag: rule.Tag, Err: terr}
	}
	return out, nil
}

// Rules returns the registered rules sorted by priority, then tag. The slice
// is a copy; mutating it does not affect the registry.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// CollectAssets merges the assets of all registered rules in priority order.
// Duplicate external script URLs are removed, first occurrence wins.
func (r *Registry) CollectAssets() Assets {
	var merged Assets
	seen := make(map[string]bool)

	var css, js []string
	for _, rule := range r.Rules() {
		if rule.Assets.CSS != "" {
			css = append(css, rule.Assets.CSS)
		}
		if rule.Assets.JS != "" {
			js = append(js, rule.Assets.JS)
		}
		for _, u := range rule.Assets.ScriptURLs {
			if !seen[u] {
				seen[u] = true
				merged.ScriptURLs = append(merged.ScriptURLs, u)
			}
		}
	}
	merged.CSS = strings.Join(css, "\n")
	merged.JS = strings.Join(js, "\n")
	return merged
}
