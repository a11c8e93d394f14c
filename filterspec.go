package rotorlog

import (
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
)

// moduleRule is one parsed rule from the grammar in §4.2: an optional
// module-name prefix (empty means "the default rule") and a max
// severity.
type moduleRule struct {
	module string // "" is the default rule
	max    Severity
}

// FilterSpec is the parsed, immutable result of parsing the grammar in
// §4.2. Once built it is never mutated - reconfiguration always builds a
// new FilterSpec and swaps it in, the same way the teacher's swapper
// replaces a whole Handler rather than mutating one in place.
type FilterSpec struct {
	text    string
	rules   []moduleRule // sorted by len(module) descending; default rule (module=="") sorts last
	pattern *regexp.Regexp
}

// String renders the spec back to its §4.2 textual form. parse(format(s))
// reproduces a spec with identical Enabled() behavior for every rule
// produced by a successful Parse, satisfying the round-trip property of
// §8.
func (s *FilterSpec) String() string {
	return s.text
}

// Enabled implements the lookup contract of §4.2: the first rule whose
// module is a prefix of target wins (longest-prefix, because rules are
// sorted front-to-back by decreasing module length); if none matches,
// the default rule applies. This is a linear scan, same complexity
// comment the teacher's manager.go registry walk makes about the name
// hierarchy.
func (s *FilterSpec) Enabled(sev Severity, target string) bool {
	for _, r := range s.rules {
		if r.module == "" {
			return r.max.permits(sev)
		}
		if target == r.module || strings.HasPrefix(target, r.module+"::") || strings.HasPrefix(target, r.module+".") {
			return r.max.permits(sev)
		}
	}
	// No default rule present: nothing enabled.
	return false
}

// MatchesText applies the optional text regex from §4.2 to an already
// rendered message. A spec with no regex matches everything.
func (s *FilterSpec) MatchesText(msg string) bool {
	if s.pattern == nil {
		return true
	}
	return s.pattern.MatchString(msg)
}

// Parse parses the grammar in §4.2. Parsing is lenient: unrecognized
// rules are skipped (with a warning sent to ch, which may be nil to
// suppress it); a module name containing '-' is rejected outright,
// matching the grammar's "dotted identifier sequence" restriction.
func Parse(spec string, ch ErrorChannel) (*FilterSpec, error) {
	spec = strings.TrimSpace(spec)
	body := spec
	var pattern *regexp.Regexp
	if idx := strings.LastIndex(spec, "/"); idx >= 0 {
		body = spec[:idx]
		reText := spec[idx+1:]
		if reText != "" {
			re, err := regexp.Compile(reText)
			if err != nil {
				return nil, Wrap(BadConfig, "invalid text filter regex", err)
			}
			pattern = re
		}
	}

	var rules []moduleRule
	onlyBareLevel := true
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			onlyBareLevel = false
			module := strings.TrimSpace(part[:eq])
			levelText := strings.TrimSpace(part[eq+1:])
			if strings.ContainsRune(module, '-') {
				return nil, Wrap(BadConfig, "module name may not contain '-': "+module, nil)
			}
			lvl, ok := ParseSeverity(levelText)
			if !ok {
				if ch != nil {
					ch.Warn("rotorlog: skipping unrecognized rule %q", part)
				}
				continue
			}
			rules = append(rules, moduleRule{module: module, max: lvl})
			continue
		}
		// Either a bare level (becomes the default) or a bare module
		// (implicitly Trace, "enable everything under this prefix").
		if lvl, ok := ParseSeverity(part); ok {
			rules = append(rules, moduleRule{module: "", max: lvl})
			continue
		}
		if strings.ContainsRune(part, '-') {
			return nil, Wrap(BadConfig, "module name may not contain '-': "+part, nil)
		}
		onlyBareLevel = false
		rules = append(rules, moduleRule{module: part, max: Trace})
	}

	if len(rules) == 0 {
		// Degenerate but valid: nothing enabled, no default rule.
		return &FilterSpec{text: spec, pattern: pattern}, nil
	}

	if onlyBareLevel && len(rules) == 1 && rules[0].module == "" {
		// "A spec whose only rule is a bare level assigns that level as
		// the default" - already true since module=="".
	}

	// No default rule is synthesized: if the caller never gave a bare
	// level, a target no rule matches falls through to "nothing enabled"
	// (no implicit default).
	hasDefault := false
	for _, r := range rules {
		if r.module == "" {
			hasDefault = true
			break
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].module) > len(rules[j].module)
	})
	if hasDefault {
		// Nothing to move: default rules (module=="") have length 0, so
		// the stable sort already places them after every non-empty
		// module. If several bare levels were given, the first one
		// written is the one Enabled reaches.
		_ = hasDefault
	}

	return &FilterSpec{text: spec, rules: rules, pattern: pattern}, nil
}

// MustParse is Parse without an error channel, panicking on malformed
// syntax - useful for package-level var initializers in tests.
func MustParse(spec string) *FilterSpec {
	s, err := Parse(spec, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// sharedSpec is the atomically replaceable reference of §3: "The spec is
// wrapped in a shared, atomically replaceable reference; readers take a
// brief read lock, writers a brief write lock." We use atomic.Value
// instead of an RWMutex, the lock-free-reader shape §9 recommends over a
// naive RWMutex, the same tradeoff the teacher's swapper makes for its
// Handler pointer.
type sharedSpec struct {
	v atomic.Value // *FilterSpec
}

func newSharedSpec(initial *FilterSpec) *sharedSpec {
	s := &sharedSpec{}
	s.v.Store(initial)
	return s
}

func (s *sharedSpec) load() *FilterSpec {
	return s.v.Load().(*FilterSpec)
}

func (s *sharedSpec) store(spec *FilterSpec) {
	s.v.Store(spec)
}
