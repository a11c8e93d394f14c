package rotorlog

import "testing"

func TestParseBareLevel(t *testing.T) {
	spec, err := Parse("warn", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !spec.Enabled(Warn, "anything") {
		t.Error("expected warn to be enabled under a bare 'warn' default")
	}
	if spec.Enabled(Info, "anything") {
		t.Error("expected info to be disabled under a bare 'warn' default")
	}
}

func TestParseModuleRules(t *testing.T) {
	spec, err := Parse("warn,myapp::db=trace,myapp::cache=off", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !spec.Enabled(Trace, "myapp::db") {
		t.Error("myapp::db should permit trace")
	}
	if !spec.Enabled(Trace, "myapp::db::pool") {
		t.Error("a child module should inherit its parent's rule")
	}
	if spec.Enabled(Error, "myapp::cache") {
		t.Error("myapp::cache is set to off and should permit nothing")
	}
	if !spec.Enabled(Warn, "other::module") {
		t.Error("unmatched modules should fall back to the default rule")
	}
}

func TestParseLongestPrefixWins(t *testing.T) {
	spec, err := Parse("info,myapp=warn,myapp::db=trace", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !spec.Enabled(Trace, "myapp::db") {
		t.Error("the more specific myapp::db rule should win over myapp")
	}
	if spec.Enabled(Debug, "myapp::other") {
		t.Error("myapp::other should fall back to the myapp=warn rule, not myapp::db")
	}
}

func TestParseTextRegex(t *testing.T) {
	spec, err := Parse("trace/^connected", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !spec.MatchesText("connected to db") {
		t.Error("expected the regex to match a string starting with 'connected'")
	}
	if spec.MatchesText("disconnected") {
		t.Error("expected the regex to reject a non-matching string")
	}
}

func TestParseRejectsHyphenatedModule(t *testing.T) {
	if _, err := Parse("my-app=info", nil); err == nil {
		t.Error("expected a hyphenated module name to be rejected")
	}
}

func TestParseLenientOnUnknownLevel(t *testing.T) {
	spec, err := Parse("info,myapp=bogus", nil)
	if err != nil {
		t.Fatalf("a bad rule should be skipped with a warning, not fail the whole parse: %v", err)
	}
	if !spec.Enabled(Info, "myapp") {
		t.Error("myapp should fall back to the default rule once its own rule is skipped")
	}
}

func TestFilterSpecRoundTrip(t *testing.T) {
	const text = "info,myapp::db=trace"
	spec, err := Parse(text, nil)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(spec.String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, target := range []string{"myapp::db", "myapp::db::pool", "other"} {
		for _, sev := range []Severity{Error, Warn, Info, Debug, Trace} {
			if spec.Enabled(sev, target) != again.Enabled(sev, target) {
				t.Errorf("round trip mismatch at sev=%v target=%q", sev, target)
			}
		}
	}
}
