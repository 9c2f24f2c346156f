package xmlembed

import (
	"testing"

	"github.com/antchfx/xmlembed/subfmt"
	"github.com/google/go-cmp/cmp"
)

var (
	cssProfile  = subfmt.Profile{Syntax: subfmt.CSS, IndentWidth: 4, LineWidth: 80}
	jsonProfile = subfmt.Profile{Syntax: subfmt.JSON, IndentWidth: 4, LineWidth: 80}
	htmlProfile = subfmt.Profile{Syntax: subfmt.HTML, IndentWidth: 2, LineWidth: 80}
)

func TestDefaultRules(t *testing.T) {
	want := Rules{
		{Tag: "Style", Kind: PlainText, Profile: cssProfile},
		{Tag: "Script", Kind: CDATA, Profile: ScriptProfile, CommentTransform: true},
		{Tag: "service-config", Kind: CDATA, Profile: ScriptProfile, CommentTransform: true},
		{Tag: "Validation", Kind: CDATA, Profile: jsonProfile},
		{Tag: "Html", Kind: CDATA, Profile: htmlProfile},
	}
	got := DefaultRules()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DefaultRules mismatch (-want +got):\n%s", diff)
	}
	testTrue(t, got.Validate() == nil)
	testValue(t, got.Tags(), []string{"Style", "Script", "service-config", "Validation", "Html"})
}

func TestDefaultProfilesScriptOverride(t *testing.T) {
	profiles := DefaultProfiles([]string{"Script", "Validation"})
	rules := BuildRules(profiles, DefaultCDATATags)
	testValue(t, rules.Tags(), []string{"Style", "Script", "Validation", "Html"})

	r, ok := rules.Lookup("Validation")
	testTrue(t, ok)
	testValue(t, r.Profile, ScriptProfile)
	testValue(t, r.Kind, CDATA)
	testTrue(t, r.CommentTransform)

	_, ok = rules.Lookup("service-config")
	testTrue(t, !ok)
}

func TestBuildRules(t *testing.T) {
	tsProfile := subfmt.Profile{Syntax: subfmt.TypeScript, IndentWidth: 2, LineWidth: 100}
	rules := BuildRules([]TagProfile{
		{Tag: "Style", Profile: cssProfile},
		{Tag: "Code", Profile: tsProfile},
		{Tag: "Inline", Profile: ScriptProfile},
		{Tag: "Style", Profile: htmlProfile},
	}, []string{"Code"})

	want := Rules{
		{Tag: "Style", Kind: PlainText, Profile: htmlProfile},
		{Tag: "Code", Kind: CDATA, Profile: tsProfile, CommentTransform: true},
		{Tag: "Inline", Kind: PlainText, Profile: ScriptProfile},
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Fatalf("BuildRules mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesValidate(t *testing.T) {
	for _, test := range []struct {
		name  string
		rules Rules
		ok    bool
	}{
		{name: "empty table", rules: nil, ok: true},
		{name: "prefixed tag", rules: Rules{{Tag: "x:Script"}}, ok: true},
		{name: "empty tag", rules: Rules{{Tag: ""}}},
		{name: "quote", rules: Rules{{Tag: "a'b"}}},
		{name: "space", rules: Rules{{Tag: "a b"}}},
		{name: "markup", rules: Rules{{Tag: "<a>"}}},
		{name: "duplicate", rules: Rules{{Tag: "Style"}, {Tag: "Script"}, {Tag: "Style"}}},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.rules.Validate()
			testValue(t, err == nil, test.ok)
		})
	}
}

func TestRuleCommentMarker(t *testing.T) {
	testValue(t, Rule{}.commentMarker(), DefaultCommentMarker)
	testValue(t, Rule{CommentMarker: "#"}.commentMarker(), "#")
}

func TestContentKindString(t *testing.T) {
	testValue(t, PlainText.String(), "text")
	testValue(t, CDATA.String(), "cdata")
}
