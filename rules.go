package xmlembed

import (
	"strings"

	"github.com/antchfx/xmlembed/subfmt"
	"github.com/pkg/errors"
)

// IndentUnit is one level of XML indentation.
const IndentUnit = "    "

// ContentKind is how an element stores its embedded block.
type ContentKind int

const (
	// PlainText content is the escaped text of the element.
	PlainText ContentKind = iota
	// CDATA content is the first CDATA section directly inside the element.
	CDATA
)

func (k ContentKind) String() string {
	if k == CDATA {
		return "cdata"
	}
	return "text"
}

// DefaultCommentMarker starts a single-line comment in the C family of
// languages.
const DefaultCommentMarker = "//"

// Rule says how to format the content of elements named Tag.
type Rule struct {
	Tag     string
	Kind    ContentKind
	Profile subfmt.Profile
	// CommentTransform rewrites XML comments inside CDATA content into
	// single-line comments of the embedded language before printing.
	CommentTransform bool
	// CommentMarker is the single-line comment prefix used by
	// CommentTransform. Empty means DefaultCommentMarker.
	CommentMarker string
}

func (r Rule) commentMarker() string {
	if r.CommentMarker == "" {
		return DefaultCommentMarker
	}
	return r.CommentMarker
}

// Rules is an ordered rule table. Elements are processed one rule at a
// time, in table order.
type Rules []Rule

// Validate rejects tables that name a tag twice or use a tag that cannot
// be looked up.
func (rs Rules) Validate() error {
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		switch {
		case r.Tag == "":
			return errors.New("xmlembed: rule with empty tag name")
		case strings.ContainsAny(r.Tag, "'\" \t\r\n<>/"):
			return errors.Errorf("xmlembed: invalid tag name %q", r.Tag)
		case seen[r.Tag]:
			return errors.Errorf("xmlembed: tag %q is configured more than once", r.Tag)
		}
		seen[r.Tag] = true
	}
	return nil
}

// Lookup returns the rule for tag.
func (rs Rules) Lookup(tag string) (Rule, bool) {
	for _, r := range rs {
		if r.Tag == tag {
			return r, true
		}
	}
	return Rule{}, false
}

// Tags returns the tag names of the table in order.
func (rs Rules) Tags() []string {
	tags := make([]string, len(rs))
	for i, r := range rs {
		tags[i] = r.Tag
	}
	return tags
}

// TagProfile binds a tag name to a printing profile, before its content
// kind is known.
type TagProfile struct {
	Tag     string
	Profile subfmt.Profile
}

var (
	// DefaultCDATATags are the elements whose content is always wrapped in
	// a CDATA section.
	DefaultCDATATags = []string{"Script", "service-config", "Validation", "Html"}
	// DefaultScriptTags are the elements holding script code.
	DefaultScriptTags = []string{"Script", "service-config"}
)

// ScriptProfile is the profile given to script-like elements.
var ScriptProfile = subfmt.Profile{Syntax: subfmt.JavaScript, IndentWidth: 4, LineWidth: 100}

// DefaultProfiles returns the built-in tag profiles in processing order,
// with scriptTags given ScriptProfile. A script tag overrides the built-in
// profile of the same name.
func DefaultProfiles(scriptTags []string) []TagProfile {
	script := make(map[string]bool, len(scriptTags))
	for _, tag := range scriptTags {
		script[tag] = true
	}

	var profiles []TagProfile
	add := func(tag string, p subfmt.Profile) {
		if !script[tag] {
			profiles = append(profiles, TagProfile{Tag: tag, Profile: p})
		}
	}
	add("Style", subfmt.Profile{Syntax: subfmt.CSS, IndentWidth: 4, LineWidth: 80})
	for _, tag := range scriptTags {
		profiles = append(profiles, TagProfile{Tag: tag, Profile: ScriptProfile})
	}
	add("Validation", subfmt.Profile{Syntax: subfmt.JSON, IndentWidth: 4, LineWidth: 80})
	add("Html", subfmt.Profile{Syntax: subfmt.HTML, IndentWidth: 2, LineWidth: 80})
	return profiles
}

// BuildRules derives a rule table from tag profiles: a tag listed in
// cdataTags gets CDATA content, any other tag PlainText. Script rules with
// CDATA content have XML comments rewritten into line comments. Later
// profiles for an already seen tag replace the earlier one in place.
func BuildRules(profiles []TagProfile, cdataTags []string) Rules {
	cdata := make(map[string]bool, len(cdataTags))
	for _, tag := range cdataTags {
		cdata[tag] = true
	}

	index := make(map[string]int, len(profiles))
	var rules Rules
	for _, tp := range profiles {
		rule := Rule{Tag: tp.Tag, Profile: tp.Profile}
		if cdata[tp.Tag] {
			rule.Kind = CDATA
		}
		switch tp.Profile.Syntax {
		case subfmt.JavaScript, subfmt.TypeScript:
			rule.CommentTransform = rule.Kind == CDATA
		}
		if i, ok := index[tp.Tag]; ok {
			rules[i] = rule
			continue
		}
		index[tp.Tag] = len(rules)
		rules = append(rules, rule)
	}
	return rules
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	return BuildRules(DefaultProfiles(DefaultScriptTags), DefaultCDATATags)
}
