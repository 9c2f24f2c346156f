// Package config loads formatter settings from .xmlembed.toml or
// .xmlembed.json files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/antchfx/xmlembed"
	"github.com/antchfx/xmlembed/subfmt"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
	"go.uber.org/zap"
)

// FileNames are the config files looked up, in order of preference.
var FileNames = []string{".xmlembed.toml", ".xmlembed.json"}

// Config is the content of a config file. Zero fields keep the built-in
// defaults.
type Config struct {
	// ScriptTags replaces the elements formatted as JavaScript.
	ScriptTags []string `toml:"script_tags" json:"scriptTags,omitempty"`
	// CDATATags replaces the elements whose content is CDATA-wrapped.
	CDATATags []string `toml:"cdata_tags" json:"cdataTags,omitempty"`
	// Rules adds rules or replaces built-in ones with the same tag.
	Rules        []RuleConfig `toml:"rule" json:"rules,omitempty"`
	NestContent  *bool        `toml:"nest_content" json:"nestContent,omitempty"`
	FinalNewline *bool        `toml:"final_newline" json:"finalNewline,omitempty"`
	// Timeout bounds a single printer call.
	Timeout Duration `toml:"timeout" json:"timeout,omitempty"`
	// Jobs is the number of files, and of blocks per file, formatted at
	// the same time.
	Jobs int `toml:"jobs" json:"jobs,omitempty"`
	// Exclude lists doublestar patterns of files to skip, relative to the
	// directory of the config file.
	Exclude []string `toml:"exclude" json:"exclude,omitempty"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-" json:"-"`
}

// RuleConfig describes one rule.
type RuleConfig struct {
	Tag         string          `toml:"tag" json:"tag"`
	Syntax      string          `toml:"syntax" json:"syntax"`
	IndentWidth int             `toml:"indent_width" json:"indentWidth,omitempty"`
	LineWidth   int             `toml:"line_width" json:"lineWidth,omitempty"`
	CDATA       *bool           `toml:"cdata" json:"cdata,omitempty"`
	Flags       map[string]bool `toml:"flags" json:"flags,omitempty"`
	// CommentMarker is the line comment prefix XML comments are rewritten
	// to in CDATA script content.
	CommentMarker string `toml:"comment_marker" json:"commentMarker,omitempty"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", b)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Load reads the config file at path. Files ending in .json are HuJSON;
// anything else is TOML.
func Load(path string) (*Config, error) {
	cfg := &Config{Path: path}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		std, err := hujson.Standardize(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: invalid HuJSON", path)
		}
		if err := json.Unmarshal(std, cfg); err != nil {
			return nil, errors.Wrapf(err, "%s: invalid config", path)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: failed to parse TOML", path)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	}
	if _, err := cfg.BuildRules(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Find looks for a config file in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, errors.Wrap(err, "failed to resolve start directory")
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !os.IsNotExist(err) {
				return "", false, errors.Wrapf(err, "failed to stat %q", candidate)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFor returns the config governing files in dir, or the defaults when
// there is none.
func LoadFor(dir string) (*Config, error) {
	path, ok, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Dir is the directory relative paths of the config refer to.
func (c *Config) Dir() string {
	if c.Path == "" {
		return ""
	}
	return filepath.Dir(c.Path)
}

var syntaxes = map[subfmt.Syntax]bool{
	subfmt.CSS:        true,
	subfmt.JSON:       true,
	subfmt.HTML:       true,
	subfmt.JavaScript: true,
	subfmt.TypeScript: true,
}

// BuildRules returns the rule table described by c.
func (c *Config) BuildRules() (xmlembed.Rules, error) {
	scriptTags := c.ScriptTags
	if len(scriptTags) == 0 {
		scriptTags = xmlembed.DefaultScriptTags
	}
	cdataTags := c.CDATATags
	if len(cdataTags) == 0 {
		cdataTags = xmlembed.DefaultCDATATags
	}
	cdata := make(map[string]bool, len(cdataTags))
	for _, tag := range cdataTags {
		cdata[tag] = true
	}

	profiles := xmlembed.DefaultProfiles(scriptTags)
	for i, rc := range c.Rules {
		if strings.TrimSpace(rc.Tag) == "" {
			return nil, errors.Errorf("rule %d: missing tag", i+1)
		}
		syntax := subfmt.Syntax(strings.ToLower(rc.Syntax))
		if !syntaxes[syntax] {
			return nil, errors.Errorf("rule %q: unknown syntax %q", rc.Tag, rc.Syntax)
		}
		p := subfmt.Profile{
			Syntax:      syntax,
			IndentWidth: rc.IndentWidth,
			LineWidth:   rc.LineWidth,
			Flags:       rc.Flags,
		}
		if p.IndentWidth <= 0 {
			p.IndentWidth = 4
		}
		if p.LineWidth <= 0 {
			p.LineWidth = 80
		}
		profiles = append(profiles, xmlembed.TagProfile{Tag: rc.Tag, Profile: p})
		if rc.CDATA != nil {
			cdata[rc.Tag] = *rc.CDATA
		}
	}

	var tags []string
	for tag, ok := range cdata {
		if ok {
			tags = append(tags, tag)
		}
	}
	rules := xmlembed.BuildRules(profiles, tags)
	for _, rc := range c.Rules {
		if rc.CommentMarker == "" {
			continue
		}
		for i := range rules {
			if rules[i].Tag == rc.Tag {
				rules[i].CommentMarker = rc.CommentMarker
			}
		}
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Options returns the formatter options described by c.
func (c *Config) Options(logger *zap.Logger) ([]xmlembed.Option, error) {
	rules, err := c.BuildRules()
	if err != nil {
		return nil, err
	}
	opts := []xmlembed.Option{
		xmlembed.WithRules(rules),
		xmlembed.WithLogger(logger),
		xmlembed.WithFinalNewline(c.FinalNewline == nil || *c.FinalNewline),
	}
	if c.NestContent != nil {
		opts = append(opts, xmlembed.WithNestContent(*c.NestContent))
	}
	if c.Timeout.Duration > 0 {
		opts = append(opts, xmlembed.WithTimeout(c.Timeout.Duration))
	}
	if c.Jobs > 0 {
		opts = append(opts, xmlembed.WithConcurrency(c.Jobs))
	}
	return opts, nil
}

// NewFormatter returns a formatter configured by c.
func (c *Config) NewFormatter(logger *zap.Logger) (*xmlembed.Formatter, error) {
	opts, err := c.Options(logger)
	if err != nil {
		return nil, err
	}
	return xmlembed.New(opts...)
}
