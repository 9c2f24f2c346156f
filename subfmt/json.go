package subfmt

import (
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// printJSON formats JSON with comments and trailing commas (HuJSON). Both
// are kept unless the standardize flag is set.
func printJSON(content string, p Profile) (string, error) {
	v, err := hujson.Parse([]byte(content))
	if err != nil {
		return "", errors.Wrap(err, "subfmt: invalid JSON")
	}
	if p.Flag(FlagStandardize) {
		v.Standardize()
	}
	v.Format()
	// hujson indents with tabs; strings cannot hold a raw tab or newline,
	// so every leading tab is indentation.
	return reindent(string(v.Pack()), "\t", p, nil), nil
}
