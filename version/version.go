package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/patql/errors"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// GrammarVersion identifies the accepted query language. The minor number
// moves when a construct is added, the major number when an accepted query
// changes meaning or starts failing.
const GrammarVersion = "1.1.0"

// Info contains version and build information
type Info struct {
	CommitHash     string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime      string `json:"build_time" yaml:"build_time"`
	Version        string `json:"version" yaml:"version"`
	GrammarVersion string `json:"grammar_version" yaml:"grammar_version"`
	GoVersion      string `json:"go_version" yaml:"go_version"`
	Platform       string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:     CommitHash,
		BuildTime:      BuildTime,
		Version:        Version,
		GrammarVersion: GrammarVersion,
		GoVersion:      runtime.Version(),
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("patql %s (grammar %s, commit %s, built %s)", i.Version, i.GrammarVersion, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("patql dev (grammar %s, commit %s, built %s)", i.GrammarVersion, i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// CheckGrammar reports whether the running grammar satisfies a semver
// constraint such as "^1.0" or ">= 1.1, < 2".
func CheckGrammar(constraint string) error {
	grammar, err := semver.NewVersion(GrammarVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid grammar version %s", GrammarVersion)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid grammar constraint %s", constraint)
	}

	if !c.Check(grammar) {
		return errors.Newf("requires grammar %s, but running %s", constraint, GrammarVersion)
	}
	return nil
}
