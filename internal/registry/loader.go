package registry

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/mattsondev/taskgraph/internal/typetoken"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// parseManifest decodes an atomic task manifest and rejects any
// declared input/output type token outside the alphanumeric+'.'
// alphabet before the manifest ever reaches AtomicTask construction or
// Reload.
func parseManifest(data []byte, sourceLocation string) (AtomicManifest, error) {
	var m AtomicManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return AtomicManifest{}, &taskerrors.MalformedDocument{Reason: fmt.Sprintf("%s:%d: %v", sourceLocation, extractLine(err), err)}
	}
	if err := typetoken.ValidateStruct(&m); err != nil {
		return AtomicManifest{}, err
	}
	return m, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	line, scanErr := strconv.Atoi(matches[1])
	if scanErr != nil {
		return 0
	}
	return line
}

// FileSourceLoader reads an atomic task's manifest straight off the
// local filesystem.
type FileSourceLoader struct{}

func (FileSourceLoader) Load(sourceLocation string) (AtomicManifest, error) {
	data, err := os.ReadFile(sourceLocation)
	if err != nil {
		return AtomicManifest{}, &taskerrors.Internal{Reason: "reading " + sourceLocation + ": " + err.Error()}
	}
	return parseManifest(data, sourceLocation)
}

// GitSourceLoader resolves sourceLocations of the form
// "git+<remote>#<ref>:<path>" by cloning (or reusing a prior clone of)
// the remote into cacheDir, checking out ref, and reading path as an
// AtomicManifest. Grounded on
// internal/plugins/repo/repo.go's PlainClone/PlainOpen usage.
type GitSourceLoader struct {
	CacheDir string
}

func NewGitSourceLoader(cacheDir string) *GitSourceLoader {
	return &GitSourceLoader{CacheDir: cacheDir}
}

func (g *GitSourceLoader) Load(sourceLocation string) (AtomicManifest, error) {
	remote, ref, path, err := parseGitLocation(sourceLocation)
	if err != nil {
		return AtomicManifest{}, err
	}

	dir := g.cloneDirFor(remote)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		repo, err = git.PlainClone(dir, false, &git.CloneOptions{URL: remote})
		if err != nil {
			return AtomicManifest{}, &taskerrors.Internal{Reason: "cloning " + remote + ": " + err.Error()}
		}
	} else if fetchErr := repo.Fetch(&git.FetchOptions{}); fetchErr != nil && fetchErr != git.NoErrAlreadyUpToDate {
		return AtomicManifest{}, &taskerrors.Internal{Reason: "fetching " + remote + ": " + fetchErr.Error()}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return AtomicManifest{}, &taskerrors.Internal{Reason: "opening worktree for " + remote + ": " + err.Error()}
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(ref)}); err != nil {
		if err2 := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(ref)}); err2 != nil {
			return AtomicManifest{}, &taskerrors.Internal{Reason: "checking out " + ref + " in " + remote + ": " + err.Error()}
		}
	}

	data, err := os.ReadFile(dir + "/" + path)
	if err != nil {
		return AtomicManifest{}, &taskerrors.Internal{Reason: "reading " + path + " from " + remote + ": " + err.Error()}
	}
	return parseManifest(data, sourceLocation)
}

func (g *GitSourceLoader) cloneDirFor(remote string) string {
	safe := strings.NewReplacer("/", "_", ":", "_", "@", "_").Replace(remote)
	return g.CacheDir + "/" + safe
}

// parseGitLocation splits "git+<remote>#<ref>:<path>" into its parts.
func parseGitLocation(sourceLocation string) (remote, ref, path string, err error) {
	const prefix = "git+"
	if !strings.HasPrefix(sourceLocation, prefix) {
		return "", "", "", &taskerrors.Internal{Reason: "not a git source location: " + sourceLocation}
	}
	rest := sourceLocation[len(prefix):]
	hashIdx := strings.IndexByte(rest, '#')
	if hashIdx < 0 {
		return "", "", "", &taskerrors.Internal{Reason: "git source location missing #ref: " + sourceLocation}
	}
	remote = rest[:hashIdx]
	rest = rest[hashIdx+1:]
	colonIdx := strings.IndexByte(rest, ':')
	if colonIdx < 0 {
		return "", "", "", &taskerrors.Internal{Reason: "git source location missing :path: " + sourceLocation}
	}
	ref = rest[:colonIdx]
	path = rest[colonIdx+1:]
	if remote == "" || ref == "" || path == "" {
		return "", "", "", &taskerrors.Internal{Reason: "malformed git source location: " + sourceLocation}
	}
	return remote, ref, path, nil
}

var (
	_ SourceLoader = FileSourceLoader{}
	_ SourceLoader = (*GitSourceLoader)(nil)
)
