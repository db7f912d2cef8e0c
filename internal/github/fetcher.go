package github

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"

	"github.com/bull/docqa/internal/document"
)

// Scheme prefixes document locations hosted on GitHub.
const Scheme = "github://"

// Location identifies a file in a GitHub repository.
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Branch, tag or commit; empty means the default branch
}

// IsLocation reports whether s uses the github:// scheme.
func IsLocation(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseLocation parses github://owner/repo/path/to/file[@ref].
func ParseLocation(s string) (Location, error) {
	if !IsLocation(s) {
		return Location{}, fmt.Errorf("not a %s location: %q", Scheme, s)
	}
	rest := strings.TrimPrefix(s, Scheme)

	var ref string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, ref = rest[:i], rest[i+1:]
		if ref == "" {
			return Location{}, fmt.Errorf("empty ref in %q", s)
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return Location{}, fmt.Errorf("want %sowner/repo/path, got %q", Scheme, s)
	}

	return Location{
		Owner: parts[0],
		Repo:  parts[1],
		Path:  path.Clean(strings.Trim(parts[2], "/")),
		Ref:   ref,
	}, nil
}

// String formats the location in github:// form.
func (l Location) String() string {
	s := Scheme + l.Owner + "/" + l.Repo + "/" + l.Path
	if l.Ref != "" {
		s += "@" + l.Ref
	}
	return s
}

// FetchedDoc represents a file fetched from GitHub
type FetchedDoc struct {
	Location Location
	Content  []byte
	SHA      string // File's Git blob SHA
}

// Source returns the fetched file as an in-memory document.
func (d *FetchedDoc) Source() document.Source {
	return document.FromBytes(path.Base(d.Location.Path), d.Content)
}

// Fetcher downloads documents from GitHub repositories
type Fetcher struct {
	client *Client
}

// NewFetcher creates a new document fetcher
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads the file at loc. Files of any size are supported.
func (f *Fetcher) Fetch(ctx context.Context, loc Location) (*FetchedDoc, error) {
	var opts *github.RepositoryContentGetOptions
	if loc.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: loc.Ref}
	}

	body, meta, _, err := f.client.Repositories.DownloadContentsWithMeta(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", loc, err)
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", loc, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("no file content returned for %s", loc)
	}

	return &FetchedDoc{
		Location: loc,
		Content:  content,
		SHA:      meta.GetSHA(),
	}, nil
}

// GetLatestCommitSHA retrieves the SHA of the most recent commit affecting the file
func (f *Fetcher) GetLatestCommitSHA(ctx context.Context, loc Location) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(
		ctx,
		loc.Owner,
		loc.Repo,
		&github.CommitsListOptions{
			SHA:  loc.Ref,
			Path: loc.Path,
			ListOptions: github.ListOptions{
				PerPage: 1,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}

	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", loc.Path)
	}

	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}

	return *commits[0].SHA, nil
}
