package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credential = "correct horse"

// stubPasswords makes GetPassword return pws in order, then io.EOF.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(pws) {
			return nil, io.EOF
		}
		p := []byte(pws[i])
		i++
		return p, nil
	}
	t.Cleanup(func() { readPassword = orig })
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	r := &runner{
		in:     bufio.NewReader(strings.NewReader(stdin)),
		out:    &out,
		errOut: &errOut,
		log:    logging.NewNop(),
	}
	code := r.execute(context.Background(), append([]string{"--data-dir", dir}, args...))
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	res := run(t, dir, "", args...)
	require.Equal(t, exitSuccess, res.code, "args %v: %s", args, res.stderr)
	return res.stdout
}

// loggedIn initializes a fresh data directory and opens a session in it.
func loggedIn(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	stubPasswords(t, credential, credential, credential)
	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Key file created")
	assert.Contains(t, out, "Master credential set")
	out = mustRun(t, dir, "login")
	assert.Contains(t, out, "Logged in until")
	assert.FileExists(t, filepath.Join(dir, "session"))
	return dir
}

func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	code := Execute(context.Background(), []string{"version"}, strings.NewReader(""), &out, io.Discard)
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "snipkeeper dev\n", out.String())
}

func TestRun_MissingKeyIsFatal(t *testing.T) {
	dir := t.TempDir()
	res := run(t, dir, "", "item", "list")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "encryption key missing")
	assert.Contains(t, res.stderr, "snipkeeper init")
	assert.NoFileExists(t, filepath.Join(dir, "snipkeeper.db"))
}

func TestRun_RequiresSession(t *testing.T) {
	dir := t.TempDir()
	stubPasswords(t, credential, credential)
	mustRun(t, dir, "init")

	res := run(t, dir, "", "item", "list")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "not logged in")

	res = run(t, dir, "", "--token", "garbage", "item", "list")
	assert.Equal(t, exitError, res.code)
}

func TestRun_InitTwice(t *testing.T) {
	dir := loggedIn(t)
	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "Already initialized.")
	assert.NotContains(t, out, "Key file created")
}

func TestRun_LoginWrongCredential(t *testing.T) {
	dir := t.TempDir()
	stubPasswords(t, credential, credential, "wrong")
	mustRun(t, dir, "init")
	res := run(t, dir, "", "login")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "invalid credential")
}

func TestRun_ItemsAndSearch(t *testing.T) {
	dir := loggedIn(t)

	out := mustRun(t, dir, "item", "add", "git status", "--type", "code", "--value", "git status")
	assert.Equal(t, "Item 1 added.\n", out)
	mustRun(t, dir, "item", "add", "db password", "--sensitive", "--value", "hunter2")
	mustRun(t, dir, "item", "add", "docs", "--type", "url", "--value", "https://go.dev/doc")

	out = mustRun(t, dir, "search", "git")
	assert.Contains(t, out, "git status")
	assert.Contains(t, out, "Total: 1 item(s)")

	out = mustRun(t, dir, "item", "list")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "Total: 3 item(s)")

	out = mustRun(t, dir, "item", "use", "2")
	assert.Equal(t, "hunter2\n", out)

	out = mustRun(t, dir, "item", "list", "--used")
	assert.Contains(t, out, "db password")
	assert.Contains(t, out, "Total: 1 item(s)")

	out = mustRun(t, dir, "--json", "item", "show", "1")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "git status", got["value"])
	assert.Equal(t, "CODE", got["type"])
	assert.Equal(t, false, got["sensitive"])

	mustRun(t, dir, "item", "edit", "1", "--label", "git st")
	out = mustRun(t, dir, "item", "show", "1")
	assert.Contains(t, out, "Label:     git st\n")
	assert.Contains(t, out, "Value:\ngit status\n")

	res := run(t, dir, "", "item", "add", "bad", "--type", "binary", "--value", "x")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "unknown content type")

	out = mustRun(t, dir, "item", "rm", "3")
	assert.Equal(t, "Item 3 deleted.\n", out)
	res = run(t, dir, "", "item", "show", "3")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "not found")
}

func TestRun_ItemAddReadsStdinAndPrompts(t *testing.T) {
	dir := loggedIn(t)

	res := run(t, dir, "line one\nline two\n", "item", "add", "note", "--stdin")
	require.Equal(t, exitSuccess, res.code, res.stderr)

	res = run(t, dir, "prompted\nsome value\n\n", "item", "add")
	require.Equal(t, exitSuccess, res.code, res.stderr)

	out := mustRun(t, dir, "--json", "item", "list")
	var items []itemJSON
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	byLabel := map[string]string{}
	for _, it := range items {
		byLabel[it.Label] = it.Value
	}
	assert.Equal(t, "line one\nline two", byLabel["note"])
	assert.Equal(t, "some value", byLabel["prompted"])
}

func TestRun_Favorites(t *testing.T) {
	dir := loggedIn(t)
	for _, label := range []string{"a", "b", "c"} {
		mustRun(t, dir, "item", "add", label, "--value", label)
	}
	mustRun(t, dir, "item", "fav", "1")
	mustRun(t, dir, "item", "fav", "3")
	mustRun(t, dir, "item", "fav-order", "3", "1")

	out := mustRun(t, dir, "--json", "item", "favs")
	var favs []itemJSON
	require.NoError(t, json.Unmarshal([]byte(out), &favs))
	require.Len(t, favs, 2)
	assert.Equal(t, int64(3), favs[0].ID)
	assert.Equal(t, int64(1), favs[1].ID)

	mustRun(t, dir, "item", "fav", "3", "--off")
	out = mustRun(t, dir, "item", "list", "--fav")
	assert.Contains(t, out, "Total: 1 item(s)")
}

func TestRun_CategoriesAndTags(t *testing.T) {
	dir := loggedIn(t)

	out := mustRun(t, dir, "category", "add", "work", "--icon", "W")
	assert.Contains(t, out, "added")
	mustRun(t, dir, "item", "add", "deploy", "--category", "work", "--value", "make deploy")
	mustRun(t, dir, "item", "add", "hello", "--value", "echo hello")

	res := run(t, dir, "", "category", "rm", "work")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "constraint violation")

	out = mustRun(t, dir, "item", "list", "--category", "work")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "Total: 1 item(s)")

	mustRun(t, dir, "tag", "add", "Ops")
	mustRun(t, dir, "item", "tag", "1", "ops")
	out = mustRun(t, dir, "item", "list", "--tag", "ops")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "Total: 1 item(s)")

	out = mustRun(t, dir, "tag", "popular")
	assert.Contains(t, out, "ops")

	mustRun(t, dir, "item", "untag", "1", "ops")
	out = mustRun(t, dir, "tag", "prune")
	assert.Equal(t, "Pruned 1 tag(s).\n", out)

	mustRun(t, dir, "item", "rm", "1")
	mustRun(t, dir, "category", "rm", "work")
	out = mustRun(t, dir, "category", "list")
	assert.NotContains(t, out, "work")
}

func TestRun_Areas(t *testing.T) {
	dir := loggedIn(t)
	mustRun(t, dir, "item", "add", "deploy", "--value", "make deploy")
	mustRun(t, dir, "item", "add", "other", "--value", "unrelated")
	mustRun(t, dir, "area", "add", "backend", "--desc", "server side")

	out := mustRun(t, dir, "area", "link", "backend", "item", "1", "--desc", "ship it")
	assert.Equal(t, "Linked item 1 at position 0.\n", out)

	out = mustRun(t, dir, "area", "show", "backend")
	assert.Contains(t, out, "Area 1: backend")
	assert.Contains(t, out, "ship it")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "Total: 1 item(s), 0 category(ies), 0 tag(s)")

	out = mustRun(t, dir, "item", "list", "--area", "backend")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "Total: 1 item(s)")

	mustRun(t, dir, "area", "dup", "backend", "backend-copy")
	out = mustRun(t, dir, "area", "search", "backend")
	assert.Contains(t, out, "Total: 2 area(s)")

	mustRun(t, dir, "area", "edit", "backend-copy", "--active=false")
	out = mustRun(t, dir, "area", "list", "--active")
	assert.Contains(t, out, "Total: 1 area(s)")

	mustRun(t, dir, "area", "unlink", "backend", "item", "1")
	out = mustRun(t, dir, "area", "show", "backend")
	assert.Contains(t, out, "Nothing linked.")

	res := run(t, dir, "", "area", "link", "backend", "widget", "1")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "unknown entity type")
}

func TestRun_ExportImport(t *testing.T) {
	dir := loggedIn(t)
	mustRun(t, dir, "item", "add", "token", "--sensitive", "--value", "s3cr3t")
	mustRun(t, dir, "item", "add", "plain", "--value", "visible")

	snap := filepath.Join(t.TempDir(), "snap.json")
	mustRun(t, dir, "backup", "export", "--out", snap)

	out := mustRun(t, dir, "backup", "import", snap)
	assert.Contains(t, out, "Imported 2 item(s)")

	out = mustRun(t, dir, "item", "list")
	assert.Contains(t, out, "Total: 4 item(s)")

	res := run(t, dir, "", "backup", "push")
	assert.Equal(t, exitError, res.code)
}

func TestRun_LogoutAndPasswd(t *testing.T) {
	dir := loggedIn(t)

	out := mustRun(t, dir, "logout")
	assert.Equal(t, "Logged out.\n", out)
	assert.NoFileExists(t, filepath.Join(dir, "session"))
	res := run(t, dir, "", "item", "list")
	assert.Equal(t, exitError, res.code)

	stubPasswords(t, credential, "new one", "new one", "new one")
	out = mustRun(t, dir, "passwd")
	assert.Contains(t, out, "Master credential changed")
	out = mustRun(t, dir, "login")
	assert.Contains(t, out, "Logged in until")
}
