// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	FileNotFoundId Id = iota + 1
	InvalidHTMLId
	NoComponentsId
	InvalidNamespaceId
	InvalidMarkerNameId
	InvalidSelectorId
	FactoryNotFoundId
	FactoryFailedId
	ScriptFailedId
	ConfigLoadFailedId
	WatchFailedId
)

type (
	// Id identifies an issue in the catalog.
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown. An empty stylePath selects
// glamour's automatic style.
func (i *Issue) Render(stylePath string) (string, error) {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(b.String(), stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# Document not found!

The HTML document you asked uneet to scan does not exist or cannot be read.

## Things you can try:
- Check the path, it is resolved relative to the current directory
- Pipe the document through stdin instead:
~~~
$ cat page.html | uneet scan -
~~~`,
	}

	invalidHTMLIssue = &Issue{
		id: InvalidHTMLId,
		mdMsg: `
# The document could not be parsed!

uneet parses documents the way a browser does, so this usually means the input
is not text at all.

## Things you can try:
- Make sure the file is HTML and not a compressed or binary artifact
- Re-run with ` + "`-v`" + ` to see the full error chain`,
	}

	noComponentsIssue = &Issue{
		id: NoComponentsId,
		mdMsg: `
# No components found!

The scan finished but no element carried a component marker.

## Things you can try:
- Check that elements use the marker attribute, e.g. ` + "`data-gf-uneet=\"Menu\"`" + `
- Pass the namespace your markup uses:
~~~
$ uneet scan -n app page.html
~~~
- If you narrowed the scan with ` + "`--scope`" + `, check that the selector matches`,
	}

	invalidNamespaceIssue = &Issue{
		id: InvalidNamespaceId,
		mdMsg: `
# Invalid namespace!

Namespaces become part of a data attribute name, so they may only contain
lowercase letters, digits and underscores.

## Things you can try:
- Rename the namespace, e.g. ` + "`my_app`" + ` instead of ` + "`my-app`",
	}

	invalidMarkerNameIssue = &Issue{
		id: InvalidMarkerNameId,
		mdMsg: `
# Invalid marker name!

The marker name must be camelCase: a lowercase letter followed by letters or digits.
It is written in kebab-case in the markup, so ` + "`myWidget`" + ` matches ` + "`data-gf-my-widget`" + `.`,
	}

	invalidSelectorIssue = &Issue{
		id: InvalidSelectorId,
		mdMsg: `
# Invalid CSS selector!

The scope selector could not be compiled. uneet falls back to the document body
when this happens in a pass, but the command line rejects it up front.

## Things you can try:
- Quote the selector so your shell does not expand it:
~~~
$ uneet scan --scope '#app > main' page.html
~~~`,
		extLinks: []HttpLink{"https://developer.mozilla.org/en-US/docs/Web/CSS/CSS_selectors"},
	}

	factoryNotFoundIssue = &Issue{
		id: FactoryNotFoundId,
		mdMsg: `
# No factory for a component!

A marked element names a component that has no registered factory.

## Things you can try:
- Add the component to the ` + "`components`" + ` list in your config file
- Check the spelling, component names are case sensitive`,
	}

	factoryFailedIssue = &Issue{
		id: FactoryFailedId,
		mdMsg: `
# A component failed to initialize!

One or more factories returned an error. Other components were still initialized.

## Things you can try:
- Re-run with ` + "`--log-level debug`" + ` to see every component as it is initialized
- Use ` + "`uneet scan`" + ` to check the props and parent the component receives`,
	}

	scriptFailedIssue = &Issue{
		id: ScriptFailedId,
		mdMsg: `
# A component script failed!

Component scripts run in an embedded POSIX shell. The script exited with a
non-zero status or could not be parsed.

## Things you can try:
- The component is described by these environment variables:
  ` + "`UNEET_NAME`, `UNEET_PROPS`, `UNEET_PATH` and `UNEET_PARENT`" + `
- Run the script by hand with the same variables set`,
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show the configuration that is in effect:
~~~
$ uneet config show
~~~
- Write a fresh default file:
~~~
$ uneet config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# The file watcher stopped!

uneet could not watch the requested directory for changes.

## Things you can try:
- Check that the directory exists and is readable
- On Linux, raise ` + "`fs.inotify.max_user_watches`" + ` when watching large trees`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():      fileNotFoundIssue,
		invalidHTMLIssue.Id():       invalidHTMLIssue,
		noComponentsIssue.Id():      noComponentsIssue,
		invalidNamespaceIssue.Id():  invalidNamespaceIssue,
		invalidMarkerNameIssue.Id(): invalidMarkerNameIssue,
		invalidSelectorIssue.Id():   invalidSelectorIssue,
		factoryNotFoundIssue.Id():   factoryNotFoundIssue,
		factoryFailedIssue.Id():     factoryFailedIssue,
		scriptFailedIssue.Id():      scriptFailedIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		watchFailedIssue.Id():       watchFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
