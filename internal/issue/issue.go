// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	GamePathNotFoundId Id = iota + 1
	InvalidGameId
	LocalFolderUnavailableId
	MetadataNotFoundId
	MetadataParseErrorId
	ConfigLoadFailedId
	DependencyCycleId
	LoadOrderWriteFailedId
)

type (
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

// Render renders the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	gamePathNotFoundIssue = &Issue{
		id: GamePathNotFoundId,
		mdMsg: `
# Game data folder not found!

The game path must contain a ` + "`Data`" + ` folder holding the installed plugins.

## Things you can try:
- Point ` + "`--game-path`" + ` (or ` + "`game_path`" + ` in your config) at the game's install folder, not at ` + "`Data`" + ` itself
- Check that the game is installed and the folder is readable
- Print the effective configuration:
~~~
$ plugsort config show
~~~`,
	}

	invalidGameIssue = &Issue{
		id: InvalidGameId,
		mdMsg: `
# Unsupported game!

The configured game kind is not one plugsort knows how to sort.

## Supported games:
- **tes4**: Oblivion
- **tes5**: Skyrim
- **fo3**: Fallout 3
- **fonv**: Fallout: New Vegas
- **fo4**: Fallout 4

## Things you can try:
- Set the game in your config file:
~~~cue
game: "tes5"
~~~

- Or pass it on the command line:
~~~
$ plugsort sort --game tes5 --game-path /path/to/Skyrim
~~~`,
	}

	localFolderUnavailableIssue = &Issue{
		id: LocalFolderUnavailableId,
		mdMsg: `
# Local game folder unavailable!

plugsort keeps ` + "`loadorder.txt`" + ` and ` + "`plugins.txt`" + ` in the game's local folder and could not create it.

## Things you can try:
- Check the permissions of the parent folder
- Set ` + "`local_path`" + ` in your config to a folder you own`,
	}

	metadataNotFoundIssue = &Issue{
		id: MetadataNotFoundId,
		mdMsg: `
# Metadata document not found!

A masterlist or userlist path was given but no file exists there.

## Things you can try:
- Check the ` + "`masterlist`" + ` and ` + "`userlist`" + ` paths in your config
- Leave the path empty to sort without that document`,
	}

	metadataParseErrorIssue = &Issue{
		id: MetadataParseErrorId,
		mdMsg: `
# Failed to parse metadata!

A masterlist or userlist document is not valid.

## Common issues:
- Unknown field names
- A plugin name that does not end in ` + "`.esm`" + ` or ` + "`.esp`" + `
- A message with an unknown ` + "`type`" + ` (use ` + "`say`" + `, ` + "`warn`" + ` or ` + "`error`" + `)

## Example of a valid document:
~~~yaml
plugins:
  - name: Unofficial Patch.esp
    req: [Dawnguard.esm]
    after: [Some Mod.esp]
    priority: 10
    msg:
      - type: warn
        content: Clean this plugin before use.
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read or validated.

## Things you can try:
- Check the file for CUE syntax errors
- Compare it with the defaults:
~~~
$ plugsort config show
~~~

## Example configuration:
~~~cue
game:            "tes5"
game_path:       "/games/Skyrim"
masterlist:      "/games/metadata/masterlist.yaml"
priority_policy: "override"
lanes:           4
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Cyclic interaction detected!

The plugins' masters, requirements and load-after rules contradict each other, so no load order satisfies them all. The cycle is listed above; each arrow names the rule that creates it.

## Things you can try:
- Remove the userlist rule that closes the cycle
- A master cannot load after a plugin that depends on it; check for load-after rules pointing the wrong way
- Report curated masterlist cycles upstream`,
	}

	loadOrderWriteFailedIssue = &Issue{
		id: LoadOrderWriteFailedId,
		mdMsg: `
# Failed to write the load order!

The sorted load order could not be saved to ` + "`loadorder.txt`" + `.

## Things you can try:
- Close any mod manager that keeps the file open
- Check the permissions of the local game folder
- Run ` + "`plugsort sort`" + ` without ` + "`--apply`" + ` to only print the order`,
	}

	issues = map[Id]*Issue{
		gamePathNotFoundIssue.Id():       gamePathNotFoundIssue,
		invalidGameIssue.Id():            invalidGameIssue,
		localFolderUnavailableIssue.Id(): localFolderUnavailableIssue,
		metadataNotFoundIssue.Id():       metadataNotFoundIssue,
		metadataParseErrorIssue.Id():     metadataParseErrorIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		dependencyCycleIssue.Id():        dependencyCycleIssue,
		loadOrderWriteFailedIssue.Id():   loadOrderWriteFailedIssue,
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
