package testutil

// Page keys used by the scripted flows.
const (
	HomeKey          = "home"
	SearchTabsKey    = "search:tabs"
	SearchGroupsKey  = "search:groups"
	SearchResultsKey = "search:users"
)

// ScriptLogin serves a login form at loginURL whose fifth submit button
// leads to the home page.
func (f *FakeBrowser) ScriptLogin(loginURL string, buttons int) {
	f.Pages[loginURL] = LoginPage(buttons)
	f.Pages[HomeKey] = HomePage
	f.Transitions[Click{Selector: `button[type="submit"]`, N: 4}.Key()] = HomeKey
}

// ScriptSearch wires the author search flow: Enter shows tabs result tabs,
// the fifth tab shows groups groupings, and the third grouping lists profiles.
func (f *FakeBrowser) ScriptSearch(tabs, groups int, profiles ...string) {
	f.Pages[SearchTabsKey] = SearchTabsPage(tabs)
	f.Pages[SearchGroupsKey] = SearchGroupingsPage(groups)
	f.Pages[SearchResultsKey] = UserResultsPage(profiles...)
	f.Transitions[EnterKey] = SearchTabsKey
	f.Transitions[Click{Selector: "nav a", N: 4}.Key()] = SearchGroupsKey
	f.Transitions[Click{Selector: ".layout-body ._unit nav ul", N: 2, Descendant: "li a"}.Key()] = SearchResultsKey
}
