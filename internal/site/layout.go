// Package site holds the page structure and navigation rules of the gallery site.
package site

// Layout collects every selector and positional index the harvester relies on.
// The indices are fragile by nature and kept here so a site redesign is a
// one-file change.
type Layout struct {
	// ranking listing
	RankingAnchor     string
	RankingItem       string
	RankingImage      string
	RankingImageAttr  string
	RankingAuthor     string
	RankingAuthorAttr string
	RankingTitle      string

	// author illustration listing
	IllustAnchor string
	IllustItem   string
	IllustImage  string

	// author search
	SearchInput          string
	ResultTabs           string
	UsersTabIndex        int
	SearchLayoutAnchor   string
	ResultGroupings      string
	ExactMatchGroupIndex int
	GroupingLink         string
	UserResultsAnchor    string
	UserResultLink       string

	// login
	UsernameInput    string
	PasswordInput    string
	LoginButton      string
	LoginButtonIndex int
	LoggedInAnchor   string
}

// DefaultLayout returns the layout of the live site.
func DefaultLayout() Layout {
	return Layout{
		RankingAnchor:     `div[class="layout-body"]`,
		RankingItem:       ".ranking-item",
		RankingImage:      ".ranking-image-item a ._layout-thumbnail img",
		RankingImageAttr:  "data-src",
		RankingAuthor:     "a[data-user_name]",
		RankingAuthorAttr: "data-user_name",
		RankingTitle:      "h2 a",

		IllustAnchor: "section div:nth-child(3) div ul",
		IllustItem:   "section div:nth-child(3) div ul li",
		IllustImage:  `div div[type="illust"] a div img`,

		SearchInput:          `input[type="text"]`,
		ResultTabs:           "nav a",
		UsersTabIndex:        4,
		SearchLayoutAnchor:   `div[class="layout-body"]`,
		ResultGroupings:      ".layout-body ._unit nav ul",
		ExactMatchGroupIndex: 2,
		GroupingLink:         "li a",
		UserResultsAnchor:    `div[class="user-search-result-container"]`,
		UserResultLink:       ".user-search-result-container ul li a",

		UsernameInput:    `input[autocomplete="username webauthn"]`,
		PasswordInput:    `input[autocomplete="current-password webauthn"]`,
		LoginButton:      `button[type="submit"]`,
		LoginButtonIndex: 4,
		LoggedInAnchor:   `div[id="root"]`,
	}
}

// Site is the addressing and layout of one deployment of the gallery.
type Site struct {
	BaseURL     string
	LoginURL    string
	ImageOrigin string
	Layout      Layout
}

// Default returns the public site with the default layout.
func Default() Site {
	return Site{
		BaseURL:     "https://www.pixiv.net",
		LoginURL:    "https://accounts.pixiv.net/login",
		ImageOrigin: "https://i.pximg.net",
		Layout:      DefaultLayout(),
	}
}
