package testutil

import (
	"fmt"
	"strings"
)

// Thumb is one listing tile in a fixture page.
type Thumb struct {
	Src    string
	Author string
	Title  string
}

// RankingThumb builds a ranking thumbnail URL for illustration id.
func RankingThumb(id int) string {
	return fmt.Sprintf("https://i.pximg.net/c/240x480/img-master/img/2024/05/01/00/00/00/%d_p0_master1200.jpg", id)
}

// RankingOriginal is the full-size URL RankingThumb(id) rewrites to.
func RankingOriginal(id int) string {
	return fmt.Sprintf("https://i.pximg.net/img-original/img/2024/05/01/00/00/00/%d_p0.jpg", id)
}

// RankingPage renders a ranking listing. A Thumb with an empty Src renders
// an item without an image element.
func RankingPage(items ...Thumb) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="layout-body"><div class="ranking-items">`)
	for i, it := range items {
		b.WriteString(`<section class="ranking-item">`)
		if it.Src != "" {
			fmt.Fprintf(&b, `<div class="ranking-image-item"><a href="/artworks/%d"><div class="_layout-thumbnail"><img src="/spacer.gif" data-src="%s"></div></a></div>`, i, it.Src)
		}
		fmt.Fprintf(&b, `<h2><a href="/artworks/%d">%s</a></h2>`, i, it.Title)
		fmt.Fprintf(&b, `<a class="user-container" data-user_name="%s" href="/users/%d">%s</a>`, it.Author, i, it.Author)
		b.WriteString(`</section>`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// AuthorThumb builds an author listing thumbnail URL for illustration id.
func AuthorThumb(id int) string {
	return fmt.Sprintf("https://i.pximg.net/c/250x250_80_a2/custom-thumb/img/2024/01/02/03/04/05/%d_p0_custom1200.jpg", id)
}

// AuthorOriginal is the full-size URL AuthorThumb(id) rewrites to.
func AuthorOriginal(id int) string {
	return fmt.Sprintf("https://i.pximg.net/img-original/img/2024/01/02/03/04/05/%d_p0.jpg", id)
}

// AuthorPage renders an author illustration listing.
func AuthorPage(items ...Thumb) string {
	var b strings.Builder
	b.WriteString(`<html><body><section><h2>Works</h2><span>filters</span><div><div><ul>`)
	for i, it := range items {
		b.WriteString(`<li><div><div type="illust"><a href="/artworks/`)
		fmt.Fprintf(&b, `%d"><div>`, i)
		if it.Src != "" {
			fmt.Fprintf(&b, `<img src="%s" alt="%s">`, it.Src, it.Title)
		}
		b.WriteString(`</div></a></div></div></li>`)
	}
	b.WriteString(`</ul></div></div></section></body></html>`)
	return b.String()
}

// HomePage is the landing page after login, carrying the search box.
const HomePage = `<html><body><div id="root"><header><input type="text" placeholder="Search works"></header></div></body></html>`

// LoginPage renders a login form with the given number of submit buttons.
func LoginPage(buttons int) string {
	var b strings.Builder
	b.WriteString(`<html><body><form>`)
	b.WriteString(`<input autocomplete="username webauthn"><input type="password" autocomplete="current-password webauthn">`)
	for i := 0; i < buttons; i++ {
		fmt.Fprintf(&b, `<button type="submit">option %d</button>`, i)
	}
	b.WriteString(`</form></body></html>`)
	return b.String()
}

// SearchTabsPage renders the search result page with n result tabs.
func SearchTabsPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><nav>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<a href="/tags/x/%d">tab %d</a>`, i, i)
	}
	b.WriteString(`</nav></body></html>`)
	return b.String()
}

// SearchGroupingsPage renders the users tab with n match groupings.
func SearchGroupingsPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="layout-body"><div class="_unit"><nav>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<ul><li><a href="/search_user.php?s_mode=%d">group %d</a></li></ul>`, i, i)
	}
	b.WriteString(`</nav></div></div></body></html>`)
	return b.String()
}

// UserResultsPage renders the exact-match user list.
func UserResultsPage(profiles ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="user-search-result-container"><ul>`)
	for _, p := range profiles {
		fmt.Fprintf(&b, `<li><a href="%s">user</a></li>`, p)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}
