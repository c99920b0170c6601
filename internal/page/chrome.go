package page

import "github.com/dgallion1/weddingsite/internal/content"

type NavLink struct {
	Label   string
	Href    string
	Current bool
}

// Header is the persistent top chrome. MenuID scopes the mobile menu toggle
// to the header's own nav element.
type Header struct {
	SiteName string
	Links    []NavLink
	MenuID   string
}

type Footer struct {
	SiteName string
	Year     int
	Links    []NavLink
}

const menuID = "site-menu"

func newHeader(site Site, nav []content.PageDocument, current string) Header {
	h := Header{SiteName: site.Name, MenuID: menuID}
	for _, doc := range nav {
		h.Links = append(h.Links, NavLink{
			Label:   doc.Label(),
			Href:    doc.Path(),
			Current: doc.Slug == current,
		})
	}
	return h
}

func newFooter(site Site, nav []content.PageDocument, year int) Footer {
	f := Footer{SiteName: site.Name, Year: year}
	for _, doc := range nav {
		f.Links = append(f.Links, NavLink{Label: doc.Label(), Href: doc.Path()})
	}
	return f
}
