package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path      string // e.g. "/shop"
	Label     string
	AuthOnly  bool // visible only when signed in
	AdminOnly bool // visible only to admins
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", Label: "Home"},
	{Path: "/shop", Label: "Shop"},
	{Path: "/cart", Label: "Cart"},
	{Path: "/my-orders", Label: "My Orders", AuthOnly: true},
	{Path: "/admin", Label: "Admin", AdminOnly: true},
}

// Build renders navigation items with active state given the current path,
// filtered by the viewer's sign-in state and role.
func Build(currentPath string, signedIn, admin bool) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		if it.AuthOnly && !signedIn {
			continue
		}
		if it.AdminOnly && !admin {
			continue
		}
		items = append(items, RenderedItem{
			Href:   it.Path,
			Label:  it.Label,
			Active: isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/shop" or "/shop/..."
	if currentPath == itemPath {
		return true
	}
	if strings.HasPrefix(currentPath, itemPath+"/") {
		return true
	}
	return false
}

// Breadcrumbs builds breadcrumb entries from the current path.
// Rules:
// - Always start with Home
// - For known top-level sections, use the nav label
// - For deeper segments, use a prettified segment label
func Breadcrumbs(currentPath string) []Crumb {
	var crumbs []Crumb
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs = append(crumbs, Crumb{Href: "/", Label: "Home", Active: currentPath == "/"})
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	if clean == "." { // should not happen but guard
		clean = "/"
	}
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")

	if len(parts) > 0 && parts[0] != "" {
		top := "/" + parts[0]
		label := titleFromSegment(parts[0])
		for _, it := range Main {
			if it.Path == top {
				label = it.Label
				break
			}
		}
		crumbs = append(crumbs, Crumb{Href: top, Label: label, Active: len(parts) == 1})
	}

	if len(parts) > 1 {
		href := "/" + parts[0]
		for i := 1; i < len(parts); i++ {
			href = href + "/" + parts[i]
			crumbs = append(crumbs, Crumb{
				Href:   href,
				Label:  titleFromSegment(parts[i]),
				Active: i == len(parts)-1,
			})
		}
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = toUpper(r[0])
	return string(r)
}

func toUpper(r rune) rune {
	// ASCII only is sufficient for slugs here
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
