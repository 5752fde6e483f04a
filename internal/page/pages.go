// Package page declares the site's pages, the fragments each one carries, and
// the interactions (flows) those fragments trigger.
package page

// Fragment is an optional part of a page that brings its own interaction.
type Fragment string

const (
	CreateForm      Fragment = "create-form"
	StatisticsPanel Fragment = "statistics"
	DeleteControls  Fragment = "delete"
	TagSelect       Fragment = "tag-select"
	DailyPriceModal Fragment = "daily-price"
	DateFilter      Fragment = "date-filter"
	ReceiveControls Fragment = "receive"
	PriceQuery      Fragment = "price-query"
	TagLists        Fragment = "tag-lists"
	PendingBadge    Fragment = "pending-badge"
)

// Page is one full-page route and the fragments rendered on it.
type Page struct {
	Name      string
	Path      string
	Title     string
	Template  string
	Fragments []Fragment
}

// Has reports whether the page carries f.
func (p Page) Has(f Fragment) bool {
	for _, x := range p.Fragments {
		if x == f {
			return true
		}
	}
	return false
}

var (
	Index = Page{
		Name:      "index",
		Path:      "/",
		Title:     "记一笔",
		Template:  "index_page",
		Fragments: []Fragment{CreateForm, StatisticsPanel, PendingBadge},
	}
	List = Page{
		Name:      "list",
		Path:      "/list",
		Title:     "消费列表",
		Template:  "list_page",
		Fragments: []Fragment{DeleteControls, TagSelect, DailyPriceModal, DateFilter, PendingBadge},
	}
	Pending = Page{
		Name:      "pending",
		Path:      "/pending",
		Title:     "待收货",
		Template:  "pending_page",
		Fragments: []Fragment{ReceiveControls, DeleteControls, PendingBadge},
	}
	Price = Page{
		Name:      "price",
		Path:      "/price",
		Title:     "历史价格",
		Template:  "price_page",
		Fragments: []Fragment{PriceQuery, PendingBadge},
	}
	Tags = Page{
		Name:      "tags",
		Path:      "/tags",
		Title:     "标签",
		Template:  "tags_page",
		Fragments: []Fragment{TagLists, PendingBadge},
	}
)

// All lists the pages in navigation order.
func All() []Page {
	return []Page{Index, List, Pending, Price, Tags}
}
