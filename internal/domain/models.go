package domain

// Hero is one character record as returned by the remote catalog.
// The query core never looks inside it.
type Hero struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Modified    string        `json:"modified,omitempty"`
	Thumbnail   HeroThumbnail `json:"thumbnail"`
	ResourceURI string        `json:"resourceURI"`
	Comics      HeroSubItems  `json:"comics"`
	Series      HeroSubItems  `json:"series"`
	Stories     HeroSubItems  `json:"stories"`
	Events      HeroSubItems  `json:"events"`
	URLs        []HeroURL     `json:"urls,omitempty"`
}

// HeroThumbnail points at the character image
type HeroThumbnail struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// HeroSubItems is a partial listing of related resources (comics, series...)
type HeroSubItems struct {
	Available     int           `json:"available"`
	Returned      int           `json:"returned"`
	CollectionURI string        `json:"collectionURI"`
	Items         []HeroSubItem `json:"items"`
}

// HeroSubItem is a single related resource
type HeroSubItem struct {
	ResourceURI string `json:"resourceURI"`
	Name        string `json:"name"`
}

// HeroURL is a public web link for a character
type HeroURL struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// QueryParams is the query key: everything that determines one fetch.
type QueryParams struct {
	Search string
	Page   int // zero-based page index
	Limit  int // page size
}

// Offset returns the number of items to skip on the server
func (p QueryParams) Offset() int {
	return p.Page * p.Limit
}

// QueryState is the single state cell owned by the query store
type QueryState struct {
	Params  QueryParams
	Loading bool
	Version uint64 // incremented on every accepted mutation
}

// FetchResult is one page of remote data.
// Total is the server-side total across all pages, not len(Items).
type FetchResult struct {
	Items []Hero
	Total int
}

// EmptyResult is what a failed fetch is reported as
func EmptyResult() FetchResult {
	return FetchResult{Items: []Hero{}, Total: 0}
}

// ViewModel is the presentation-ready snapshot. It is always replaced, never edited.
type ViewModel struct {
	Params     QueryParams
	Loading    bool
	Items      []Hero
	Total      int
	TotalPages int
	UserPage   int // one-based
	IsLastPage bool
}

// NewViewModel derives the pagination metrics from params and result
func NewViewModel(params QueryParams, loading bool, result FetchResult) ViewModel {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (result.Total + params.Limit - 1) / params.Limit
	}
	userPage := params.Page + 1

	items := make([]Hero, len(result.Items))
	copy(items, result.Items)

	return ViewModel{
		Params:     params,
		Loading:    loading,
		Items:      items,
		Total:      result.Total,
		TotalPages: totalPages,
		UserPage:   userPage,
		IsLastPage: totalPages == 0 || userPage == totalPages,
	}
}

// IsFirstPage reports whether the previous-page control should be disabled
func (vm ViewModel) IsFirstPage() bool {
	return vm.UserPage <= 1
}

// HasPrevPage reports whether moving back one page is valid
func (vm ViewModel) HasPrevPage() bool {
	return !vm.IsFirstPage()
}

// HasNextPage reports whether moving forward one page is valid
func (vm ViewModel) HasNextPage() bool {
	return !vm.IsLastPage && vm.UserPage < vm.TotalPages
}
