package zotero

// Collection is a Zotero collection as shown to the user. The pseudo
// collection with an empty Key stands for the whole library.
type Collection struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	NumItems int    `json:"numItems"`
}

// AllItems is prepended to every collection listing.
var AllItems = Collection{Key: "", Name: "All Items", NumItems: 0}

type apiCollection struct {
	Key  string `json:"key"`
	Meta struct {
		NumCollections int `json:"numCollections"`
		NumItems       int `json:"numItems"`
	} `json:"meta"`
	Data struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"data"`
}

// Item is one entry of an items listing requested with include=data,meta.
type Item struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Meta    ItemMeta `json:"meta"`
	Data    ItemData `json:"data"`
}

type ItemMeta struct {
	CreatorSummary string `json:"creatorSummary,omitempty"`
	ParsedDate     string `json:"parsedDate,omitempty"`
	NumChildren    int    `json:"numChildren,omitempty"`
}

// ItemData carries the bibliographic fields used by the importer. Zotero
// returns many more; unknown ones are ignored.
type ItemData struct {
	Key                 string    `json:"key"`
	ItemType            string    `json:"itemType"`
	Title               string    `json:"title"`
	Creators            []Creator `json:"creators"`
	AbstractNote        string    `json:"abstractNote"`
	PublicationTitle    string    `json:"publicationTitle"`
	JournalAbbreviation string    `json:"journalAbbreviation"`
	Volume              string    `json:"volume"`
	Issue               string    `json:"issue"`
	Pages               string    `json:"pages"`
	Date                string    `json:"date"`
	DOI                 string    `json:"DOI"`
	URL                 string    `json:"url"`
	ISBN                string    `json:"ISBN"`
	ISSN                string    `json:"ISSN"`
	Publisher           string    `json:"publisher"`
	Tags                []Tag     `json:"tags"`
}

// Creator is either a two-field name or a single-field Name.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

type Tag struct {
	Tag  string `json:"tag"`
	Type int    `json:"type,omitempty"`
}
