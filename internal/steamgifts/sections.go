package steamgifts

import "fmt"

// Section listing URL templates, parameterized by page number. The set is
// fixed by the site, not by runtime configuration.
var sectionURLs = map[string]string{
	"Wishlist":    "search?page=%d&type=wishlist",
	"Recommended": "search?page=%d&type=recommended",
	"Copies":      "search?page=%d&copy_min=2",
	"DLC":         "search?page=%d&dlc=true",
	"Group":       "search?page=%d&type=group",
	"New":         "search?page=%d&type=new",
	"All":         "search?page=%d",
}

// SectionURL builds the listing URL for one page of a named section.
func SectionURL(baseURL, section string, page int) (string, error) {
	tmpl, ok := sectionURLs[section]
	if !ok {
		return "", fmt.Errorf("unknown section %q", section)
	}
	return baseURL + "giveaways/" + fmt.Sprintf(tmpl, page), nil
}

// KnownSection reports whether a section name maps to a listing filter.
func KnownSection(section string) bool {
	_, ok := sectionURLs[section]
	return ok
}
