package dlsite

import (
	"fmt"
	"html"
	"regexp"

	"github.com/NobeKanai/dvtag/internal/dlsite/dto"
	"github.com/NobeKanai/dvtag/internal/model"
)

var (
	productPattern = regexp.MustCompile(`data-product-name="(.+)"\s*data-maker-name="(.+)"`)
	imagePattern   = regexp.MustCompile(`"og:image"[\s\S]*?content="(.+?)"`)
	seiyuRow       = regexp.MustCompile(`<th>声優</th>[\s\S]*?<td>[\s\S]*?(<a[\s\S]*?>[\s\S]*?)</td>`)
	seiyuLink      = regexp.MustCompile(`<a[\s\S]*?>(.+?)<`)
	genrePattern   = regexp.MustCompile(`work\.genre">(.+?)</a>`)
	saleDate       = regexp.MustCompile(`www\.dlsite\.com/.*?/new/=/year/([0-9]{4})/mon/([0-9]{2})/day/([0-9]{2})/`)
)

// ParseWorkPage extracts a release from a DLsite work page.
//
// The page must be the Japanese version: the voice actor row is found by
// its 声優 header. Name, circle, cover and sale date are required and their
// absence is reported as *ParseError. Voice actors and genres are optional.
//
// Example:
//
//	rel, err := dlsite.ParseWorkPage("RJ123456", htmlContent)
//	if err != nil {
//	    return fmt.Errorf("failed to parse work page: %w", err)
//	}
func ParseWorkPage(workNo, page string) (*model.Release, error) {
	rel := &model.Release{ID: workNo}

	m := productPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, &ParseError{WorkNo: workNo, Field: "work name"}
	}
	rel.Name = html.UnescapeString(m[1])
	rel.Circle = html.UnescapeString(m[2])

	m = imagePattern.FindStringSubmatch(page)
	if m == nil {
		return nil, &ParseError{WorkNo: workNo, Field: "cover image url"}
	}
	rel.ImageURL = dto.NormalizeURL(html.UnescapeString(m[1]))

	if m = seiyuRow.FindStringSubmatch(page); m != nil {
		for _, link := range seiyuLink.FindAllStringSubmatch(m[1], -1) {
			rel.Seiyus = append(rel.Seiyus, html.UnescapeString(link[1]))
		}
	}

	for _, g := range genrePattern.FindAllStringSubmatch(page, -1) {
		rel.Genres = append(rel.Genres, html.UnescapeString(g[1]))
	}

	m = saleDate.FindStringSubmatch(page)
	if m == nil {
		return nil, &ParseError{WorkNo: workNo, Field: "sale date"}
	}
	rel.SaleDate = fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])

	return rel, nil
}

// ApplyChobit refines rel with the chobit embed response body.
// A body that cannot be decoded is reported as *ParseError.
func ApplyChobit(rel *model.Release, body []byte) error {
	resp, err := dto.ParseChobit(body)
	if err != nil {
		return &ParseError{WorkNo: rel.ID, Field: "chobit", Err: err}
	}
	resp.Apply(rel)
	return nil
}
