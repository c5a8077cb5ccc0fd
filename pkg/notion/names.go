package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// ListNames pages through a Notion database and returns the plain-text value
// of the given property for every page. Pages where the property is missing
// or empty are skipped. Works with title and rich-text properties, which is
// what investor list databases use in practice.
func ListNames(ctx context.Context, c Client, dbID, property string) ([]string, error) {
	var names []string

	req := &notionapi.DatabaseQueryRequest{}
	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list names")
		}

		for _, page := range resp.Results {
			if name := propertyText(page, property); name != "" {
				names = append(names, name)
			}
		}

		if !resp.HasMore {
			break
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
	}

	return names, nil
}

func propertyText(page notionapi.Page, property string) string {
	prop, ok := page.Properties[property]
	if !ok {
		return ""
	}
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return strings.TrimSpace(plainText(p.Title))
	case *notionapi.RichTextProperty:
		return strings.TrimSpace(plainText(p.RichText))
	default:
		return ""
	}
}

func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}
