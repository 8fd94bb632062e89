package sources

import (
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

// gofeed's default translators fill Published from <updated> or dc:date when
// the entry has no publication date. These keep only the entry's own
// <published> or <pubDate>, so undated entries stay undated.

type publishedOnlyRSS struct {
	gofeed.DefaultRSSTranslator
}

func (t *publishedOnlyRSS) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	raw := feed.(*rss.Feed)
	for i, item := range out.Items {
		if i >= len(raw.Items) || raw.Items[i] == nil {
			break
		}
		item.Published = raw.Items[i].PubDate
		item.PublishedParsed = raw.Items[i].PubDateParsed
	}
	return out, nil
}

type publishedOnlyAtom struct {
	gofeed.DefaultAtomTranslator
}

func (t *publishedOnlyAtom) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultAtomTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	raw := feed.(*atom.Feed)
	for i, item := range out.Items {
		if i >= len(raw.Entries) || raw.Entries[i] == nil {
			break
		}
		item.Published = raw.Entries[i].Published
		item.PublishedParsed = raw.Entries[i].PublishedParsed
	}
	return out, nil
}

func newFeedParser() *gofeed.Parser {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &publishedOnlyRSS{}
	parser.AtomTranslator = &publishedOnlyAtom{}
	return parser
}
