package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"shopfeed.app/engine/internal/model"
)

const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXML  = "application/xml; charset=utf-8"
)

// Channel seeds the RSS channel metadata for Google XML feeds.
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Serialize renders records (order preserved) to the configured wire
// format and returns the body plus its content type.
func Serialize(format model.FeedFormat, platform model.Platform, channel Channel, records []*Record) (string, string, error) {
	switch format {
	case model.FormatJSON:
		body, err := serializeJSON(records)
		return body, ContentTypeJSON, err
	case model.FormatCSV:
		return serializeCSV(records), ContentTypeCSV, nil
	case model.FormatXML:
		return serializeXML(platform, channel, records), ContentTypeXML, nil
	}
	return "", "", fmt.Errorf("unknown feed format %q", format)
}

func serializeJSON(records []*Record) (string, error) {
	if records == nil {
		records = []*Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling feed json: %w", err)
	}
	return string(data), nil
}

// serializeCSV assumes a uniform schema across records of one platform:
// the header row comes from the first record's keys. Every field is
// double-quote-wrapped with internal quotes doubled, and list values are
// joined with "|" before quoting.
func serializeCSV(records []*Record) string {
	if len(records) == 0 {
		return ""
	}

	header := records[0].Keys()
	var b strings.Builder

	cells := make([]string, len(header))
	for i, key := range header {
		cells[i] = csvQuote(key)
	}
	b.WriteString(strings.Join(cells, ","))
	b.WriteByte('\n')

	for _, record := range records {
		for i, key := range header {
			value, _ := record.Get(key)
			cells[i] = csvQuote(fieldString(value))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

const xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>`

// serializeXML wraps Google feeds in an RSS 2.0 channel with the g:
// namespace; every other platform gets a flat <products> document. All
// values are CDATA-wrapped and empty fields are omitted entirely,
// mirroring the Meta formatter's omission rule.
func serializeXML(platform model.Platform, channel Channel, records []*Record) string {
	var b strings.Builder
	b.WriteString(xmlProlog)
	b.WriteByte('\n')

	if platform == model.PlatformGoogle {
		description := channel.Description
		if description == "" {
			description = channel.Title + " product feed"
		}
		b.WriteString(`<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">` + "\n")
		b.WriteString("  <channel>\n")
		writeXMLField(&b, "    ", "title", channel.Title)
		writeXMLField(&b, "    ", "link", channel.Link)
		writeXMLField(&b, "    ", "description", description)
		for _, record := range records {
			b.WriteString("    <item>\n")
			for _, key := range record.Keys() {
				value, _ := record.Get(key)
				writeXMLField(&b, "      ", googleFieldName(key), fieldString(value))
			}
			b.WriteString("    </item>\n")
		}
		b.WriteString("  </channel>\n")
		b.WriteString("</rss>\n")
		return b.String()
	}

	b.WriteString("<products>\n")
	for _, record := range records {
		b.WriteString("  <product>\n")
		for _, key := range record.Keys() {
			value, _ := record.Get(key)
			writeXMLField(&b, "    ", key, fieldString(value))
		}
		b.WriteString("  </product>\n")
	}
	b.WriteString("</products>\n")
	return b.String()
}

// googleFieldName maps a record key to its RSS item element name. title,
// link, and description are RSS-native; everything else lives in the g:
// namespace.
func googleFieldName(key string) string {
	switch key {
	case "title", "link", "description":
		return key
	}
	return "g:" + key
}

func writeXMLField(b *strings.Builder, indent, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(name)
	b.WriteString("><![CDATA[")
	// A literal "]]>" inside the value would end the CDATA section early.
	b.WriteString(strings.ReplaceAll(value, "]]>", "]]]]><![CDATA[>"))
	b.WriteString("]]></")
	b.WriteString(name)
	b.WriteString(">\n")
}

// fieldString renders a record value for the CSV and XML paths. Lists are
// joined with "|"; numbers drop trailing zeros.
func fieldString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "|")
	case float64:
		return FormatPrice(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
