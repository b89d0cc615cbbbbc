package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"review_pulse/internal/domain"
)

// utf8BOM lets spreadsheet tools detect the encoding of non-ASCII reviews.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const dateLayout = "2006-01-02 15:04:05"

// ExportHeader lists the exported columns; the country column is not exported.
func ExportHeader(targetLang string) []string {
	return []string{
		"Date", "User Name", "Score", "App Version", "Review",
		fmt.Sprintf("Review (%s Translation)", strings.ToUpper(targetLang)),
		"Developer Reply",
	}
}

func opt(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// WriteCSV writes rows as UTF-8 CSV prefixed with a byte-order mark.
func WriteCSV(w io.Writer, rows []domain.Review, targetLang string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader(targetLang)); err != nil {
		return err
	}
	for _, rv := range rows {
		date := ""
		if !rv.At.IsZero() {
			date = rv.At.Format(dateLayout)
		}
		rec := []string{
			date,
			opt(rv.Author),
			strconv.Itoa(rv.Score),
			opt(rv.AppVersion),
			rv.Text,
			opt(rv.TranslatedText),
			opt(rv.DeveloperReply),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename embeds the export date: <prefix>_YYYYMMDD.csv.
func ExportFilename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102"))
}
